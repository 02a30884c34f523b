package pipeline

// HookPos names a point in the runner where hooks are invoked.
type HookPos struct {
	Name string
}

// HookCtx describes one hook invocation. For the runner, Item is always a
// *StageRun.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable accepts hooks.
type Hookable interface {
	AcceptHook(hook Hook)
}

// HookPosStageStart triggers right before a stage command is executed.
var HookPosStageStart = &HookPos{Name: "StageStart"}

// HookPosStageSkip triggers when a stage is skipped because its artifact
// already exists.
var HookPosStageSkip = &HookPos{Name: "StageSkip"}

// HookPosStageEnd triggers after a stage command succeeds.
var HookPosStageEnd = &HookPos{Name: "StageEnd"}

// HookPosStageFail triggers after a stage command fails.
var HookPosStageFail = &HookPos{Name: "StageFail"}

// Hook observes the runner. Hooks are called synchronously, in the order they
// were accepted, and must not block.
type Hook interface {
	Func(ctx HookCtx)
}

// HookableBase keeps the hooks of a Hookable and invokes them.
type HookableBase struct {
	Hooks []Hook
}

// NewHookableBase creates an empty HookableBase.
func NewHookableBase() *HookableBase {
	return &HookableBase{Hooks: make([]Hook, 0)}
}

// AcceptHook appends a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// InvokeHook calls every hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
