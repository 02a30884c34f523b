package pipeline

import (
	"log"
)

// StageLogger is a hook that prints every command the runner executes or
// skips.
type StageLogger struct {
	*log.Logger
}

// NewStageLogger returns a StageLogger that writes into the logger.
func NewStageLogger(logger *log.Logger) *StageLogger {
	return &StageLogger{Logger: logger}
}

// Func writes the stage information into the logger.
func (h *StageLogger) Func(ctx HookCtx) {
	run, ok := ctx.Item.(*StageRun)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosStageStart:
		h.Printf("Running: %s", run.Command)
	case HookPosStageSkip:
		h.Printf("Skipping %s of %s, %s exists",
			run.Stage, run.Descriptor.ID, run.Artifact)
	case HookPosStageEnd:
		h.Printf("Finished %s of %s in %s",
			run.Stage, run.Descriptor.ID, run.End.Sub(run.Start))
	case HookPosStageFail:
		h.Printf("Failed %s of %s: %v", run.Stage, run.Descriptor.ID, run.Err)
	}
}
