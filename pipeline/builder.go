package pipeline

import (
	"time"

	"github.com/sarchlab/sramchar/experiment"
)

// A RunnerBuilder can build Runners.
type RunnerBuilder struct {
	rc        experiment.RunContext
	executor  Executor
	stages    []Stage
	overwrite bool
	keepGoing bool
	hooks     []Hook
}

// MakeRunnerBuilder returns a RunnerBuilder that runs every stage with a
// ProcessExecutor.
func MakeRunnerBuilder() RunnerBuilder {
	return RunnerBuilder{
		stages: AllStages,
	}
}

// WithRunContext sets the run context.
func (b RunnerBuilder) WithRunContext(rc experiment.RunContext) RunnerBuilder {
	b.rc = rc
	return b
}

// WithExecutor sets the executor that runs the commands.
func (b RunnerBuilder) WithExecutor(e Executor) RunnerBuilder {
	b.executor = e
	return b
}

// WithStages selects the stages to run. They always run in execution order.
func (b RunnerBuilder) WithStages(stages ...Stage) RunnerBuilder {
	selected := make(map[Stage]bool)
	for _, s := range stages {
		selected[s] = true
	}

	b.stages = nil
	for _, s := range AllStages {
		if selected[s] {
			b.stages = append(b.stages, s)
		}
	}

	return b
}

// WithOverwrite forces every stage to run even if its artifact exists.
func (b RunnerBuilder) WithOverwrite(overwrite bool) RunnerBuilder {
	b.overwrite = overwrite
	return b
}

// WithKeepGoing lets tests that did not fail continue after another test
// fails.
func (b RunnerBuilder) WithKeepGoing(keepGoing bool) RunnerBuilder {
	b.keepGoing = keepGoing
	return b
}

// WithHook attaches a hook to the runner.
func (b RunnerBuilder) WithHook(h Hook) RunnerBuilder {
	b.hooks = append(b.hooks, h)
	return b
}

// Build creates the Runner.
func (b RunnerBuilder) Build() *Runner {
	if err := b.rc.Validate(); err != nil {
		panic(err)
	}

	executor := b.executor
	if executor == nil {
		executor = NewProcessExecutor(false)
	}

	r := &Runner{
		HookableBase: NewHookableBase(),
		rc:           b.rc,
		executor:     executor,
		stages:       b.stages,
		overwrite:    b.overwrite,
		keepGoing:    b.keepGoing,
		now:          time.Now,
	}

	for _, h := range b.hooks {
		r.AcceptHook(h)
	}

	return r
}
