// Package pipeline drives the external toolchain through the build,
// simulate, power-synthesize, and power-report stages of every test.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sarchlab/sramchar/experiment"
)

// StageRun describes one stage of one test. It is the item of every hook
// invocation.
type StageRun struct {
	Stage      Stage
	Descriptor *experiment.Descriptor
	Command    Command
	Artifact   string
	Start      time.Time
	End        time.Time
	Skipped    bool
	Err        error
}

// StageError wraps the failure of a stage with the test it ran for.
type StageError struct {
	Stage  Stage
	TestID string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage of %s: %v", e.Stage, e.TestID, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Runner executes stages for a batch of tests, one command at a time.
type Runner struct {
	*HookableBase

	rc        experiment.RunContext
	executor  Executor
	stages    []Stage
	overwrite bool
	keepGoing bool
	now       func() time.Time

	failed map[*experiment.Descriptor]bool
}

// Run executes the selected stages for every descriptor. Stages run in order
// across the whole batch. The build stage runs once per build object
// directory, for the first descriptor that uses it.
func (r *Runner) Run(ctx context.Context, descs []*experiment.Descriptor) error {
	failed := make(map[*experiment.Descriptor]bool)
	r.failed = failed

	var errs []error

	for _, stage := range r.stages {
		targets := descs
		if stage == StageBuild {
			targets = representatives(descs)
		}

		for _, d := range targets {
			if err := ctx.Err(); err != nil {
				return errors.Join(append(errs, err)...)
			}

			if failed[d] {
				continue
			}

			err := r.RunStage(ctx, stage, d)
			if err == nil {
				continue
			}

			r.markFailed(failed, stage, d, descs)

			if !r.keepGoing {
				return err
			}

			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Failed tells whether a stage of the descriptor, or the build it shares,
// failed during the last Run.
func (r *Runner) Failed(d *experiment.Descriptor) bool {
	return r.failed[d]
}

func (r *Runner) markFailed(
	failed map[*experiment.Descriptor]bool,
	stage Stage,
	d *experiment.Descriptor,
	descs []*experiment.Descriptor,
) {
	if stage != StageBuild {
		failed[d] = true
		return
	}

	for _, other := range descs {
		if other.ObjDir == d.ObjDir {
			failed[other] = true
		}
	}
}

// representatives returns the first descriptor of every distinct build
// object directory, in order of first appearance.
func representatives(descs []*experiment.Descriptor) []*experiment.Descriptor {
	seen := make(map[string]bool)
	reps := []*experiment.Descriptor{}

	for _, d := range descs {
		if seen[d.ObjDir] {
			continue
		}

		seen[d.ObjDir] = true
		reps = append(reps, d)
	}

	return reps
}

// RunStage runs a single stage for a single test, unless its artifact
// exists and overwrite is off.
func (r *Runner) RunStage(
	ctx context.Context,
	stage Stage,
	d *experiment.Descriptor,
) error {
	run := &StageRun{
		Stage:      stage,
		Descriptor: d,
		Command:    stage.Command(r.rc, d),
		Artifact:   stage.Artifact(d),
	}

	if !r.overwrite && exists(run.Artifact) {
		run.Skipped = true
		r.invoke(HookPosStageSkip, run)

		return nil
	}

	run.Start = r.now()
	r.invoke(HookPosStageStart, run)

	err := r.executor.Execute(ctx, run.Command)

	run.End = r.now()

	if err != nil {
		run.Err = &StageError{Stage: stage, TestID: d.ID, Err: err}
		r.invoke(HookPosStageFail, run)

		return run.Err
	}

	r.invoke(HookPosStageEnd, run)

	return nil
}

func (r *Runner) invoke(pos *HookPos, run *StageRun) {
	r.InvokeHook(HookCtx{
		Domain: r,
		Pos:    pos,
		Item:   run,
	})
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
