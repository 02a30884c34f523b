// Package tracing records what the pipeline runner does into a data
// recorder.
package tracing

import (
	"errors"

	"github.com/sarchlab/sramchar/datarecording"
	"github.com/sarchlab/sramchar/pipeline"
)

// StageTableName is the table StageTracer writes to.
const StageTableName = "stage_runs"

// Stage run statuses.
const (
	StatusDone    = "done"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// StageEntry is one finished, skipped, or failed stage.
type StageEntry struct {
	RunID       string
	TestID      string
	Stage       string
	Command     string
	Artifact    string
	Status      string
	StartTime   float64
	DurationSec float64
	ExitCode    int
	Error       string
}

// StageTracer is a pipeline hook that records every stage outcome.
type StageTracer struct {
	runID    string
	recorder datarecording.DataRecorder
}

// NewStageTracer creates a StageTracer and its table.
func NewStageTracer(
	recorder datarecording.DataRecorder,
	runID string,
) *StageTracer {
	recorder.CreateTable(StageTableName, StageEntry{})

	return &StageTracer{
		runID:    runID,
		recorder: recorder,
	}
}

// Func records the stage when it ends, fails, or is skipped.
func (t *StageTracer) Func(ctx pipeline.HookCtx) {
	run, ok := ctx.Item.(*pipeline.StageRun)
	if !ok {
		return
	}

	entry := StageEntry{
		RunID:    t.runID,
		TestID:   run.Descriptor.ID,
		Stage:    run.Stage.String(),
		Command:  run.Command.String(),
		Artifact: run.Artifact,
	}

	switch ctx.Pos {
	case pipeline.HookPosStageSkip:
		entry.Status = StatusSkipped
	case pipeline.HookPosStageEnd:
		entry.Status = StatusDone
	case pipeline.HookPosStageFail:
		entry.Status = StatusFailed
		entry.ExitCode = -1
		entry.Error = run.Err.Error()

		var toolErr *pipeline.ExternalToolError
		if errors.As(run.Err, &toolErr) {
			entry.ExitCode = toolErr.ExitCode
		}
	default:
		return
	}

	if !run.Start.IsZero() {
		entry.StartTime = float64(run.Start.UnixNano()) / 1e9
		entry.DurationSec = run.End.Sub(run.Start).Seconds()
	}

	t.recorder.InsertData(StageTableName, entry)
}
