package report

import (
	"github.com/sarchlab/sramchar/datarecording"
	"github.com/sarchlab/sramchar/experiment"
)

// ResultTableName is the table Recorder writes to.
const ResultTableName = "power_results"

// ResultEntry is one row of the result dataset.
type ResultEntry struct {
	RunID        string
	TestID       string
	Design       string
	Macro        string
	ClockPeriod  float64
	Cycles       int
	Leakage      float64
	Internal     float64
	Switching    float64
	Total        float64
	Duration     float64
	AveragePower float64
	Energy       float64
}

// NewResultEntry flattens the result of a test into a dataset row.
func NewResultEntry(
	runID string,
	d *experiment.Descriptor,
	r Result,
) ResultEntry {
	return ResultEntry{
		RunID:        runID,
		TestID:       d.ID,
		Design:       d.Design,
		Macro:        d.Macro.Name,
		ClockPeriod:  d.ClockPeriod,
		Cycles:       len(d.Inputs),
		Leakage:      r.Leakage,
		Internal:     r.Internal,
		Switching:    r.Switching,
		Total:        r.Total,
		Duration:     r.Duration,
		AveragePower: r.AveragePower,
		Energy:       r.Energy,
	}
}

// Recorder appends parsed results to a data recorder.
type Recorder struct {
	runID    string
	recorder datarecording.DataRecorder
}

// NewRecorder creates a Recorder and its table.
func NewRecorder(recorder datarecording.DataRecorder, runID string) *Recorder {
	recorder.CreateTable(ResultTableName, ResultEntry{})

	return &Recorder{runID: runID, recorder: recorder}
}

// Record buffers the result of a test.
func (r *Recorder) Record(d *experiment.Descriptor, result Result) {
	r.recorder.InsertData(ResultTableName, NewResultEntry(r.runID, d, result))
}
