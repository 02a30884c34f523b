package datarecording

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

// ExecInfo is one property of a program execution.
type ExecInfo struct {
	RunID    string
	Property string
	Value    string
}

// ExecTableName is the table ExecRecorder writes to.
const ExecTableName = "exec_info"

const timeLayout = "2006-01-02 15:04:05.000000000"

// ExecRecorder records how and where a run was executed.
type ExecRecorder struct {
	runID    string
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates an ExecRecorder writing to the recorder under the
// given run ID.
func NewExecRecorder(recorder DataRecorder, runID string) *ExecRecorder {
	e := &ExecRecorder{
		runID:    runID,
		recorder: recorder,
	}

	recorder.CreateTable(ExecTableName, ExecInfo{})

	return e
}

// Start logs the start time, command line, working directory, and host.
func (e *ExecRecorder) Start() {
	e.add("Start Time", time.Now().Format(timeLayout))
	e.add("Command", strings.Join(os.Args, " "))

	if cwd, err := os.Getwd(); err == nil {
		e.add("Working Directory", cwd)
	}

	e.addHost()
}

func (e *ExecRecorder) addHost() {
	if info, err := host.Info(); err == nil {
		e.add("Host", info.Hostname)
		e.add("Platform", info.Platform+" "+info.PlatformVersion)
		e.add("Kernel", info.KernelVersion)
	}

	if n, err := cpu.Counts(true); err == nil {
		e.add("Logical CPUs", strconv.Itoa(n))
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		e.add("Memory Bytes", strconv.FormatUint(vm.Total, 10))
	}
}

// Set records an extra property of the run.
func (e *ExecRecorder) Set(property, value string) {
	e.add(property, value)
}

// End writes the collected entries along with the end time.
func (e *ExecRecorder) End() {
	e.add("End Time", time.Now().Format(timeLayout))

	for _, entry := range e.entries {
		e.recorder.InsertData(ExecTableName, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}

func (e *ExecRecorder) add(property, value string) {
	e.entries = append(e.entries, ExecInfo{
		RunID:    e.runID,
		Property: property,
		Value:    value,
	})
}
