// Package experiment expands compact test definitions into fully addressed
// test descriptors.
package experiment

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/sarchlab/sramchar/macro"
	"github.com/sarchlab/sramchar/stimulus"
)

// Test is a base test definition before a clock period is chosen.
type Test struct {
	Name   string
	Macro  macro.Config
	Inputs stimulus.Vector
}

// Descriptor is a single test at a single clock period, with every path and
// build argument resolved.
type Descriptor struct {
	Structure

	// ID is unique within a run and names the test directory.
	ID       string
	BaseName string
	Design   string

	ClockPeriod float64
	Macro       macro.Config
	Inputs      stimulus.Vector
	Defines     []macro.Define

	Root string

	// ObjDir is relative to the project root and is shared by every test of
	// the same design.
	ObjDir     string
	ObjDirPath string

	MakeArgs []string
}

// Expand resolves a test at the given clock period. It does not touch the
// filesystem.
func Expand(
	rc RunContext,
	test Test,
	structure Structure,
	clockPeriod float64,
) (*Descriptor, error) {
	if test.Name == "" {
		return nil, errors.New("test name is empty")
	}

	if clockPeriod <= 0 {
		return nil, fmt.Errorf("test %s: clock period must be positive, got %v",
			test.Name, clockPeriod)
	}

	design, _, _ := strings.Cut(test.Name, "-")
	id := fmt.Sprintf("%s-%sns", test.Name, FormatPeriod(clockPeriod))
	root := filepath.Join(rc.TestsRoot, id)
	objDir := rc.BuildDir(design)

	d := &Descriptor{
		Structure:   structure.clone(),
		ID:          id,
		BaseName:    test.Name,
		Design:      design,
		ClockPeriod: clockPeriod,
		Macro:       test.Macro,
		Inputs:      slices.Clone(test.Inputs),
		Root:        root,
		ObjDir:      objDir,
		ObjDirPath:  filepath.Join(rc.ProjectRoot, objDir),
	}

	d.Defines = append(test.Macro.Defines(),
		macro.Define{Key: "TESTROOT", Value: root})
	d.MakeArgs = []string{
		"design=" + design,
		"OBJ_DIR=" + objDir,
		"extra=" + d.ConfigPath(),
	}

	return d, nil
}

// ExpandAll expands every test at every clock period, test-major. IDs must
// be unique.
func ExpandAll(
	rc RunContext,
	tests []Test,
	structure Structure,
	clockPeriods []float64,
) ([]*Descriptor, error) {
	descs := make([]*Descriptor, 0, len(tests)*len(clockPeriods))
	seen := make(map[string]bool)

	for _, t := range tests {
		for _, p := range clockPeriods {
			d, err := Expand(rc, t, structure, p)
			if err != nil {
				return nil, err
			}

			if seen[d.ID] {
				return nil, fmt.Errorf("duplicate test id %s", d.ID)
			}

			seen[d.ID] = true
			descs = append(descs, d)
		}
	}

	return descs, nil
}

// FormatPeriod prints a clock period in its shortest decimal form.
func FormatPeriod(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// InputPath is the stimulus file read by the testbench.
func (d *Descriptor) InputPath() string {
	return filepath.Join(d.Root, "input.txt")
}

// ConfigPath is the generated toolchain config.
func (d *Descriptor) ConfigPath() string {
	return filepath.Join(d.Root, "config.yml")
}

// WaveformPath is the waveform dumped by simulation.
func (d *Descriptor) WaveformPath() string {
	return filepath.Join(d.Root, "output.fsdb")
}

// ReportStem is the prefix of all power reports.
func (d *Descriptor) ReportStem() string {
	return filepath.Join(d.Root, "power")
}

// HierPowerReportPath is the hierarchical power report.
func (d *Descriptor) HierPowerReportPath() string {
	return d.ReportStem() + ".hier.power.rpt"
}

// PowerProfilePath is the power-over-time data behind the profile plot.
func (d *Descriptor) PowerProfilePath() string {
	return d.ReportStem() + ".profile.png.data"
}

// PowerReportPath is the flat power report.
func (d *Descriptor) PowerReportPath() string {
	return d.ReportStem() + ".power.rpt"
}

func (s Structure) clone() Structure {
	c := s
	c.VSrcs = slices.Clone(s.VSrcs)
	c.VSrcsTB = slices.Clone(s.VSrcsTB)
	c.InputPorts = slices.Clone(s.InputPorts)
	c.OutputPorts = slices.Clone(s.OutputPorts)

	return c
}
