// Package config loads the description of a characterization run: which
// tests to generate, at which clock periods, for which technology.
package config

import (
	"bytes"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/sramchar/experiment"
	"github.com/sarchlab/sramchar/macro"
	"github.com/sarchlab/sramchar/stimulus"
)

// PatternCustom takes the stimulus verbatim from the plan.
const PatternCustom = "custom"

// TestSpec describes one test of a plan.
type TestSpec struct {
	Name    string `yaml:"name"`
	Macro   string `yaml:"macro"`
	Pattern string `yaml:"pattern"`

	// Iterations overrides the plan-wide stimulus length.
	Iterations int `yaml:"iterations,omitempty"`

	// Inputs holds [op, din, addr, wmask] rows for the custom pattern.
	Inputs [][]uint64 `yaml:"inputs,omitempty"`
}

// Plan is the complete description of a run.
type Plan struct {
	PDK            string               `yaml:"pdk"`
	ProjectRoot    string               `yaml:"project_root"`
	TestsRoot      string               `yaml:"tests_root,omitempty"`
	SRAMParameters string               `yaml:"sram_parameters,omitempty"`
	ClockPeriods   []float64            `yaml:"clock_periods"`
	Iterations     int                  `yaml:"iterations"`
	Seed           int64                `yaml:"seed"`
	Structure      experiment.Structure `yaml:"structure,omitempty"`
	Tests          []TestSpec           `yaml:"tests"`
}

// DefaultPlan returns the zero-read characterization of the 64x32 macro on
// sky130 at 10 ns.
func DefaultPlan() Plan {
	return Plan{
		PDK:          "sky130",
		ProjectRoot:  ".",
		ClockPeriods: []float64{10},
		Iterations:   50,
		Seed:         1,
		Tests: []TestSpec{
			{
				Name:    "sram64x32-zero",
				Macro:   "sram22_64x32m4w8",
				Pattern: "zero",
			},
		},
	}
}

// LoadPlan reads a plan file. Fields missing from the file keep their
// default values.
func LoadPlan(path string) (Plan, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, errors.Wrapf(err, "reading plan %s", path)
	}

	plan, err := ParsePlan(bytes.NewReader(content))
	if err != nil {
		return Plan{}, errors.Wrapf(err, "parsing plan %s", path)
	}

	return plan, nil
}

// ParsePlan decodes a plan document. Unknown fields are rejected.
func ParsePlan(r io.Reader) (Plan, error) {
	plan := DefaultPlan()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	err := dec.Decode(&plan)
	if err != nil && err != io.EOF {
		return Plan{}, err
	}

	return plan, plan.Validate()
}

// Validate checks the plan for values that cannot be expanded.
func (p Plan) Validate() error {
	if p.PDK == "" {
		return errors.New("plan has no pdk")
	}

	if len(p.ClockPeriods) == 0 {
		return errors.New("plan has no clock periods")
	}

	for _, period := range p.ClockPeriods {
		if period <= 0 {
			return errors.Errorf("clock period %v is not positive", period)
		}
	}

	if len(p.Tests) == 0 {
		return errors.New("plan has no tests")
	}

	for i, t := range p.Tests {
		if t.Name == "" {
			return errors.Errorf("test %d has no name", i)
		}

		if t.Macro == "" {
			return errors.Errorf("test %s has no macro", t.Name)
		}

		if t.Pattern == PatternCustom && len(t.Inputs) == 0 {
			return errors.Errorf("test %s uses the custom pattern without inputs",
				t.Name)
		}
	}

	return nil
}

// RunContext resolves the plan paths into an immutable run context.
func (p Plan) RunContext() (experiment.RunContext, error) {
	root, err := filepath.Abs(p.ProjectRoot)
	if err != nil {
		return experiment.RunContext{}, errors.Wrap(err, "resolving project root")
	}

	rc := experiment.NewRunContext(root, p.PDK)

	if p.TestsRoot != "" {
		rc.TestsRoot = p.TestsRoot
		if !filepath.IsAbs(rc.TestsRoot) {
			rc.TestsRoot = filepath.Join(root, rc.TestsRoot)
		}
	}

	if p.SRAMParameters != "" {
		rc.SRAMParameters = p.SRAMParameters
	}

	return rc, rc.Validate()
}

// ExpandTests derives the macro parameters and stimulus of every test. Random
// stimulus is seeded from the plan seed and the test position, so a plan
// always produces the same inputs.
func (p Plan) ExpandTests() ([]experiment.Test, error) {
	tests := make([]experiment.Test, 0, len(p.Tests))

	for i, ts := range p.Tests {
		c, err := macro.Parse(ts.Macro)
		if err != nil {
			return nil, errors.Wrapf(err, "test %s", ts.Name)
		}

		inputs, err := p.stimulus(i, ts, c)
		if err != nil {
			return nil, errors.Wrapf(err, "test %s", ts.Name)
		}

		tests = append(tests, experiment.Test{
			Name:   ts.Name,
			Macro:  c,
			Inputs: inputs,
		})
	}

	return tests, nil
}

func (p Plan) stimulus(
	index int,
	ts TestSpec,
	c macro.Config,
) (stimulus.Vector, error) {
	bounds := stimulus.BoundsFor(c)

	var (
		v   stimulus.Vector
		err error
	)

	if ts.Pattern == PatternCustom {
		v, err = customVector(ts.Inputs)
	} else {
		n := p.Iterations
		if ts.Iterations > 0 {
			n = ts.Iterations
		}

		rng := rand.New(rand.NewSource(p.Seed + int64(index)))
		v, err = stimulus.Generate(ts.Pattern, n, bounds, rng)
	}

	if err != nil {
		return nil, err
	}

	return v, v.Validate(bounds)
}

func customVector(rows [][]uint64) (stimulus.Vector, error) {
	v := make(stimulus.Vector, 0, len(rows))

	for i, row := range rows {
		if len(row) != 4 {
			return nil, errors.Errorf("input %d: expected [op, din, addr, wmask]", i)
		}

		if row[0] > 1 {
			return nil, errors.Errorf("input %d: unknown op %d", i, row[0])
		}

		v = append(v, stimulus.Tuple{
			Op:     stimulus.Op(row[0]),
			DataIn: row[1],
			Addr:   row[2],
			WMask:  row[3],
		})
	}

	return v, nil
}

// Expand resolves the run context and expands every test at every clock
// period.
func (p Plan) Expand() (experiment.RunContext, []*experiment.Descriptor, error) {
	rc, err := p.RunContext()
	if err != nil {
		return experiment.RunContext{}, nil, err
	}

	tests, err := p.ExpandTests()
	if err != nil {
		return experiment.RunContext{}, nil, err
	}

	structure := experiment.DefaultStructure().Merge(p.Structure)

	descs, err := experiment.ExpandAll(rc, tests, structure, p.ClockPeriods)
	if err != nil {
		return experiment.RunContext{}, nil, err
	}

	return rc, descs, nil
}

// Write encodes the plan as YAML.
func (p Plan) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(p); err != nil {
		return err
	}

	return enc.Close()
}
