// Package workspace lays out test directories on disk.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/sramchar/experiment"
)

// Materializer creates test directories and stimulus files under the tests
// root of a run.
type Materializer struct {
	rc experiment.RunContext
}

// NewMaterializer creates a Materializer for a run.
func NewMaterializer(rc experiment.RunContext) *Materializer {
	return &Materializer{rc: rc}
}

// Materialize creates the test directory and writes its stimulus file.
func (m *Materializer) Materialize(d *experiment.Descriptor) error {
	if err := m.EnsureDirectory(d); err != nil {
		return err
	}

	return m.WriteStimulusFile(d)
}

// EnsureDirectory creates the test directory and its parents. An existing
// directory is not an error.
func (m *Materializer) EnsureDirectory(d *experiment.Descriptor) error {
	if err := m.checkInside(d.Root); err != nil {
		return err
	}

	if err := os.MkdirAll(d.Root, 0755); err != nil {
		return fmt.Errorf("creating test directory: %w", err)
	}

	return nil
}

// WriteStimulusFile writes the test inputs, replacing any previous file.
func (m *Materializer) WriteStimulusFile(d *experiment.Descriptor) error {
	path := d.InputPath()
	if err := m.checkInside(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating stimulus file: %w", err)
	}

	_, err = d.Inputs.WriteTo(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("writing stimulus file %s: %w", path, err)
	}

	return f.Close()
}

func (m *Materializer) checkInside(path string) error {
	rel, err := filepath.Rel(m.rc.TestsRoot, path)
	if err != nil || rel == "." || rel == ".." ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s is outside the tests root %s",
			path, m.rc.TestsRoot)
	}

	return nil
}
