package experiment

import (
	"errors"
	"fmt"
	"path/filepath"
)

// DefaultSRAMParameters is the SRAM database shipped with the sky130
// technology plugin, relative to the generated config file.
const DefaultSRAMParameters = "../../../../../hammer/technology/sky130/sram-cache.json"

// RunContext carries the paths and technology choices that are fixed for the
// duration of a run. It is passed by value and never modified.
type RunContext struct {
	// ProjectRoot is where the toolchain Makefile lives. External commands
	// run from here and build object directories are relative to it.
	ProjectRoot string

	// TestsRoot holds one directory per test.
	TestsRoot string

	// PDK selects the target technology.
	PDK string

	// SRAMParameters is the SRAM database referenced by generated configs.
	SRAMParameters string
}

// NewRunContext creates a RunContext with the default tests root and SRAM
// database for the given project root and PDK.
func NewRunContext(projectRoot, pdk string) RunContext {
	return RunContext{
		ProjectRoot:    projectRoot,
		TestsRoot:      filepath.Join(projectRoot, "experiments", "tests-"+pdk),
		PDK:            pdk,
		SRAMParameters: DefaultSRAMParameters,
	}
}

// Validate checks that the context can address files unambiguously.
func (rc RunContext) Validate() error {
	if rc.PDK == "" {
		return errors.New("run context: PDK is empty")
	}

	if !filepath.IsAbs(rc.ProjectRoot) {
		return fmt.Errorf("run context: project root %q is not absolute",
			rc.ProjectRoot)
	}

	if !filepath.IsAbs(rc.TestsRoot) {
		return fmt.Errorf("run context: tests root %q is not absolute",
			rc.TestsRoot)
	}

	return nil
}

// BuildDir returns the object directory of a design, relative to the
// project root.
func (rc RunContext) BuildDir(design string) string {
	return fmt.Sprintf("build-%s-cm/%s", rc.PDK, design)
}
