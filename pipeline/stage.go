package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sarchlab/sramchar/experiment"
)

// Stage is one step of the characterization flow.
type Stage int

// The stages, in the order they run.
const (
	StageBuild Stage = iota
	StageSimulate
	StagePowerSynthesize
	StagePowerReport
)

// AllStages lists every stage in execution order.
var AllStages = []Stage{
	StageBuild,
	StageSimulate,
	StagePowerSynthesize,
	StagePowerReport,
}

var stageNames = map[Stage]string{
	StageBuild:           "build",
	StageSimulate:        "simulate",
	StagePowerSynthesize: "power-synthesize",
	StagePowerReport:     "power-report",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}

	return fmt.Sprintf("stage(%d)", int(s))
}

// ParseStage converts a stage name back to a Stage.
func ParseStage(name string) (Stage, error) {
	for s, n := range stageNames {
		if n == name {
			return s, nil
		}
	}

	return 0, fmt.Errorf("unknown stage %q", name)
}

// ParseStages converts a comma separated list of stage names. The result is
// in execution order regardless of the order given.
func ParseStages(list string) ([]Stage, error) {
	selected := make(map[Stage]bool)

	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		s, err := ParseStage(name)
		if err != nil {
			return nil, err
		}

		selected[s] = true
	}

	stages := []Stage{}
	for _, s := range AllStages {
		if selected[s] {
			stages = append(stages, s)
		}
	}

	return stages, nil
}

// Target is the make goal of a stage, with its fixed flags.
func (s Stage) Target() []string {
	switch s {
	case StageBuild:
		return []string{"build", "-B"}
	case StageSimulate:
		return []string{"redo-sim-rtl", "-B"}
	case StagePowerSynthesize:
		return []string{"power-rtl", "-B"}
	case StagePowerReport:
		return []string{
			"redo-power-rtl", "args=--only_step report_power", "-B",
		}
	}

	panic(fmt.Sprintf("no target for %s", s))
}

// Artifact is the file whose existence means the stage already ran for the
// test.
func (s Stage) Artifact(d *experiment.Descriptor) string {
	switch s {
	case StageBuild:
		return filepath.Join(d.ObjDirPath, "hammer.d")
	case StageSimulate:
		return d.WaveformPath()
	case StagePowerSynthesize:
		return filepath.Join(d.ObjDirPath,
			"power-rtl-rundir", "pre_report_power")
	case StagePowerReport:
		return d.HierPowerReportPath()
	}

	panic(fmt.Sprintf("no artifact for %s", s))
}

// Command builds the invocation of the stage for a test.
func (s Stage) Command(
	rc experiment.RunContext,
	d *experiment.Descriptor,
) Command {
	args := append([]string{}, s.Target()...)
	args = append(args, d.MakeArgs...)

	return Command{
		Name: "make",
		Args: args,
		Dir:  rc.ProjectRoot,
	}
}
