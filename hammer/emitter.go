// Package hammer renders the per-test configuration consumed by the Hammer
// VLSI flow.
package hammer

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/sramchar/experiment"
)

// ConfigFileName is the name of the generated config inside a test root.
const ConfigFileName = "config.yml"

// Fixed flow settings.
const (
	BuildSystem       = "make"
	PowerSpecType     = "cpf"
	PowerSpecMode     = "auto"
	PowerTool         = "hammer.power.joules"
	ClockUncertainty  = "100ps"
	PortDelay         = "1"
	AbstractionLevel  = "rtl"
	PlacementExtentUm = 100
)

var simOptions = []string{"-timescale=1ns/10ps", "-sverilog"}

var reportFormats = []string{"report", "plot_profile", "ppa"}

var sramParametersMeta = []string{"prependlocal", "transclude", "json2list"}

// Emitter writes config files for the tests of a run.
type Emitter struct {
	rc experiment.RunContext
}

// NewEmitter creates an Emitter for a run.
func NewEmitter(rc experiment.RunContext) *Emitter {
	return &Emitter{rc: rc}
}

// Emit renders the config of a test and writes it to the test root,
// replacing any previous file. It returns the path written.
func (e *Emitter) Emit(d *experiment.Descriptor) (string, error) {
	content, err := e.Render(d)
	if err != nil {
		return "", err
	}

	path := d.ConfigPath()

	err = os.WriteFile(path, content, 0644)
	if err != nil {
		return "", fmt.Errorf("writing hammer config: %w", err)
	}

	return path, nil
}

// Render returns the config document of a test.
func (e *Emitter) Render(d *experiment.Descriptor) ([]byte, error) {
	doc := &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{e.build(d)},
	}

	buf := new(bytes.Buffer)
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)

	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("rendering config for %s: %w", d.ID, err)
	}

	if err := enc.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (e *Emitter) build(d *experiment.Descriptor) *yaml.Node {
	defines := e.defines(d)

	return mapping(entries(
		kv("vlsi.core.build_system", str(BuildSystem)),
		kv("vlsi.inputs.power_spec_type", str(PowerSpecType)),
		kv("vlsi.inputs.power_spec_mode", str(PowerSpecMode)),
		kv("design.defines", defines),
		kv("vlsi.inputs.clocks", e.clocks(d)),
		kv("vlsi.inputs.delays", e.delays(d)),
		kv("synthesis.inputs", e.synthesis(d, defines)),
		kv("sim.inputs", e.sim(d, defines)),
		kv("vlsi.core.power_tool", str(PowerTool)),
		kv("power.inputs", e.power(d, defines)),
		kv("vlsi.inputs.placement_constraints", e.placement(d)),
		kv("vlsi.inputs.sram_parameters", quoted(e.rc.SRAMParameters)),
		kv("vlsi.inputs.sram_parameters_meta", strSeq(sramParametersMeta)),
	)...)
}

func (e *Emitter) defines(d *experiment.Descriptor) *yaml.Node {
	n := seq(str("CLOCK_PERIOD=" + experiment.FormatPeriod(d.ClockPeriod)))
	n.Anchor = "DEFINES"

	for _, def := range d.Defines {
		n.Content = append(n.Content, str(def.String()))
	}

	return n
}

func (e *Emitter) clocks(d *experiment.Descriptor) *yaml.Node {
	return flowSeq(flowMapping(entries(
		kv("name", quoted(d.Clock)),
		kv("period", quoted(experiment.FormatPeriod(d.ClockPeriod)+"ns")),
		kv("uncertainty", quoted(ClockUncertainty)),
	)...))
}

func (e *Emitter) delays(d *experiment.Descriptor) *yaml.Node {
	n := seq()

	add := func(ports []string, direction string) {
		for _, p := range ports {
			n.Content = append(n.Content, flowMapping(entries(
				kv("name", str(p)),
				kv("clock", str(d.Clock)),
				kv("delay", quoted(PortDelay)),
				kv("direction", str(direction)),
			)...))
		}
	}

	add(d.InputPorts, "input")
	add(d.OutputPorts, "output")

	return n
}

func (e *Emitter) synthesis(
	d *experiment.Descriptor,
	defines *yaml.Node,
) *yaml.Node {
	return mapping(entries(
		kv("top_module", str(d.TopModule)),
		kv("input_files", strSeq(d.VSrcs)),
		kv("defines", alias(defines)),
	)...)
}

func (e *Emitter) sim(d *experiment.Descriptor, defines *yaml.Node) *yaml.Node {
	return mapping(entries(
		kv("top_module", str(d.TopModule)),
		kv("tb_name", str(d.TBName)),
		kv("tb_dut", str(d.TBDut)),
		kv("options", strSeq(simOptions)),
		kv("options_meta", str("append")),
		kv("defines", alias(defines)),
		kv("defines_meta", str("append")),
		kv("level", str(AbstractionLevel)),
		kv("input_files", strSeq(d.SimSources())),
	)...)
}

func (e *Emitter) power(
	d *experiment.Descriptor,
	defines *yaml.Node,
) *yaml.Node {
	reportFormatsNode := seq()
	for _, f := range reportFormats {
		reportFormatsNode.Content = append(reportFormatsNode.Content, str(f))
	}

	report := mapping(entries(
		kv("waveform_path", str(d.WaveformPath())),
		kv("report_stem", str(d.ReportStem())),
		kv("toggle_signal", str(d.Clock)),
		kv("num_toggles", integer(1)),
		kv("levels", str("all")),
		kv("output_formats", reportFormatsNode),
	)...)

	return mapping(entries(
		kv("level", str(AbstractionLevel)),
		kv("top_module", str(d.TopModule)),
		kv("tb_name", str(d.TBName)),
		kv("tb_dut", str(d.TBDut)),
		kv("defines", alias(defines)),
		kv("input_files", strSeq(d.VSrcs)),
		kv("report_configs", seq(report)),
	)...)
}

func (e *Emitter) placement(d *experiment.Descriptor) *yaml.Node {
	margins := mapping(entries(
		kv("left", integer(0)),
		kv("right", integer(0)),
		kv("top", integer(0)),
		kv("bottom", integer(0)),
	)...)

	return seq(mapping(entries(
		kv("path", str(d.TopModule)),
		kv("type", str("toplevel")),
		kv("x", integer(0)),
		kv("y", integer(0)),
		kv("width", integer(PlacementExtentUm)),
		kv("height", integer(PlacementExtentUm)),
		kv("margins", margins),
	)...))
}
