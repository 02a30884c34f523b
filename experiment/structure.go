package experiment

// Structure is the fixed description of the testbench around the macro.
type Structure struct {
	Inst        string   `yaml:"inst"`
	Clock       string   `yaml:"clock"`
	TopModule   string   `yaml:"top_module"`
	TBName      string   `yaml:"tb_name"`
	TBDut       string   `yaml:"tb_dut"`
	VSrcs       []string `yaml:"vsrcs"`
	VSrcsTB     []string `yaml:"vsrcs_tb"`
	InputPorts  []string `yaml:"input_ports"`
	OutputPorts []string `yaml:"output_ports"`
}

// DefaultStructure returns the sram_sim testbench.
func DefaultStructure() Structure {
	return Structure{
		Inst:        "/sram_sim/mem0",
		Clock:       "clock",
		TopModule:   "sram_sim",
		TBName:      "sram_sim_tb",
		TBDut:       "sram_sim_dut",
		VSrcs:       []string{"src/sram_sim.v"},
		VSrcsTB:     []string{"src/sram_sim_tb.sv"},
		InputPorts:  []string{"we", "wmask", "addr", "din"},
		OutputPorts: []string{"dout"},
	}
}

// Merge returns s with every non-empty field of o applied on top.
func (s Structure) Merge(o Structure) Structure {
	pick := func(a, b string) string {
		if b != "" {
			return b
		}

		return a
	}

	pickList := func(a, b []string) []string {
		if len(b) > 0 {
			return b
		}

		return a
	}

	return Structure{
		Inst:        pick(s.Inst, o.Inst),
		Clock:       pick(s.Clock, o.Clock),
		TopModule:   pick(s.TopModule, o.TopModule),
		TBName:      pick(s.TBName, o.TBName),
		TBDut:       pick(s.TBDut, o.TBDut),
		VSrcs:       pickList(s.VSrcs, o.VSrcs),
		VSrcsTB:     pickList(s.VSrcsTB, o.VSrcsTB),
		InputPorts:  pickList(s.InputPorts, o.InputPorts),
		OutputPorts: pickList(s.OutputPorts, o.OutputPorts),
	}
}

// SimSources returns the RTL sources followed by the testbench sources.
func (s Structure) SimSources() []string {
	srcs := make([]string, 0, len(s.VSrcs)+len(s.VSrcsTB))
	srcs = append(srcs, s.VSrcs...)
	srcs = append(srcs, s.VSrcsTB...)

	return srcs
}
