package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/sramchar/datarecording"
	"github.com/sarchlab/sramchar/experiment"
	"github.com/sarchlab/sramchar/report"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse the power reports of the tests in the plan.",
	Long: "`parse` reads the hierarchical power report and the power " +
		"profile of every test that has already run, prints them, and " +
		"optionally records them.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		_, descs, err := expandPlan(cmd)
		fatalOnErr(err)

		var results *report.Recorder

		path, _ := cmd.Flags().GetString("record")
		if path != "" {
			recorder := datarecording.New(path)
			results = report.NewRecorder(recorder, xid.New().String())
			defer func() { fatalOnErr(recorder.Close()) }()
		}

		failed := collect(descs, results,
			func(*experiment.Descriptor) bool { return false })
		if failed {
			atexit.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().String("record", "",
		"Record the parsed results into this SQLite database")
}

func printResults(descs []*experiment.Descriptor, results []report.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "TEST\tPERIOD(ns)\tCYCLES\tLEAKAGE\tINTERNAL\tSWITCHING"+
		"\tTOTAL\tDURATION(ns)\tAVG POWER\tENERGY")

	for i, r := range results {
		d := descs[i]
		fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%g\t%g\t%g\t%g\t%g\t%g\n",
			d.ID, experiment.FormatPeriod(d.ClockPeriod), len(d.Inputs),
			r.Leakage, r.Internal, r.Switching, r.Total,
			r.Duration, r.AveragePower, r.Energy)
	}

	w.Flush()
}
