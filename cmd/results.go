package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/sramchar/datarecording"
	"github.com/sarchlab/sramchar/report"
)

var resultsCmd = &cobra.Command{
	Use:   "results <db>",
	Short: "Print the power results recorded in a database.",
	Long: "`results run.sqlite3` prints the power_results table, " +
		"optionally filtered by run or test.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		params := datarecording.QueryParams{OrderBy: "TestID, RunID"}

		runID, _ := cmd.Flags().GetString("run-id")
		testID, _ := cmd.Flags().GetString("test")
		params.Where, params.Args = resultFilter(runID, testID)
		params.Limit, _ = cmd.Flags().GetInt("limit")

		entries, total, err := queryResults(
			cmd.Context(), datarecording.FileName(args[0]), params)
		fatalOnErr(err)

		printEntries(entries)
		fmt.Fprintf(os.Stderr, "%d of %d results\n", len(entries), total)
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.Flags().String("run-id", "", "Only show results of this run")
	resultsCmd.Flags().String("test", "", "Only show results of this test")
	resultsCmd.Flags().Int("limit", 0, "Maximum number of results, 0 for all")
}

func resultFilter(runID, testID string) (string, []any) {
	switch {
	case runID != "" && testID != "":
		return "RunID = ? AND TestID = ?", []any{runID, testID}
	case runID != "":
		return "RunID = ?", []any{runID}
	case testID != "":
		return "TestID = ?", []any{testID}
	}

	return "", nil
}

func queryResults(
	ctx context.Context,
	path string,
	params datarecording.QueryParams,
) ([]*report.ResultEntry, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	reader, err := datarecording.NewReader(path)
	if err != nil {
		return nil, 0, err
	}
	defer reader.Close()

	reader.MapTable(report.ResultTableName, report.ResultEntry{})

	rows, total, err := reader.Query(ctx, report.ResultTableName, params)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]*report.ResultEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.(*report.ResultEntry))
	}

	return entries, total, nil
}

func printEntries(entries []*report.ResultEntry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "RUN\tTEST\tMACRO\tPERIOD(ns)\tCYCLES\tTOTAL"+
		"\tAVG POWER\tENERGY")

	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\t%g\t%g\t%g\n",
			e.RunID, e.TestID, e.Macro, e.ClockPeriod, e.Cycles,
			e.Total, e.AveragePower, e.Energy)
	}

	w.Flush()
}
