package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/sramchar/datarecording"
	"github.com/sarchlab/sramchar/experiment"
	"github.com/sarchlab/sramchar/monitoring"
	"github.com/sarchlab/sramchar/pipeline"
	"github.com/sarchlab/sramchar/report"
	"github.com/sarchlab/sramchar/tracing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate the tests and run them through the Hammer flow.",
	Long: "`run` generates every test of the plan, runs the build, " +
		"simulate, power-synthesize, and power-report stages, and prints " +
		"the parsed power of every test.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		opts, err := runOptionsFromFlags(cmd)
		fatalOnErr(err)

		rc, descs, err := expandPlan(cmd)
		fatalOnErr(err)

		fatalOnErr(generate(rc, descs))

		failed := execute(cmd.Context(), rc, descs, opts)
		if failed {
			atexit.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	var stageNames []string
	for _, s := range pipeline.AllStages {
		stageNames = append(stageNames, s.String())
	}

	flags := cmd.Flags()
	flags.Bool("overwrite", false, "Rerun stages whose artifact already exists")
	flags.Bool("verbose", false, "Stream the output of the external tools")
	flags.Bool("quiet", false, "Do not log stage commands")
	flags.String("stages", strings.Join(stageNames, ","),
		"Comma separated stages to run")
	flags.Bool("keep-going", false,
		"Continue with the other tests when a test fails")
	flags.String("record", "", "Record the run into this SQLite database")
	flags.Bool("monitor", false, "Serve the run progress over HTTP")
	flags.Int("monitor-port", 0, "Port of the monitoring server, random if 0")
	flags.Bool("open-monitor", false, "Open the monitoring page in a browser")
}

type runOptions struct {
	stages      []pipeline.Stage
	overwrite   bool
	verbose     bool
	quiet       bool
	keepGoing   bool
	record      string
	monitor     bool
	monitorPort int
	openMonitor bool
}

func runOptionsFromFlags(cmd *cobra.Command) (runOptions, error) {
	flags := cmd.Flags()
	opts := runOptions{}

	stages, _ := flags.GetString("stages")

	var err error

	opts.stages, err = pipeline.ParseStages(stages)
	if err != nil {
		return opts, err
	}

	if len(opts.stages) == 0 {
		return opts, fmt.Errorf("no stage selected")
	}

	opts.overwrite, _ = flags.GetBool("overwrite")
	opts.verbose, _ = flags.GetBool("verbose")
	opts.quiet, _ = flags.GetBool("quiet")
	opts.keepGoing, _ = flags.GetBool("keep-going")
	opts.record, _ = flags.GetString("record")
	opts.monitor, _ = flags.GetBool("monitor")
	opts.monitorPort, _ = flags.GetInt("monitor-port")
	opts.openMonitor, _ = flags.GetBool("open-monitor")

	if opts.openMonitor {
		opts.monitor = true
	}

	return opts, nil
}

// execute runs the pipeline and reports the results. It returns true if any
// test failed.
func execute(
	ctx context.Context,
	rc experiment.RunContext,
	descs []*experiment.Descriptor,
	opts runOptions,
) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	runID := xid.New().String()

	builder := pipeline.MakeRunnerBuilder().
		WithRunContext(rc).
		WithExecutor(pipeline.NewProcessExecutor(opts.verbose)).
		WithStages(opts.stages...).
		WithOverwrite(opts.overwrite).
		WithKeepGoing(opts.keepGoing)

	if !opts.quiet {
		logger := log.New(os.Stderr, "", log.LstdFlags)
		builder = builder.WithHook(pipeline.NewStageLogger(logger))
	}

	var (
		recorder     datarecording.DataRecorder
		execRecorder *datarecording.ExecRecorder
		results      *report.Recorder
	)

	if opts.record != "" {
		recorder = datarecording.New(opts.record)
		execRecorder = datarecording.NewExecRecorder(recorder, runID)
		execRecorder.Start()
		execRecorder.Set("pdk", rc.PDK)
		execRecorder.Set("project_root", rc.ProjectRoot)
		execRecorder.Set("tests", fmt.Sprint(len(descs)))

		builder = builder.WithHook(tracing.NewStageTracer(recorder, runID))
		results = report.NewRecorder(recorder, runID)

		fmt.Fprintf(os.Stderr, "Recording run %s into %s\n",
			runID, datarecording.FileName(opts.record))
	}

	if opts.monitor {
		startMonitor(opts, descs, &builder)
	}

	runner := builder.Build()
	runErr := runner.Run(ctx, descs)

	failed := runErr != nil
	if failed {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
	}

	if !failed || opts.keepGoing {
		if slices.Contains(opts.stages, pipeline.StagePowerReport) {
			failed = collect(descs, results, runner.Failed) || failed
		}
	}

	if execRecorder != nil {
		status := "done"
		if failed {
			status = "failed"
		}

		execRecorder.Set("status", status)
		execRecorder.End()
		fatalOnErr(recorder.Close())
	}

	return failed
}

func startMonitor(
	opts runOptions,
	descs []*experiment.Descriptor,
	builder *pipeline.RunnerBuilder,
) {
	monitor := monitoring.NewMonitor().WithPortNumber(opts.monitorPort)
	monitor.RegisterBatch(opts.stages, descs)

	url, err := monitor.StartServer()
	fatalOnErr(err)

	if opts.openMonitor {
		if err := monitoring.OpenBrowser(url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}

	*builder = builder.WithHook(monitor)
}

// collect parses the reports of the tests that did not fail and prints
// them. It returns true if a report could not be parsed.
func collect(
	descs []*experiment.Descriptor,
	results *report.Recorder,
	skip func(*experiment.Descriptor) bool,
) bool {
	failed := false
	parsed := make([]report.Result, 0, len(descs))
	parsedDescs := make([]*experiment.Descriptor, 0, len(descs))

	for _, d := range descs {
		if skip(d) {
			continue
		}

		r, err := report.ParseDescriptor(d)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true

			continue
		}

		if results != nil {
			results.Record(d, r)
		}

		parsed = append(parsed, r)
		parsedDescs = append(parsedDescs, d)
	}

	printResults(parsedDescs, parsed)

	return failed
}
