// Package cmd provides the command-line interface of sramchar.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/sramchar/config"
	"github.com/sarchlab/sramchar/experiment"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sramchar",
	Short: "sramchar characterizes the energy of SRAM macros.",
	Long: `sramchar generates SRAM characterization tests, drives the ` +
		`Hammer flow through build, simulation, and power analysis, and ` +
		`collects the power reports into a small dataset.`,
	SilenceUsage: true,
}

func init() {
	addPlanFlags(rootCmd)
}

func addPlanFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("plan", "", "Experiment plan file (YAML)")
	flags.StringSlice("env", nil, "Env files to load, defaults to .env if present")
	flags.String("pdk", "", "Process design kit, overrides "+config.EnvPDK)
	flags.String("project-root", "",
		"Project root holding the Makefile, overrides "+config.EnvProjectRoot)
	flags.String("tests-root", "",
		"Directory for generated tests, overrides "+config.EnvTestsRoot)
	flags.String("sram-parameters", "",
		"SRAM parameter file for Hammer, overrides "+config.EnvSRAMParameters)
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadPlan builds the plan of a command. Flags override the environment,
// which overrides the plan file, which overrides the defaults.
func loadPlan(cmd *cobra.Command) (config.Plan, error) {
	envFiles, _ := cmd.Flags().GetStringSlice("env")
	if err := config.LoadEnv(envFiles...); err != nil {
		return config.Plan{}, err
	}

	plan := config.DefaultPlan()

	path, _ := cmd.Flags().GetString("plan")
	if path != "" {
		var err error

		plan, err = config.LoadPlan(path)
		if err != nil {
			return config.Plan{}, err
		}
	}

	plan.ApplyEnv()
	applyFlags(cmd, &plan)

	return plan, plan.Validate()
}

func applyFlags(cmd *cobra.Command, plan *config.Plan) {
	override := func(dst *string, name string) {
		if !cmd.Flags().Changed(name) {
			return
		}

		*dst, _ = cmd.Flags().GetString(name)
	}

	override(&plan.PDK, "pdk")
	override(&plan.ProjectRoot, "project-root")
	override(&plan.TestsRoot, "tests-root")
	override(&plan.SRAMParameters, "sram-parameters")
}

// expandPlan loads the plan and expands it into descriptors.
func expandPlan(
	cmd *cobra.Command,
) (experiment.RunContext, []*experiment.Descriptor, error) {
	plan, err := loadPlan(cmd)
	if err != nil {
		return experiment.RunContext{}, nil, err
	}

	return plan.Expand()
}

func fatalOnErr(err error) {
	if err != nil {
		atexit.Fatalf("Error: %v", err)
	}
}
