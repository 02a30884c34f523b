package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/sramchar/experiment"
	"github.com/sarchlab/sramchar/hammer"
	"github.com/sarchlab/sramchar/workspace"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create the directory, stimulus, and Hammer config of every test.",
	Long: "`generate` expands the plan into tests and writes input.txt and " +
		"config.yml into one directory per test, without running any tool.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		rc, descs, err := expandPlan(cmd)
		fatalOnErr(err)

		fatalOnErr(generate(rc, descs))
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

// generate materializes every test and emits its config.
func generate(rc experiment.RunContext, descs []*experiment.Descriptor) error {
	materializer := workspace.NewMaterializer(rc)
	emitter := hammer.NewEmitter(rc)

	for _, d := range descs {
		if err := materializer.Materialize(d); err != nil {
			return err
		}

		path, err := emitter.Emit(d)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Generated %s\n", path)
	}

	return nil
}
