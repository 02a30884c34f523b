package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/sramchar/macro"
)

var macroCmd = &cobra.Command{
	Use:   "macro <name>...",
	Short: "Print the parameters derived from SRAM macro names.",
	Long: "`macro sram22_64x32m4w8` prints the word count, widths, and " +
		"preprocessor defines derived from the macro name.",
	Args: cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		configs := make([]macro.Config, 0, len(args))

		for _, name := range args {
			c, err := macro.Parse(name)
			fatalOnErr(err)

			configs = append(configs, c)
		}

		printMacros(configs)
	},
}

func init() {
	rootCmd.AddCommand(macroCmd)
}

func printMacros(configs []macro.Config) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "MACRO\tWORDS\tDATA\tMUX\tWRITE SIZE\tADDR\tWMASK\tDEFINES")

	for _, c := range configs {
		defines := []string{}
		for _, d := range c.Defines() {
			defines = append(defines, d.String())
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			c.Name, c.Words, c.DataWidth, c.Mux, c.WriteSize,
			c.AddrWidth, c.WMaskWidth, strings.Join(defines, " "))
	}

	w.Flush()
}
