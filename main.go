// Command sramchar runs SRAM energy characterization experiments.
package main

import "github.com/sarchlab/sramchar/cmd"

func main() {
	cmd.Execute()
}
