// Command tickbot drives the tickbot game core from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tickbot/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
