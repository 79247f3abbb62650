package main

import (
	"fmt"
	"os"

	"github.com/roach88/tine/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Command output already reported the error in the requested
		// format; keep stderr to the one-line summary.
		fmt.Fprintln(os.Stderr, "tine:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
