package main

import (
	"fmt"
	"os"

	"github.com/roach88/gavel/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, "Error:", msg)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
