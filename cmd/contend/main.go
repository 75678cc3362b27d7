package main

import (
	"context"
	"errors"
	"os"

	"github.com/wesleyorama2/contend/internal/cli"
)

// exitInterrupted is the conventional status for a run stopped by SIGINT.
const exitInterrupted = 130

// Main runs the command line with args and returns the exit status.
func Main(args []string) int {
	cmd := cli.NewRootCmd()
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			return exitInterrupted
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(Main(os.Args[1:]))
}
