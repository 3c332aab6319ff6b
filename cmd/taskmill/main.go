package main

import (
	"context"
	"fmt"
	"os"

	"taskmill/internal/cli"
	"taskmill/internal/runner"
)

// main dispatches between the two process roles: a spawned task process
// jumps straight into the runner before any CLI parsing; everything else
// is a worker invocation.
func main() {
	if runner.IsChildProcess() {
		os.Exit(runner.ChildMain())
	}

	result, err := cli.Run(context.Background(), os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(result.ExitCode)
}
