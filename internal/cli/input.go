package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"
)

const (
	ExitSuccess           = 0
	ExitTaskFailed        = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

// Invocation is the canonicalized description of one CLI run request.
type Invocation struct {
	ConfigPath string
	Family     string
	ParamsJSON string

	Timeout    time.Duration
	TimeoutSet bool

	CheckDeps        bool
	CheckDepsSet     bool
	CheckComplete    bool
	CheckCompleteSet bool
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// ParseInvocation parses CLI flags into an Invocation. Flags that were
// not supplied leave the corresponding config defaults in effect; the
// *Set fields record which ones override configuration.
func ParseInvocation(args []string) (Invocation, error) {
	fs := flag.NewFlagSet("taskmill", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // parsing errors are returned, not printed

	var inv Invocation
	fs.StringVar(&inv.ConfigPath, "config", "", "Configuration file (yaml). Optional.")
	fs.StringVar(&inv.Family, "task", "", "Registered task family to run. Required.")
	fs.StringVar(&inv.ParamsJSON, "params", "{}", "Task parameters as a JSON object.")
	fs.DurationVar(&inv.Timeout, "timeout", 0, "Default task timeout (0 disables).")
	fs.BoolVar(&inv.CheckDeps, "check-deps", true, "Verify dependencies before running.")
	fs.BoolVar(&inv.CheckComplete, "check-complete", false, "Re-check completeness after a successful run.")

	if err := fs.Parse(args); err != nil {
		return Invocation{}, invalidInvocationf("%v", err)
	}
	if fs.NArg() != 0 {
		return Invocation{}, invalidInvocationf("unexpected positional arguments: %q", fs.Args())
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "timeout":
			inv.TimeoutSet = true
		case "check-deps":
			inv.CheckDepsSet = true
		case "check-complete":
			inv.CheckCompleteSet = true
		}
	})

	if inv.Family == "" {
		return Invocation{}, invalidInvocationf("--task is required")
	}
	if !json.Valid([]byte(inv.ParamsJSON)) {
		return Invocation{}, invalidInvocationf("--params is not valid JSON: %q", inv.ParamsJSON)
	}

	return inv, nil
}

// ExitCode extracts the semantic exit code from an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if invErr, ok := err.(*InvocationError); ok {
		return invErr.ExitCode
	}
	return ExitInternalError
}
