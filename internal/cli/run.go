// Package cli maps command-line invocations onto single-task execution
// attempts and translates outcomes into semantic exit codes.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/joho/godotenv"

	"taskmill/internal/conf"
	"taskmill/internal/core"
	"taskmill/internal/logging"
	"taskmill/internal/runner"
	"taskmill/internal/worker"
)

type Result struct {
	ExitCode int
	Outcome  *runner.Outcome
}

// Run is the high-level CLI entrypoint. It accepts the argument slice
// (excluding argv[0]) and writes the outcome record as JSON to out.
func Run(ctx context.Context, args []string, out io.Writer) (Result, error) {
	inv, err := ParseInvocation(args)
	if err != nil {
		return Result{ExitCode: ExitCode(err)}, err
	}
	return Execute(ctx, inv, out)
}

// Execute resolves configuration, reconstructs the task from the
// registry, and runs it under a worker.
func Execute(ctx context.Context, inv Invocation, out io.Writer) (Result, error) {
	// Best effort; a missing .env file is not an error.
	_ = godotenv.Load()

	cfg := conf.Default()
	if inv.ConfigPath != "" {
		loaded, err := conf.Load(inv.ConfigPath)
		if err != nil {
			return Result{ExitCode: ExitConfigError}, fmt.Errorf("loading config %q: %w", inv.ConfigPath, err)
		}
		cfg = loaded
	}
	if inv.TimeoutSet {
		cfg.Worker.Timeout = inv.Timeout
	}
	if inv.CheckDepsSet {
		cfg.Worker.CheckUnfulfilledDeps = inv.CheckDeps
	}
	if inv.CheckCompleteSet {
		cfg.Worker.CheckCompleteOnRun = inv.CheckComplete
	}

	logger := logging.New()
	defer logger.Sync()

	task, err := core.NewTask(inv.Family, []byte(inv.ParamsJSON))
	if err != nil {
		return Result{ExitCode: ExitInvalidInvocation}, err
	}

	w := worker.New(cfg.Worker, logger)
	outcome, err := w.RunTask(ctx, task)
	if err != nil {
		return Result{ExitCode: ExitInternalError}, err
	}

	if out != nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome); err != nil {
			return Result{ExitCode: ExitInternalError, Outcome: &outcome}, err
		}
	}

	code := ExitSuccess
	if outcome.Status != runner.StatusDone {
		code = ExitTaskFailed
	}
	return Result{ExitCode: code, Outcome: &outcome}, nil
}
