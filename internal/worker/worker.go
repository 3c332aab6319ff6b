// Package worker owns the parent side of one task execution attempt: it
// spawns the isolated task process, races its outcome record against the
// resolved timeout, forces termination when the budget is exceeded, and
// guarantees that every attempt yields exactly one observable outcome,
// self-reported or synthesized.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskmill/internal/conf"
	"taskmill/internal/core"
	"taskmill/internal/runner"
)

// outcomeGrace is how long the worker lets an in-flight outcome record
// drain after the task process has exited.
const outcomeGrace = 100 * time.Millisecond

type Worker struct {
	// ID identifies this worker in outcome records and logs.
	ID string

	cfg    conf.WorkerConfig
	logger *zap.Logger
}

func New(cfg conf.WorkerConfig, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		ID:     uuid.NewString(),
		cfg:    cfg,
		logger: logger,
	}
}

// RunTask executes one already-selected task in an isolated OS process
// and returns its outcome record.
//
// Construction-time integrity errors are returned as errors before any
// process is spawned; they never appear on the result channel. Every
// spawned attempt produces exactly one outcome: the child's own record
// when one arrives, or a synthesized FAILED record after forced
// termination or an anomalous exit without a record.
func (w *Worker) RunTask(ctx context.Context, task core.Task) (runner.Outcome, error) {
	if task == nil {
		return runner.Outcome{}, &core.TaskError{Kind: core.KindConstruction, Msg: "nil task"}
	}
	id, err := task.ID()
	if err != nil {
		return runner.Outcome{}, err
	}

	opts := runner.Options{
		CheckUnfulfilledDeps: w.cfg.CheckUnfulfilledDeps,
		CheckCompleteOnRun:   w.cfg.CheckCompleteOnRun,
		WorkerTimeout:        w.cfg.Timeout,
	}
	spec, err := runner.SpecFor(task, w.ID, opts)
	if err != nil {
		return runner.Outcome{}, err
	}

	timeout := core.EffectiveTimeout(task, w.cfg.Timeout)

	h, err := runner.Spawn(spec, w.logger)
	if err != nil {
		return runner.Outcome{}, err
	}
	if w.cfg.TerminateWait > 0 {
		h.TerminateWait = w.cfg.TerminateWait
	}

	w.logger.Info("spawned task process",
		zap.String("task_id", id.String()),
		zap.String("worker_id", w.ID),
		zap.Int("pid", h.Pid()),
		zap.Duration("timeout", timeout))

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timeoutCh = t.C
	}

	select {
	case out := <-h.Outcome():
		_ = h.Wait()
		return out, nil

	case <-timeoutCh:
		return w.terminateAndReport(h, id, fmt.Sprintf(
			"Worker %s terminated the task after it exceeded its %s timeout.", w.ID, timeout))

	case <-ctx.Done():
		return w.terminateAndReport(h, id, fmt.Sprintf(
			"Worker %s terminated the task: %v.", w.ID, ctx.Err()))

	case <-h.Done():
		return w.reportExit(h, id)
	}
}

// terminateAndReport forces termination and resolves the attempt's single
// outcome. A record the child already enqueued wins over a synthesized
// one, so a task terminated mid-write is never double-reported.
func (w *Worker) terminateAndReport(h *runner.Handle, id core.TaskID, explanation string) (runner.Outcome, error) {
	if err := h.Terminate(); err != nil {
		w.logger.Error("terminate did not confirm cleanup",
			zap.String("task_id", id.String()),
			zap.Error(err))
	}
	_ = h.Wait()

	// A record the child enqueued before dying may still be in flight on
	// the pipe; give it a moment to drain before synthesizing.
	select {
	case out := <-h.Outcome():
		return out, nil
	case <-time.After(outcomeGrace):
	}
	if out, ok := h.TryOutcome(); ok {
		return out, nil
	}
	w.logger.Warn("task terminated before emitting an outcome",
		zap.String("task_id", id.String()))
	return runner.Outcome{
		TaskID:      id,
		Status:      runner.StatusFailed,
		Explanation: explanation,
		MissingDeps: []string{},
		NewDeps:     []string{},
	}, nil
}

// reportExit resolves the outcome of a task process that exited on its
// own. Exiting without a record and without a terminate call is an
// anomaly that must be surfaced, never treated as still pending.
func (w *Worker) reportExit(h *runner.Handle, id core.TaskID) (runner.Outcome, error) {
	waitErr := h.Wait()

	select {
	case out := <-h.Outcome():
		return out, nil
	case <-time.After(outcomeGrace):
	}

	if out, ok := h.TryOutcome(); ok {
		return out, nil
	}

	detail := "exit status 0"
	if waitErr != nil {
		detail = waitErr.Error()
	}
	w.logger.Error("task process exited without an outcome record",
		zap.String("task_id", id.String()),
		zap.String("exit", detail))
	return runner.Outcome{
		TaskID:      id,
		Status:      runner.StatusFailed,
		Explanation: fmt.Sprintf("Task process exited without reporting an outcome (%s).", detail),
		MissingDeps: []string{},
		NewDeps:     []string{},
	}, nil
}
