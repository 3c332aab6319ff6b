package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskmill/internal/core"
)

// Options configure one execution attempt.
type Options struct {
	// CheckUnfulfilledDeps enables the dependency gate: dependencies are
	// verified before Run, and an unmet dependency fails the attempt
	// without invoking Run.
	CheckUnfulfilledDeps bool

	// CheckCompleteOnRun re-invokes the completion predicate after a
	// successful Run and fails the attempt if it still returns false.
	CheckCompleteOnRun bool

	// WorkerTimeout is the default timeout; a task-level explicit value
	// (including zero = disabled) always wins. Enforcement is the owning
	// worker's job, not the TaskProcess's.
	WorkerTimeout time.Duration
}

// TaskProcess owns the lifecycle of executing exactly one task and
// emitting exactly one outcome record. It is single-use: one instance,
// one attempt, one record.
type TaskProcess struct {
	task     core.Task
	workerID string
	results  ResultChannel
	reporter safeReporter
	opts     Options
	logger   *zap.Logger
	state    runState
}

// NewTaskProcess binds a task to its result channel and status reporter.
func NewTaskProcess(task core.Task, workerID string, results ResultChannel, reporter core.Reporter, opts Options, logger *zap.Logger) *TaskProcess {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskProcess{
		task:     task,
		workerID: workerID,
		results:  results,
		reporter: safeReporter{inner: reporter},
		opts:     opts,
		logger:   logger,
		state:    stateNotStarted,
	}
}

// EffectiveTimeout resolves the timeout for this attempt. A task-level
// explicit zero disables the timeout even when a non-zero default is
// configured.
func (p *TaskProcess) EffectiveTimeout() time.Duration {
	return core.EffectiveTimeout(p.task, p.opts.WorkerTimeout)
}

// Run executes the attempt and puts exactly one outcome record on the
// result channel.
//
// Construction-time integrity errors (undefined identity) are returned to
// the caller without emitting a record: they belong to the orchestrator,
// not the result channel. A failure to put the record itself is also
// returned, so a child process can surface it through its exit status.
func (p *TaskProcess) Run(ctx context.Context) error {
	if p.task == nil {
		return &core.TaskError{Kind: core.KindConstruction, Msg: "nil task"}
	}
	id, err := p.task.ID()
	if err != nil {
		return err
	}
	if err := transition(&p.state, stateRunning); err != nil {
		return err
	}

	p.logger.Info("running task",
		zap.String("task_id", id.String()),
		zap.String("worker_id", p.workerID))
	p.reporter.TaskStarted(id)

	out := p.execute(ctx, id)

	if err := p.results.Put(out); err != nil {
		p.logger.Error("enqueuing outcome record failed",
			zap.String("task_id", id.String()),
			zap.Error(err))
		return err
	}
	p.reporter.TaskFinished(id, string(out.Status))
	p.logger.Info("task finished",
		zap.String("task_id", id.String()),
		zap.String("status", string(out.Status)))
	return nil
}

// execute walks the state machine and builds the outcome record. Every
// path ends in exactly one terminal state and one record.
func (p *TaskProcess) execute(ctx context.Context, id core.TaskID) Outcome {
	if p.opts.CheckUnfulfilledDeps {
		missing, err := core.VerifyDependencies(p.task)
		if err != nil {
			_ = transition(&p.state, stateFailed)
			return p.failureOutcome(id, err, []string{})
		}
		if len(missing) > 0 {
			_ = transition(&p.state, stateFailed)
			return Outcome{
				TaskID:      id,
				Status:      StatusFailed,
				Explanation: unfulfilledDepsPrefix + strings.Join(missing, ", "),
				MissingDeps: missing,
				NewDeps:     []string{},
			}
		}
	}

	runErr := p.guardedRun(ctx)
	if runErr != nil {
		_ = transition(&p.state, stateFailed)
		newDeps := []string{}
		var incomplete *core.IncompleteDepsError
		if errors.As(runErr, &incomplete) {
			for _, dep := range incomplete.Deps {
				depID, idErr := dep.ID()
				if idErr != nil {
					// A dynamically yielded task with undefined identity
					// degrades to an ordinary failure.
					return p.failureOutcome(id, idErr, []string{})
				}
				newDeps = append(newDeps, depID.String())
			}
		}
		return p.failureOutcome(id, runErr, newDeps)
	}

	if p.opts.CheckCompleteOnRun {
		complete, err := core.IsComplete(p.task)
		if err != nil {
			_ = transition(&p.state, stateFailed)
			return p.failureOutcome(id, err, []string{})
		}
		if !complete {
			_ = transition(&p.state, stateFailed)
			return Outcome{
				TaskID:      id,
				Status:      StatusFailed,
				Explanation: stillIncompleteMessage,
				MissingDeps: []string{},
				NewDeps:     nil,
			}
		}
	}

	_ = transition(&p.state, stateSucceeded)
	return Outcome{
		TaskID:      id,
		Status:      StatusDone,
		Explanation: p.successExplanation(),
		MissingDeps: []string{},
		NewDeps:     nil,
	}
}

// guardedRun invokes the task's run logic with an interception policy
// broad enough to turn any panic, including runtime errors raised by user
// code, into a reportable failure. Truly unrecoverable faults (stack
// exhaustion, the OOM killer) abort the process; the owning worker
// observes those as exit-without-record and surfaces them itself.
func (p *TaskProcess) guardedRun(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v\n%s", r, debug.Stack())
		}
	}()
	if pr, ok := p.task.(core.ProgressRunner); ok {
		return pr.RunWithProgress(ctx, p.reporter)
	}
	return p.task.Run(ctx)
}

func (p *TaskProcess) successExplanation() string {
	if se, ok := p.task.(core.SuccessExplainer); ok {
		if expl, ok := callExplainer(func() string { return se.OnSuccess() }); ok {
			return expl
		}
	}
	return ""
}

func (p *TaskProcess) failureOutcome(id core.TaskID, runErr error, newDeps []string) Outcome {
	return Outcome{
		TaskID:      id,
		Status:      StatusFailed,
		Explanation: p.failureExplanation(runErr),
		MissingDeps: []string{},
		NewDeps:     newDeps,
	}
}

func (p *TaskProcess) failureExplanation(runErr error) string {
	if fe, ok := p.task.(core.FailureExplainer); ok {
		if expl, ok := callExplainer(func() string { return fe.OnFailure(runErr) }); ok {
			return expl
		}
		p.logger.Warn("on_failure hook panicked; using default rendering")
	}
	return defaultErrorRendering(runErr)
}

// callExplainer runs an explanation hook under its own guard so a buggy
// hook degrades to the default explanation instead of killing the
// attempt.
func callExplainer(hook func() string) (expl string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return hook(), true
}

// defaultErrorRendering stringifies the error for the explanation field.
// Panics captured by guardedRun already carry their stack trace.
func defaultErrorRendering(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
