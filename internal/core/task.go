package core

import (
	"context"
	"time"
)

// Task is the declarative unit of work executed by the engine.
//
// Implementations embed BaseTask (via NewBaseTask) to obtain the identity
// and parameter plumbing; the engine treats the rest of the surface as a
// capability set and never creates, caches, or mutates Task instances
// beyond invoking the declared methods.
type Task interface {
	// Family is the stable type name of the task, used together with the
	// parameters to derive the task's identity and to reconstruct the
	// task inside an isolated child process.
	Family() string

	// Params returns the task's declared parameters.
	Params() map[string]any

	// ID derives the task's deterministic identity. Two tasks with equal
	// family and parameters yield equal identities. Returns a
	// construction-kind error if base initialization was bypassed.
	ID() (TaskID, error)

	// Requires returns the task's direct dependencies. A Requirement may
	// be a single task or a group; see Flatten.
	Requires() []Requirement

	// Output returns the targets this task produces.
	Output() []Target

	// Run performs the task's side effect.
	Run(ctx context.Context) error
}

// Completer overrides the default completion predicate
// ("all declared outputs exist").
type Completer interface {
	Complete() bool
}

// SuccessExplainer customizes the explanation attached to a DONE outcome.
type SuccessExplainer interface {
	OnSuccess() string
}

// FailureExplainer customizes the explanation attached to a FAILED
// outcome. The hook receives the error raised by Run; if the hook itself
// panics, the engine falls back to the default rendering.
type FailureExplainer interface {
	OnFailure(err error) string
}

// TimeoutSetter declares an explicit per-task timeout. An explicit value
// always wins over the configured default, including an explicit zero,
// which disables the timeout for this task entirely.
type TimeoutSetter interface {
	WorkerTimeout() time.Duration
}

// Reporter receives interim progress signals while a task is running.
// The engine calls into it but defines no transport; implementations must
// be inert (a reporting failure never fails the task).
type Reporter interface {
	TaskStarted(id TaskID)
	TaskProgress(id TaskID, message string)
	TaskFinished(id TaskID, status string)
}

// ProgressRunner is implemented by tasks that want to emit progress while
// running. When present it is invoked instead of Run.
type ProgressRunner interface {
	RunWithProgress(ctx context.Context, reporter Reporter) error
}

// Requirement is one declared dependency slot: a single task or a nested
// group of tasks.
type Requirement interface {
	tasks() []Task
}

type singleReq struct{ t Task }

func (r singleReq) tasks() []Task {
	if r.t == nil {
		return nil
	}
	return []Task{r.t}
}

type groupReq struct{ ts []Task }

func (r groupReq) tasks() []Task { return r.ts }

// One declares a dependency on a single task.
func One(t Task) Requirement { return singleReq{t: t} }

// Group declares a dependency on several tasks under one requirement slot.
func Group(ts ...Task) Requirement { return groupReq{ts: ts} }

// Flatten expands requirement slots into the ordered list of dependency
// tasks, recursing one level through groups and dropping nils. Order
// follows the declaration order of Requires.
func Flatten(reqs []Requirement) []Task {
	var out []Task
	for _, r := range reqs {
		if r == nil {
			continue
		}
		for _, t := range r.tasks() {
			if t != nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// BaseTask carries the identity and parameter plumbing shared by all
// tasks. It must be created through NewBaseTask; a zero BaseTask marks the
// task as uninitialized and makes ID fail fast with a construction error
// instead of silently misbehaving at execution time.
type BaseTask struct {
	family      string
	params      map[string]any
	initialized bool
}

// NewBaseTask initializes the base plumbing for a task of the given
// family with the given parameters. A nil params map is treated as empty.
func NewBaseTask(family string, params map[string]any) BaseTask {
	if params == nil {
		params = map[string]any{}
	}
	return BaseTask{family: family, params: params, initialized: true}
}

func (b *BaseTask) Family() string { return b.family }

func (b *BaseTask) Params() map[string]any { return b.params }

// ID derives the deterministic task identity from family and parameters.
func (b *BaseTask) ID() (TaskID, error) {
	if !b.initialized {
		return "", constructionf("task was constructed without base initialization; identity is undefined")
	}
	return computeID(b.family, b.params)
}

// Requires declares no dependencies by default.
func (b *BaseTask) Requires() []Requirement { return nil }

// Output declares no targets by default.
func (b *BaseTask) Output() []Target { return nil }

// Run is a no-op by default.
func (b *BaseTask) Run(ctx context.Context) error { return nil }

// IsComplete evaluates the task's completion predicate: the Completer
// capability when present, otherwise "all declared outputs exist". A task
// with no outputs and no Completer is never complete.
func IsComplete(t Task) (bool, error) {
	if c, ok := t.(Completer); ok {
		return c.Complete(), nil
	}
	outputs := t.Output()
	if len(outputs) == 0 {
		return false, nil
	}
	for _, target := range outputs {
		if target == nil {
			continue
		}
		exists, err := target.Exists()
		if err != nil {
			return false, err
		}
		if !exists {
			return false, nil
		}
	}
	return true, nil
}

// EffectiveTimeout resolves the timeout for a task: the task's explicit
// WorkerTimeout when the capability is present (explicit zero disables),
// otherwise the supplied default.
func EffectiveTimeout(t Task, def time.Duration) time.Duration {
	if ts, ok := t.(TimeoutSetter); ok {
		return ts.WorkerTimeout()
	}
	return def
}
