package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies task errors that occur outside user run logic.
type ErrorKind string

const (
	// KindConstruction marks integrity failures detected before execution:
	// a task whose base initialization was bypassed, or whose identity
	// machinery is otherwise undefined. These must surface to the caller
	// directly, never through the result channel.
	KindConstruction ErrorKind = "construction"

	// KindRegistry marks factory/registry failures (unknown family,
	// duplicate registration, bad parameter payload).
	KindRegistry ErrorKind = "registry"

	// KindChannel marks a failure to enqueue the outcome record itself.
	KindChannel ErrorKind = "channel"
)

// TaskError wraps engine-level task errors with their kind.
type TaskError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *TaskError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *TaskError) Unwrap() error { return e.Err }

func constructionf(format string, args ...any) error {
	return &TaskError{Kind: KindConstruction, Msg: fmt.Sprintf(format, args...)}
}

func registryf(format string, args ...any) error {
	return &TaskError{Kind: KindRegistry, Msg: fmt.Sprintf(format, args...)}
}

// IsConstructionError reports whether err is a construction-time integrity
// error as opposed to a runtime task failure.
func IsConstructionError(err error) bool {
	var te *TaskError
	return errors.As(err, &te) && te.Kind == KindConstruction
}

// IncompleteDepsError is returned from a Task's Run when its logic
// discovers additional dependencies at run time that are not yet complete.
// The runner reports the yielded tasks in the outcome's new_deps field.
type IncompleteDepsError struct {
	Deps []Task
}

func (e *IncompleteDepsError) Error() string {
	return fmt.Sprintf("run yielded %d incomplete dependencies", len(e.Deps))
}
