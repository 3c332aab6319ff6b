package runner

import (
	"fmt"

	"taskmill/internal/core"
)

// Status is the terminal status carried by an outcome record. Other
// lifecycle states (pending, running) are owned by the external scheduler
// and never emitted here.
type Status string

const (
	StatusDone   Status = "DONE"
	StatusFailed Status = "FAILED"
)

// Explanation fragments that are part of the reporting contract.
const (
	unfulfilledDepsPrefix  = "Unfulfilled dependencies at run time: "
	stillIncompleteMessage = "Task finished running, but complete() is still returning false."
)

// Outcome is the single record a task execution attempt produces.
//
// NewDeps is tri-state: nil means "absent" (success, or a post-condition
// failure where run logic finished), an empty non-nil slice means an
// ordinary failure, and a populated slice carries dependencies discovered
// dynamically during execution. The JSON encoding preserves nil as null
// and empty as [].
type Outcome struct {
	TaskID      core.TaskID `json:"task_id"`
	Status      Status      `json:"status"`
	Explanation string      `json:"explanation"`
	MissingDeps []string    `json:"missing_deps"`
	NewDeps     []string    `json:"new_deps"`
}

// runState tracks the execution state machine of a single TaskProcess.
// A TaskProcess is single-use: once terminal, no further transitions are
// valid.
type runState string

const (
	stateNotStarted runState = "NOT_STARTED"
	stateRunning    runState = "RUNNING"
	stateSucceeded  runState = "SUCCEEDED"
	stateFailed     runState = "FAILED"
)

func isAllowedTransition(from, to runState) bool {
	switch from {
	case stateNotStarted:
		return to == stateRunning
	case stateRunning:
		return to == stateSucceeded || to == stateFailed
	default:
		return false
	}
}

// transition validates and applies a state change. An invalid transition
// is a programming error in the runner, not a task failure.
func transition(current *runState, to runState) error {
	if !isAllowedTransition(*current, to) {
		return fmt.Errorf("disallowed runner transition: %s -> %s", *current, to)
	}
	*current = to
	return nil
}
