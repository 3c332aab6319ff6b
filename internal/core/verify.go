package core

import (
	"fmt"
	"strings"
)

// VerifyDependencies checks whether every direct dependency of the task is
// complete and returns one discrepancy descriptor per incomplete
// dependency, in declaration order. An empty result means all
// dependencies are satisfied.
//
// A descriptor is the dependency's identity alone when it declares no
// outputs, otherwise the identity followed by a parenthesized,
// comma-joined list of all of its declared output names. The list is not
// filtered by per-output completeness: once the dependency as a whole is
// incomplete, every declared output is rendered.
//
// The verifier is pure: it never calls Run and never mutates a task.
func VerifyDependencies(t Task) ([]string, error) {
	deps := Flatten(t.Requires())
	var missing []string
	for _, dep := range deps {
		complete, err := IsComplete(dep)
		if err != nil {
			return nil, fmt.Errorf("checking completeness of dependency: %w", err)
		}
		if complete {
			continue
		}
		descriptor, err := describeDependency(dep)
		if err != nil {
			return nil, err
		}
		missing = append(missing, descriptor)
	}
	return missing, nil
}

func describeDependency(dep Task) (string, error) {
	id, err := dep.ID()
	if err != nil {
		return "", err
	}
	outputs := dep.Output()
	if len(outputs) == 0 {
		return id.String(), nil
	}
	names := make([]string, 0, len(outputs))
	for _, target := range outputs {
		names = append(names, targetName(target))
	}
	return fmt.Sprintf("%s (%s)", id, strings.Join(names, ", ")), nil
}

// targetName renders a target for discrepancy messages. Targets are not
// required to be printable, so fall back to the default formatting when
// the implementation provides no String.
func targetName(t Target) string {
	if s, ok := t.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", t)
}
