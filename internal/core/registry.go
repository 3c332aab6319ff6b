package core

import (
	"encoding/json"
	"sort"
	"sync"
)

// Factory builds a task instance of one family from decoded parameters.
type Factory func(params map[string]any) (Task, error)

// registry maps task families to factories so that an isolated child
// process can reconstruct the task it was asked to execute from the
// family name and parameter payload alone.
var registry = struct {
	mu        sync.RWMutex
	factories map[string]Factory
}{factories: map[string]Factory{}}

// Register binds a family name to a factory. Duplicate registration is a
// registry-kind error: families must be unique because they participate
// in task identity.
func Register(family string, factory Factory) error {
	if family == "" {
		return registryf("family name is empty")
	}
	if factory == nil {
		return registryf("nil factory for family %q", family)
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.factories[family]; exists {
		return registryf("family %q is already registered", family)
	}
	registry.factories[family] = factory
	return nil
}

// MustRegister is Register for init-time wiring; it panics on error.
func MustRegister(family string, factory Factory) {
	if err := Register(family, factory); err != nil {
		panic(err)
	}
}

// NewTask reconstructs a task from its family and JSON parameter payload.
// The rebuilt task is integrity-checked: its identity must be derivable,
// so a factory that bypasses base initialization fails here rather than
// at execution time.
func NewTask(family string, paramsJSON []byte) (Task, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[family]
	registry.mu.RUnlock()
	if !ok {
		return nil, registryf("unknown task family %q", family)
	}

	params := map[string]any{}
	if len(paramsJSON) > 0 {
		if err := json.Unmarshal(paramsJSON, &params); err != nil {
			return nil, registryf("decoding parameters for family %q: %v", family, err)
		}
	}

	task, err := factory(params)
	if err != nil {
		return nil, registryf("building task of family %q: %v", family, err)
	}
	if task == nil {
		return nil, registryf("factory for family %q returned nil", family)
	}
	if _, err := task.ID(); err != nil {
		return nil, err
	}
	return task, nil
}

// RegisteredFamilies returns the sorted list of known families.
func RegisteredFamilies() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	families := make([]string, 0, len(registry.factories))
	for f := range registry.factories {
		families = append(families, f)
	}
	sort.Strings(families)
	return families
}
