package core

import (
	"os"
	"sync"
)

// Target is an abstract handle to a piece of external state produced by a
// task. The engine relies only on the existence check; everything else
// about the backing store (filesystem, object store, database row) is the
// Task author's concern.
//
// Targets may be modified concurrently by other workers. Existence checks
// are read-only and take no locks; consistency of repeated checks is not
// guaranteed by the engine.
type Target interface {
	Exists() (bool, error)
}

// LocalTarget is a file-backed target.
type LocalTarget struct {
	Path string
}

func (t *LocalTarget) Exists() (bool, error) {
	_, err := os.Stat(t.Path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (t *LocalTarget) String() string { return t.Path }

// memoryStore backs MemoryTarget. Shared process-wide so independent
// MemoryTarget values with the same name observe the same state, the way
// file targets with the same path would.
var memoryStore = struct {
	mu   sync.Mutex
	data map[string][]byte
}{data: map[string][]byte{}}

// MemoryTarget is an in-memory named target used by tests and examples.
// State is process-local; it does not cross the isolation boundary into
// spawned task processes.
type MemoryTarget struct {
	Name string
}

func (t *MemoryTarget) Exists() (bool, error) {
	memoryStore.mu.Lock()
	defer memoryStore.mu.Unlock()
	_, ok := memoryStore.data[t.Name]
	return ok, nil
}

// Put writes content to the target, marking it existent.
func (t *MemoryTarget) Put(content []byte) {
	memoryStore.mu.Lock()
	defer memoryStore.mu.Unlock()
	memoryStore.data[t.Name] = content
}

// Remove deletes the target's content, marking it nonexistent.
func (t *MemoryTarget) Remove() {
	memoryStore.mu.Lock()
	defer memoryStore.mu.Unlock()
	delete(memoryStore.data, t.Name)
}

func (t *MemoryTarget) String() string { return t.Name }

// ResetMemoryTargets clears all in-memory target state. Test helper.
func ResetMemoryTargets() {
	memoryStore.mu.Lock()
	defer memoryStore.mu.Unlock()
	memoryStore.data = map[string][]byte{}
}
