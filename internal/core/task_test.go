package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainTask struct {
	BaseTask
	requires []Requirement
	output   []Target
	runErr   error
	ran      bool
}

func (t *plainTask) Requires() []Requirement { return t.requires }
func (t *plainTask) Output() []Target        { return t.output }
func (t *plainTask) Run(ctx context.Context) error {
	t.ran = true
	return t.runErr
}

type neverCompleteTask struct {
	plainTask
}

func (t *neverCompleteTask) Complete() bool { return false }

type zeroTimeoutTask struct {
	BaseTask
}

func (t *zeroTimeoutTask) WorkerTimeout() time.Duration { return 0 }

func TestTaskIdentityDeterministic(t *testing.T) {
	a := plainTask{BaseTask: NewBaseTask("Report", map[string]any{"date": "2024-01-01", "shard": 3})}
	b := plainTask{BaseTask: NewBaseTask("Report", map[string]any{"shard": 3, "date": "2024-01-01"})}

	idA, err := a.ID()
	require.NoError(t, err)
	idB, err := b.ID()
	require.NoError(t, err)
	assert.Equal(t, idA, idB, "equal family+params must yield equal identities")
	assert.Contains(t, idA.String(), "Report_")

	c := plainTask{BaseTask: NewBaseTask("Report", map[string]any{"date": "2024-01-02", "shard": 3})}
	idC, err := c.ID()
	require.NoError(t, err)
	assert.NotEqual(t, idA, idC)

	d := plainTask{BaseTask: NewBaseTask("Export", map[string]any{"date": "2024-01-01", "shard": 3})}
	idD, err := d.ID()
	require.NoError(t, err)
	assert.NotEqual(t, idA, idD)
}

func TestUninitializedTaskFailsFast(t *testing.T) {
	// Constructing a task without NewBaseTask is the classic integrity
	// mistake; identity must fail loudly, not misbehave at run time.
	task := &plainTask{}
	_, err := task.ID()
	require.Error(t, err)
	assert.True(t, IsConstructionError(err))

	var te *TaskError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, KindConstruction, te.Kind)
}

func TestFlatten(t *testing.T) {
	a := &plainTask{BaseTask: NewBaseTask("A", nil)}
	b := &plainTask{BaseTask: NewBaseTask("B", nil)}
	c := &plainTask{BaseTask: NewBaseTask("C", nil)}

	flat := Flatten([]Requirement{One(a), Group(b, c), nil, One(nil)})
	require.Len(t, flat, 3)
	assert.Same(t, a, flat[0].(*plainTask))
	assert.Same(t, b, flat[1].(*plainTask))
	assert.Same(t, c, flat[2].(*plainTask))

	assert.Empty(t, Flatten(nil))
}

func TestIsCompleteDefaultsToOutputExistence(t *testing.T) {
	ResetMemoryTargets()

	target := &MemoryTarget{Name: "out-1"}
	task := &plainTask{
		BaseTask: NewBaseTask("WithOutput", nil),
		output:   []Target{target},
	}

	complete, err := IsComplete(task)
	require.NoError(t, err)
	assert.False(t, complete)

	target.Put([]byte("data"))
	complete, err = IsComplete(task)
	require.NoError(t, err)
	assert.True(t, complete)

	// No outputs and no Complete override: never complete.
	bare := &plainTask{BaseTask: NewBaseTask("NoOutput", nil)}
	complete, err = IsComplete(bare)
	require.NoError(t, err)
	assert.False(t, complete)
}

func TestIsCompleteHonorsOverride(t *testing.T) {
	ResetMemoryTargets()

	target := &MemoryTarget{Name: "out-2"}
	target.Put([]byte("data"))

	task := &neverCompleteTask{plainTask{
		BaseTask: NewBaseTask("Stubborn", nil),
		output:   []Target{target},
	}}

	complete, err := IsComplete(task)
	require.NoError(t, err)
	assert.False(t, complete, "Complete override wins over output existence")
}

func TestEffectiveTimeout(t *testing.T) {
	plain := &plainTask{BaseTask: NewBaseTask("Plain", nil)}
	assert.Equal(t, 10*time.Second, EffectiveTimeout(plain, 10*time.Second))

	// An explicit zero on the task disables the timeout even with a
	// non-zero default configured.
	zero := &zeroTimeoutTask{NewBaseTask("Zero", nil)}
	assert.Equal(t, time.Duration(0), EffectiveTimeout(zero, 10*time.Second))
}
