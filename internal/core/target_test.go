package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTargetExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	target := &LocalTarget{Path: path}

	exists, err := target.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	exists, err = target.Exists()
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, target.String())
}

func TestMemoryTargetSharesStateByName(t *testing.T) {
	ResetMemoryTargets()

	a := &MemoryTarget{Name: "shared"}
	b := &MemoryTarget{Name: "shared"}

	exists, err := a.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	a.Put([]byte("x"))
	exists, err = b.Exists()
	require.NoError(t, err)
	assert.True(t, exists, "same-name targets observe the same state")

	b.Remove()
	exists, err = a.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
}
