package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
worker:
  timeout: 250ms
  check_unfulfilled_deps: false
  check_complete_on_run: true
  terminate_wait: 2s
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Worker.Timeout)
	assert.False(t, cfg.Worker.CheckUnfulfilledDeps)
	assert.True(t, cfg.Worker.CheckCompleteOnRun)
	assert.Equal(t, 2*time.Second, cfg.Worker.TerminateWait)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TASKMILL_TEST_LEVEL", "error")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: ${TASKMILL_TEST_LEVEL}
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, time.Duration(0), cfg.Worker.Timeout, "timeout disabled by default")
	assert.True(t, cfg.Worker.CheckUnfulfilledDeps)
	assert.False(t, cfg.Worker.CheckCompleteOnRun)
	assert.Equal(t, time.Second, cfg.Worker.TerminateWait)
}
