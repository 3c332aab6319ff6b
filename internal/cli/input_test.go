package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInvocation(t *testing.T) {
	inv, err := ParseInvocation([]string{
		"--task", "report",
		"--params", `{"date":"2024-01-01"}`,
		"--timeout", "5s",
		"--check-complete",
	})
	require.NoError(t, err)

	assert.Equal(t, "report", inv.Family)
	assert.Equal(t, `{"date":"2024-01-01"}`, inv.ParamsJSON)
	assert.Equal(t, 5*time.Second, inv.Timeout)
	assert.True(t, inv.TimeoutSet)
	assert.True(t, inv.CheckCompleteSet)
	assert.True(t, inv.CheckComplete)
	assert.False(t, inv.CheckDepsSet, "unset flags leave config defaults in effect")
}

func TestParseInvocationRequiresTask(t *testing.T) {
	_, err := ParseInvocation(nil)
	require.Error(t, err)
	var invErr *InvocationError
	require.True(t, errors.As(err, &invErr))
	assert.Equal(t, ExitInvalidInvocation, invErr.ExitCode)
}

func TestParseInvocationRejectsBadParams(t *testing.T) {
	_, err := ParseInvocation([]string{"--task", "report", "--params", "{broken"})
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInvocation, ExitCode(err))
}

func TestParseInvocationRejectsUnknownFlag(t *testing.T) {
	_, err := ParseInvocation([]string{"--task", "report", "--bogus"})
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInvocation, ExitCode(err))
}

func TestParseInvocationRejectsPositionalArgs(t *testing.T) {
	_, err := ParseInvocation([]string{"--task", "report", "stray"})
	require.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitInternalError, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitConfigError, ExitCode(&InvocationError{ExitCode: ExitConfigError}))
}
