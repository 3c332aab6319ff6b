package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmill/internal/core"
	"taskmill/internal/runner"
)

func TestMain(m *testing.M) {
	if runner.IsChildProcess() {
		os.Exit(runner.ChildMain())
	}
	os.Exit(m.Run())
}

type echoTask struct {
	core.BaseTask
}

func (t *echoTask) Run(ctx context.Context) error { return nil }
func (t *echoTask) OnSuccess() string             { return "echoed" }

func init() {
	core.MustRegister("cli_echo", func(params map[string]any) (core.Task, error) {
		return &echoTask{core.NewBaseTask("cli_echo", params)}, nil
	})
}

func TestRunExecutesRegisteredTask(t *testing.T) {
	var out bytes.Buffer
	res, err := Run(context.Background(), []string{"--task", "cli_echo", "--check-deps=false"}, &out)
	require.NoError(t, err)

	assert.Equal(t, ExitSuccess, res.ExitCode)
	require.NotNil(t, res.Outcome)
	assert.Equal(t, runner.StatusDone, res.Outcome.Status)
	assert.Contains(t, out.String(), `"status": "DONE"`)
	assert.Contains(t, out.String(), `"explanation": "echoed"`)
}

func TestRunUnknownFamily(t *testing.T) {
	res, err := Run(context.Background(), []string{"--task", "no_such_family"}, nil)
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInvocation, res.ExitCode)
}

func TestRunInvalidFlags(t *testing.T) {
	res, err := Run(context.Background(), []string{"--nope"}, nil)
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInvocation, res.ExitCode)
}
