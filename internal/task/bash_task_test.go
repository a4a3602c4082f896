package task

import (
	"testing"

	"github.com/lightflow-io/lightflow/internal/taskdata"
	"github.com/stretchr/testify/require"
)

func TestBashTaskCapturesAggregatedStdout(t *testing.T) {
	var gotStdout string
	tk := NewBashTask("echoer", BashTaskOptions{
		Command:         "echo hello",
		AggregateStdout: true,
		OnEnd: func(exitCode int, stdout, stderr string, data *taskdata.Bundle, store Store, signal Signal, ctx Context) {
			gotStdout = stdout
		},
	})

	action, err := Execute(tk, taskdata.NewBundle(), fakeStore{}, &fakeSignal{}, Context{})
	require.NoError(t, err)
	require.NotNil(t, action)
	require.Contains(t, gotStdout, "hello")
}

func TestBashTaskNonZeroExitIsError(t *testing.T) {
	tk := NewBashTask("failer", BashTaskOptions{Command: "exit 3"})

	_, err := Execute(tk, taskdata.NewBundle(), fakeStore{}, &fakeSignal{}, Context{})
	require.Error(t, err)
}

func TestBashTaskStdinIsPassedThrough(t *testing.T) {
	var gotLine string
	tk := NewBashTask("catter", BashTaskOptions{
		Command: "cat",
		Stdin:   "from-stdin\n",
		OnStdout: func(line string, data *taskdata.Bundle, store Store, signal Signal, ctx Context) {
			gotLine = line
		},
	})

	_, err := Execute(tk, taskdata.NewBundle(), fakeStore{}, &fakeSignal{}, Context{})
	require.NoError(t, err)
	require.Equal(t, "from-stdin", gotLine)
}

func TestBashTaskInvalidCommandSyntaxErrors(t *testing.T) {
	tk := NewBashTask("broken", BashTaskOptions{Command: "echo `unterminated"})

	_, err := Execute(tk, taskdata.NewBundle(), fakeStore{}, &fakeSignal{}, Context{})
	require.Error(t, err)
}
