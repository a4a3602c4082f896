package task

import (
	"errors"
	"fmt"

	"github.com/lightflow-io/lightflow/internal/lferrors"
	"github.com/lightflow-io/lightflow/internal/taskaction"
	"github.com/lightflow-io/lightflow/internal/taskdata"
)

// Execute runs t's full lifecycle: Init callback, Run, Finally callback,
// and the postprocessing that flattens the (possibly fanned-in) data
// bundle down to a single dataset and appends the task's name to its
// history. It is the one place that interprets a RunFunc's three possible
// outcomes — ordinary return, StopTaskError, AbortWorkflowError — and any
// other error is treated as a task failure: the Finally callback still
// runs (with StatusError), the workflow is signalled to stop, and the
// error is returned to the caller wrapped with the task's name (errors.Is
// still matches the original) so the scheduler can record it.
//
// If data is nil, a fresh bundle is created with a single dataset
// registered under the task's own name, mirroring how the first task of a
// DAG receives its input.
func Execute(t *Task, data *taskdata.Bundle, store Store, signal Signal, ctx Context) (*taskaction.Action, error) {
	if data == nil {
		data = taskdata.NewBundle()
		data.AddDataset(t.Name, taskdata.NewDataset())
	}

	if t.Init != nil {
		t.Init(data, store, signal, ctx)
	}

	result, runErr := t.Run(data, store, signal, ctx)

	var stopErr *StopTaskError
	var abortErr *AbortWorkflowError

	switch {
	case runErr == nil:
		if t.Finally != nil {
			t.Finally(StatusSuccess, data, store, signal, ctx)
		}

	case errors.As(runErr, &stopErr):
		if t.Finally != nil {
			t.Finally(StatusStopped, data, store, signal, ctx)
		}
		if stopErr.SkipSuccessors {
			result = taskaction.NewWithLimit(data, []string{})
		} else {
			result = nil
		}
		runErr = nil

	case errors.As(runErr, &abortErr):
		if t.Finally != nil {
			t.Finally(StatusAborted, data, store, signal, ctx)
		}
		result = nil
		runErr = nil
		if err := signal.StopWorkflow(); err != nil {
			return nil, fmt.Errorf("task %q: abort: signal workflow stop: %w", t.Name, err)
		}

	default:
		if t.Finally != nil {
			t.Finally(StatusError, data, store, signal, ctx)
		}
		if err := signal.StopWorkflow(); err != nil {
			return nil, fmt.Errorf("task %q: %w (also failed to signal workflow stop: %v)", t.Name, runErr, err)
		}
		return nil, fmt.Errorf("task %q: %w", t.Name, runErr)
	}

	if result == nil {
		data.Flatten(true)
		data.AddTaskHistory(t.Name)
		return taskaction.New(data), nil
	}

	if result.Data == nil {
		return nil, fmt.Errorf("task %q: %w", t.Name, lferrors.ErrTaskReturnInvalid)
	}

	result.Data.Flatten(true)
	result.Data.AddTaskHistory(t.Name)
	return result, nil
}
