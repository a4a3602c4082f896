package signalbus

import (
	"context"
	"fmt"

	"github.com/lightflow-io/lightflow/internal/lferrors"
	"github.com/lightflow-io/lightflow/internal/taskdata"
)

// TaskSignal is a task's view of the bus: the full set of requests a
// running task may make — start a sub-DAG, join on others, stop a DAG or
// the whole workflow, and check its own stop flag.
type TaskSignal struct {
	client  *Client
	dagName string
	ctx     context.Context
}

// NewTaskSignal wraps client as the signal handle for a task running
// inside the named DAG.
func NewTaskSignal(ctx context.Context, client *Client, dagName string) *TaskSignal {
	return &TaskSignal{client: client, dagName: dagName, ctx: ctx}
}

// StartDag asks the driver to queue a new run of the named DAG, optionally
// passing it a data bundle. It returns the name the driver assigned to the
// new DAG run.
func (t *TaskSignal) StartDag(name string, data *taskdata.Bundle) (string, error) {
	payload := map[string]any{"name": name}
	if data != nil {
		payload["data"] = data
	}
	resp, err := t.client.Send(t.ctx, &Request{Action: "start_dag", Payload: payload})
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("signalbus: start_dag %q: %w", name, lferrors.ErrRequestFailed)
	}
	dagName, _ := resp.Payload["dag_name"].(string)
	return dagName, nil
}

// JoinDags blocks until every named DAG has terminated. If names is nil,
// it waits until every DAG in the workflow except the caller's own has
// terminated.
func (t *TaskSignal) JoinDags(names []string) error {
	payload := map[string]any{}
	if names != nil {
		payload["names"] = names
	} else {
		payload["names"] = nil
	}

	resp, err := t.client.Send(t.ctx, &Request{Action: "join_dags", Payload: payload})
	if err != nil {
		return err
	}
	return successOrFailed(resp)
}

// StopDag asks the driver to stop the named DAG (or the caller's own DAG,
// if name is "").
func (t *TaskSignal) StopDag(name string) error {
	if name == "" {
		name = t.dagName
	}
	resp, err := t.client.Send(t.ctx, &Request{
		Action:  "stop_dag",
		Payload: map[string]any{"name": name},
	})
	if err != nil {
		return err
	}
	return successOrFailed(resp)
}

// StopWorkflow asks the driver to stop the whole workflow run.
func (t *TaskSignal) StopWorkflow() error {
	resp, err := t.client.Send(t.ctx, &Request{Action: "stop_workflow"})
	if err != nil {
		return err
	}
	return successOrFailed(resp)
}

// IsStopped reports whether the task's DAG has been flagged to stop.
func (t *TaskSignal) IsStopped() bool {
	resp, err := t.client.Send(t.ctx, &Request{
		Action:  "is_dag_stopped",
		Payload: map[string]any{"dag_name": t.dagName},
	})
	if err != nil {
		return false
	}
	stopped, _ := resp.Payload["is_stopped"].(bool)
	return stopped
}
