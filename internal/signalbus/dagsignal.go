package signalbus

import "context"

// DagSignal is the DAG executor's view of the bus: it can ask the workflow
// driver to stop everything, and check whether its own DAG has been flagged
// to stop.
type DagSignal struct {
	client  *Client
	dagName string
	ctx     context.Context
}

// NewDagSignal wraps client as the signal handle for the named DAG.
func NewDagSignal(ctx context.Context, client *Client, dagName string) *DagSignal {
	return &DagSignal{client: client, dagName: dagName, ctx: ctx}
}

// StopWorkflow asks the driver to stop queueing new DAGs and to propagate
// the stop flag to every running DAG.
func (d *DagSignal) StopWorkflow() error {
	resp, err := d.client.Send(d.ctx, &Request{Action: "stop_workflow"})
	if err != nil {
		return err
	}
	return successOrFailed(resp)
}

// IsStopped reports whether this DAG has been flagged to stop.
func (d *DagSignal) IsStopped() bool {
	resp, err := d.client.Send(d.ctx, &Request{
		Action:  "is_dag_stopped",
		Payload: map[string]any{"dag_name": d.dagName},
	})
	if err != nil {
		return false
	}
	stopped, _ := resp.Payload["is_stopped"].(bool)
	return stopped
}
