package workflow

import (
	"context"
	"fmt"

	"github.com/lightflow-io/lightflow/internal/lferrors"
	"github.com/lightflow-io/lightflow/internal/signalbus"
	"github.com/lightflow-io/lightflow/internal/taskdata"
)

// handleRequest dispatches an incoming signal request to the matching
// handler. A nil, nil return means "not ready to answer yet" — the caller
// restores the request to the front of the queue and tries again later, as
// join_dags does while the DAGs it is waiting on are still running.
func (d *Driver) handleRequest(ctx context.Context, req *signalbus.Request) (*signalbus.Response, error) {
	switch req.Action {
	case "start_dag":
		return d.handleStartDag(ctx, req)
	case "stop_workflow":
		return d.handleStopWorkflow(req)
	case "join_dags":
		return d.handleJoinDags(req)
	case "stop_dag":
		return d.handleStopDag(req)
	case "is_dag_stopped":
		return d.handleIsDagStopped(req)
	default:
		return nil, fmt.Errorf("workflow: %w: %q", lferrors.ErrRequestActionUnknown, req.Action)
	}
}

// handleStartDag queues a new copy of the named DAG and reports the name
// assigned to it.
func (d *Driver) handleStartDag(ctx context.Context, req *signalbus.Request) (*signalbus.Response, error) {
	name, _ := req.Payload["name"].(string)
	data, err := taskdata.FromJSON(req.Payload["data"])
	if err != nil {
		return nil, fmt.Errorf("workflow: decode start_dag data: %w", err)
	}

	dagName, err := d.queueDag(ctx, name, data)
	if err != nil {
		return nil, err
	}

	return &signalbus.Response{
		UID:     req.UID,
		Success: dagName != "",
		Payload: map[string]any{"dag_name": dagName},
	}, nil
}

// handleStopWorkflow flags the whole workflow to stop: no further DAGs may
// be queued, and every currently running DAG is added to the stop set so
// its executor sees is_dag_stopped true on its next poll.
func (d *Driver) handleStopWorkflow(req *signalbus.Request) (*signalbus.Response, error) {
	d.stopWorkflow = true
	for _, h := range d.running {
		d.stopDags[h.Name()] = true
	}
	return &signalbus.Response{UID: req.UID, Success: true}, nil
}

// handleJoinDags answers once every DAG it is waiting on has finished. With
// an explicit name list, it waits for those DAGs specifically; with none
// (nil), it waits for every DAG but the one, by convention, that is asking.
func (d *Driver) handleJoinDags(req *signalbus.Request) (*signalbus.Response, error) {
	names, explicit := stringSlice(req.Payload["names"])

	var ready bool
	if !explicit {
		ready = len(d.running) <= 1
	} else {
		runningNames := make(map[string]bool, len(d.running))
		for _, h := range d.running {
			runningNames[h.Name()] = true
		}
		ready = true
		for _, n := range names {
			if runningNames[n] {
				ready = false
				break
			}
		}
	}

	if !ready {
		return nil, nil
	}
	return &signalbus.Response{UID: req.UID, Success: true}, nil
}

// handleStopDag adds a single DAG to the stop set.
func (d *Driver) handleStopDag(req *signalbus.Request) (*signalbus.Response, error) {
	name, _ := req.Payload["name"].(string)
	if name != "" {
		d.stopDags[name] = true
	}
	return &signalbus.Response{UID: req.UID, Success: true}, nil
}

// handleIsDagStopped reports whether the named DAG has been flagged to
// stop.
func (d *Driver) handleIsDagStopped(req *signalbus.Request) (*signalbus.Response, error) {
	dagName, _ := req.Payload["dag_name"].(string)
	return &signalbus.Response{
		UID:     req.UID,
		Success: true,
		Payload: map[string]any{"is_stopped": d.stopDags[dagName]},
	}, nil
}

// stringSlice normalises a payload value that should be a list of names.
// In-process callers (tests, and any future in-process signal bus) hand it
// a native []string; anything that crossed the wire through the signal
// bus's JSON-encoded Payload decodes generically as []any instead. A nil
// value (Go's encoding of the request's explicit "names": null) reports
// explicit=false, matching join_dags' "wait for every other dag" mode.
func stringSlice(v any) (names []string, explicit bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}
