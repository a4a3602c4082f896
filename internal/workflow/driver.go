// Package workflow implements the workflow driver: the top level of the
// three-level hierarchy that owns a run's DAGs, serves the signal bus on
// their behalf, and terminates once every DAG it started has finished.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/lightflow-io/lightflow/internal/dag"
	"github.com/lightflow-io/lightflow/internal/lferrors"
	"github.com/lightflow-io/lightflow/internal/signalbus"
	"github.com/lightflow-io/lightflow/internal/taskdata"
)

// maxSignalRequestsPerTick bounds how many pending signal requests the
// driver drains in a single polling iteration, so that a burst of requests
// cannot starve the dag-reaping pass that follows it.
const maxSignalRequestsPerTick = 10

// DagHandle is a submitted, running DAG copy as seen by the driver: it
// reports when the run has settled and whether it failed, without the
// driver needing to know how the run is actually being executed (in a
// worker pool, over the job queue, or in-process).
type DagHandle interface {
	Name() string
	Ready() bool
	Failed() bool
	Forget()
}

// Runner submits a DAG blueprint copy for execution and returns a handle to
// track it. The production implementation is the job queue's DagRunner,
// which hands the copy to the dag worker pool; tests use a fake runner.
type Runner interface {
	Submit(ctx context.Context, blueprint *dag.Blueprint, workflowID string, data *taskdata.Bundle) (DagHandle, error)
}

// SignalServer is the driver's view of the signal bus: receive pending
// requests, respond to them, push one back onto the front of the queue
// (join_dags' "not ready yet, try again" semantics), and tear the whole
// thing down once the run has finished.
type SignalServer interface {
	Receive(ctx context.Context) (*signalbus.Request, error)
	Send(ctx context.Context, resp *signalbus.Response) error
	Restore(ctx context.Context, req *signalbus.Request) error
	Clear(ctx context.Context) error
}

// Config carries the driver's per-run settings.
type Config struct {
	WorkflowID       string
	PollInterval     time.Duration
	ForgetOnComplete bool
}

// Driver runs one workflow: it queues every autostart DAG, then loops
// serving the signal bus and reaping finished DAGs until none remain.
type Driver struct {
	cfg        Config
	blueprints map[string]*dag.Blueprint
	runner     Runner

	running      []DagHandle
	stopWorkflow bool
	stopDags     map[string]bool
}

// New creates a Driver for the given workflow run, with blueprints indexed
// by their declared names.
func New(cfg Config, blueprints map[string]*dag.Blueprint, runner Runner) *Driver {
	return &Driver{
		cfg:        cfg,
		blueprints: blueprints,
		runner:     runner,
		stopDags:   make(map[string]bool),
	}
}

// Run starts every autostart DAG and then serves the signal bus until all
// running DAGs have finished.
func (d *Driver) Run(ctx context.Context, signal SignalServer, initialData *taskdata.Bundle) error {
	for name, bp := range d.blueprints {
		if bp.AutoStart() {
			if _, err := d.queueDag(ctx, name, initialData); err != nil {
				return fmt.Errorf("workflow: autostart dag %q: %w", name, err)
			}
		}
	}

	ticker := time.NewTicker(pollInterval(d.cfg.PollInterval))
	defer ticker.Stop()

	for len(d.running) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		var deferred []*signalbus.Request
		for i := 0; i < maxSignalRequestsPerTick; i++ {
			req, err := signal.Receive(ctx)
			if err != nil {
				return fmt.Errorf("workflow: receive signal request: %w", err)
			}
			if req == nil {
				break
			}

			resp, err := d.handleRequest(ctx, req)
			switch {
			case err != nil:
				if sendErr := signal.Send(ctx, &signalbus.Response{UID: req.UID, Success: false}); sendErr != nil {
					return fmt.Errorf("workflow: send failure response: %w", sendErr)
				}
			case resp != nil:
				if sendErr := signal.Send(ctx, resp); sendErr != nil {
					return fmt.Errorf("workflow: send response: %w", sendErr)
				}
			default:
				deferred = append(deferred, req)
			}
		}
		// Deferred requests go back to the front in their original order and
		// are examined again on the next tick.
		for j := len(deferred) - 1; j >= 0; j-- {
			if restoreErr := signal.Restore(ctx, deferred[j]); restoreErr != nil {
				return fmt.Errorf("workflow: restore request: %w", restoreErr)
			}
		}

		d.reapFinished()
	}

	return signal.Clear(ctx)
}

// reapFinished removes every settled DAG from the running list, forgetting
// its result when configured to, and raises the workflow stop flag if any
// DAG failed outright (as opposed to being stopped cooperatively).
func (d *Driver) reapFinished() {
	var still []DagHandle
	for i := len(d.running) - 1; i >= 0; i-- {
		h := d.running[i]
		switch {
		case h.Failed():
			d.stopWorkflow = true
			if d.cfg.ForgetOnComplete {
				h.Forget()
			}
		case h.Ready():
			if d.cfg.ForgetOnComplete {
				h.Forget()
			}
		default:
			still = append(still, h)
		}
	}
	// still was built walking backwards; restore original relative order.
	d.running = d.running[:0]
	for i := len(still) - 1; i >= 0; i-- {
		d.running = append(d.running, still[i])
	}
}

// queueDag deep-copies the named blueprint and submits it to the runner,
// returning the runtime name assigned to the new copy. It refuses to queue
// once the workflow has been flagged to stop.
func (d *Driver) queueDag(ctx context.Context, name string, data *taskdata.Bundle) (string, error) {
	if d.stopWorkflow {
		return "", nil
	}

	bp, ok := d.blueprints[name]
	if !ok {
		return "", lferrors.ErrWorkflowDagUnknown
	}

	copy := bp.Copy()
	handle, err := d.runner.Submit(ctx, copy, d.cfg.WorkflowID, data)
	if err != nil {
		return "", fmt.Errorf("workflow: submit dag %q: %w", name, err)
	}
	d.running = append(d.running, handle)
	return copy.Name(), nil
}

func pollInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return 50 * time.Millisecond
	}
	return d
}
