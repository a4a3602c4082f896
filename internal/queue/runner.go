package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lightflow-io/lightflow/internal/dag"
	"github.com/lightflow-io/lightflow/internal/taskdata"
	"github.com/lightflow-io/lightflow/internal/workflow"
	"github.com/redis/go-redis/v9"
)

// DagRunner implements workflow.Runner by enqueuing a dag job and tracking
// its completion in the background, so the workflow driver's polling
// Ready()/Failed() calls never block on the queue.
type DagRunner struct {
	queue         *Queue
	resultClient  *redis.Client
	defaultQueue  string
	resultTimeout time.Duration
	events        EventSink
}

// NewDagRunner creates a DagRunner.
func NewDagRunner(q *Queue, resultClient *redis.Client, defaultQueue string, resultTimeout time.Duration, events EventSink) *DagRunner {
	return &DagRunner{queue: q, resultClient: resultClient, defaultQueue: defaultQueue, resultTimeout: resultTimeout, events: events}
}

// Submit enqueues bp as a dag job and returns a handle that becomes ready
// once the job's result arrives.
func (r *DagRunner) Submit(ctx context.Context, bp *dag.Blueprint, workflowID string, data *taskdata.Bundle) (workflow.DagHandle, error) {
	jobID := uuid.NewString()
	job := DagJob{JobID: jobID, WorkflowID: workflowID, Blueprint: bp, Data: data}

	now := time.Now()
	if err := r.queue.Enqueue(ctx, r.defaultQueue, JobTypeDag, jobID, workflowID, job); err != nil {
		return nil, fmt.Errorf("queue: submit dag %q: %w", bp.Name(), err)
	}
	r.events.Publish(Event{
		UID: jobID, JobType: JobTypeDag, EventType: EventStarted,
		Name: bp.Name(), WorkflowID: workflowID, Time: now,
	})

	handle := &dagHandle{name: bp.Name()}
	go func() {
		var result DagResult
		err := AwaitResult(context.Background(), r.resultClient, jobID, r.resultTimeout, &result)

		duration := time.Since(now)
		eventType := EventSucceeded
		failed := err != nil || result.ErrMsg != "" || result.Status == "error" || result.Status == "aborted"
		if failed {
			eventType = EventAborted
		}
		r.events.Publish(Event{
			UID: jobID, JobType: JobTypeDag, EventType: eventType,
			Name: bp.Name(), WorkflowID: workflowID, Time: time.Now(), Duration: &duration,
		})

		handle.complete(failed)
	}()

	return handle, nil
}

// dagHandle tracks a submitted dag job's completion for the workflow
// driver's polling reapFinished loop.
type dagHandle struct {
	name string

	mu     sync.Mutex
	done   bool
	failed bool
}

func (h *dagHandle) Name() string { return h.name }

func (h *dagHandle) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

func (h *dagHandle) Failed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done && h.failed
}

func (h *dagHandle) Forget() {}

func (h *dagHandle) complete(failed bool) {
	h.mu.Lock()
	h.done = true
	h.failed = failed
	h.mu.Unlock()
}
