package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lightflow-io/lightflow/internal/task"
	"github.com/lightflow-io/lightflow/internal/taskaction"
	"github.com/lightflow-io/lightflow/internal/taskdata"
	"github.com/redis/go-redis/v9"
)

// TaskDispatcher implements scheduler.Dispatcher by enqueuing a task job
// and blocking on its result, the queue-backed replacement for running a
// task in-process. It is the adapter a DAG's executor uses in production;
// tests use an in-process dispatcher instead.
type TaskDispatcher struct {
	queue         *Queue
	resultClient  *redis.Client
	defaultQueue  string
	resultTimeout time.Duration
	events        EventSink
}

// NewTaskDispatcher creates a TaskDispatcher. defaultQueue is used for any
// task that does not name its own queue or names task.DefaultQueue.
func NewTaskDispatcher(q *Queue, resultClient *redis.Client, defaultQueue string, resultTimeout time.Duration, events EventSink) *TaskDispatcher {
	return &TaskDispatcher{queue: q, resultClient: resultClient, defaultQueue: defaultQueue, resultTimeout: resultTimeout, events: events}
}

// Dispatch enqueues t as a task job and waits for its result.
func (d *TaskDispatcher) Dispatch(ctx context.Context, t *task.Task, data *taskdata.Bundle, _ task.Store, _ task.Signal, tctx task.Context) (*taskaction.Action, error) {
	jobID := uuid.NewString()
	job := TaskJob{
		JobID:      jobID,
		WorkflowID: tctx.WorkflowID,
		BaseDag:    baseDagName(tctx.DagName),
		RunDagName: tctx.DagName,
		TaskName:   t.Name,
		Data:       data,
	}

	queueKey := t.Queue
	if queueKey == "" || queueKey == task.DefaultQueue {
		queueKey = d.defaultQueue
	}

	now := time.Now()
	if err := d.queue.Enqueue(ctx, queueKey, JobTypeTask, jobID, tctx.WorkflowID, job); err != nil {
		return nil, fmt.Errorf("queue: dispatch task %q: %w", t.Name, err)
	}
	d.events.Publish(Event{
		UID: jobID, JobType: JobTypeTask, EventType: EventStarted,
		Name: t.Name, WorkflowID: tctx.WorkflowID, Time: now,
	})

	var result TaskResult
	if err := AwaitResult(ctx, d.resultClient, jobID, d.resultTimeout, &result); err != nil {
		return nil, fmt.Errorf("queue: await task %q result: %w", t.Name, err)
	}

	duration := time.Since(now)
	eventType := EventSucceeded
	if result.ErrMsg != "" {
		eventType = EventAborted
	}
	d.events.Publish(Event{
		UID: jobID, JobType: JobTypeTask, EventType: eventType,
		Name: t.Name, WorkflowID: tctx.WorkflowID, Time: time.Now(), Duration: &duration,
	})

	if result.ErrMsg != "" {
		return nil, errors.New(result.ErrMsg)
	}
	return result.Action, nil
}

// baseDagName strips a blueprint copy's "<base>:<n>" run suffix, so a
// task job can look itself up in a registry keyed by the DAG's declared
// name rather than by each individual run's copy name.
func baseDagName(runName string) string {
	for i := len(runName) - 1; i >= 0; i-- {
		if runName[i] == ':' {
			return runName[:i]
		}
	}
	return runName
}
