package queue

import (
	"context"
	"testing"
	"time"

	"github.com/lightflow-io/lightflow/internal/task"
	"github.com/lightflow-io/lightflow/internal/taskaction"
	"github.com/lightflow-io/lightflow/internal/taskdata"
	"github.com/stretchr/testify/require"
)

func TestBaseDagNameStripsRunSuffix(t *testing.T) {
	require.Equal(t, "main", baseDagName("main:1"))
	require.Equal(t, "main", baseDagName("main:12"))
	require.Equal(t, "standalone", baseDagName("standalone"))
}

func TestTaskDispatcherDispatchWaitsForResultAndPublishesEvents(t *testing.T) {
	rdb := newTestRedis(t)
	q := New(rdb)
	events := NewChannelSink(4)
	d := NewTaskDispatcher(q, rdb, DefaultTaskQueue, time.Second, events)

	t1 := task.New("extract", func(data *taskdata.Bundle, store task.Store, signal task.Signal, ctx task.Context) (*taskaction.Action, error) {
		return nil, nil
	})
	tctx := task.Context{TaskName: "extract", DagName: "main:1", WorkflowID: "wf-1"}

	go func() {
		popped, err := q.Dequeue(context.Background(), time.Second, DefaultTaskQueue)
		require.NoError(t, err)
		require.NotNil(t, popped)

		tj, err := popped.DecodeTask()
		require.NoError(t, err)
		require.Equal(t, "main", tj.BaseDag)
		require.Equal(t, "main:1", tj.RunDagName)

		bundle := taskdata.NewBundle()
		bundle.AddDataset("extract", taskdata.NewDataset())
		result := TaskResult{Action: taskaction.New(bundle)}
		require.NoError(t, PublishResult(context.Background(), rdb, tj.JobID, result))
	}()

	action, err := d.Dispatch(context.Background(), t1, nil, nil, nil, tctx)
	require.NoError(t, err)
	require.NotNil(t, action)

	require.Eventually(t, func() bool { return len(events.Events()) == 2 }, time.Second, 5*time.Millisecond)
	started := <-events.Events()
	succeeded := <-events.Events()
	require.Equal(t, EventStarted, started.EventType)
	require.Equal(t, EventSucceeded, succeeded.EventType)
}

func TestTaskDispatcherDispatchReturnsErrorFromFailedResult(t *testing.T) {
	rdb := newTestRedis(t)
	q := New(rdb)
	events := NewChannelSink(4)
	d := NewTaskDispatcher(q, rdb, DefaultTaskQueue, time.Second, events)

	t1 := task.New("extract", nil)
	tctx := task.Context{TaskName: "extract", DagName: "main", WorkflowID: "wf-1"}

	go func() {
		popped, err := q.Dequeue(context.Background(), time.Second, DefaultTaskQueue)
		require.NoError(t, err)
		require.NotNil(t, popped)

		tj, err := popped.DecodeTask()
		require.NoError(t, err)
		require.NoError(t, PublishResult(context.Background(), rdb, tj.JobID, TaskResult{ErrMsg: "boom"}))
	}()

	action, err := d.Dispatch(context.Background(), t1, nil, nil, nil, tctx)
	require.Error(t, err)
	require.Nil(t, action)
	require.Contains(t, err.Error(), "boom")
}
