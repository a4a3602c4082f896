package queue

import (
	"context"
	"testing"
	"time"

	"github.com/lightflow-io/lightflow/internal/dag"
	"github.com/stretchr/testify/require"
)

func TestDagRunnerSubmitBecomesReadyOnSuccess(t *testing.T) {
	rdb := newTestRedis(t)
	q := New(rdb)
	events := NewChannelSink(4)
	r := NewDagRunner(q, rdb, DefaultDagQueue, time.Second, events)

	bp := dag.NewBlueprint("main", true, dag.Schema{})

	go func() {
		popped, err := q.Dequeue(context.Background(), time.Second, DefaultDagQueue)
		require.NoError(t, err)
		require.NotNil(t, popped)

		dj, err := popped.DecodeDag()
		require.NoError(t, err)
		require.NoError(t, PublishResult(context.Background(), rdb, dj.JobID, DagResult{Status: "success"}))
	}()

	handle, err := r.Submit(context.Background(), bp, "wf-1", nil)
	require.NoError(t, err)
	require.Equal(t, "main", handle.Name())

	require.Eventually(t, handle.Ready, time.Second, 5*time.Millisecond)
	require.False(t, handle.Failed())
}

func TestDagRunnerSubmitBecomesFailedOnErrorStatus(t *testing.T) {
	rdb := newTestRedis(t)
	q := New(rdb)
	events := NewChannelSink(4)
	r := NewDagRunner(q, rdb, DefaultDagQueue, time.Second, events)

	bp := dag.NewBlueprint("main", true, dag.Schema{})

	go func() {
		popped, err := q.Dequeue(context.Background(), time.Second, DefaultDagQueue)
		require.NoError(t, err)
		require.NotNil(t, popped)

		dj, err := popped.DecodeDag()
		require.NoError(t, err)
		require.NoError(t, PublishResult(context.Background(), rdb, dj.JobID, DagResult{Status: "error", ErrMsg: "boom"}))
	}()

	handle, err := r.Submit(context.Background(), bp, "wf-1", nil)
	require.NoError(t, err)

	require.Eventually(t, handle.Ready, time.Second, 5*time.Millisecond)
	require.True(t, handle.Failed())
}

func TestDagRunnerSubmitBecomesFailedOnTimeout(t *testing.T) {
	rdb := newTestRedis(t)
	q := New(rdb)
	events := NewChannelSink(4)
	r := NewDagRunner(q, rdb, DefaultDagQueue, 20*time.Millisecond, events)

	bp := dag.NewBlueprint("main", true, dag.Schema{})

	handle, err := r.Submit(context.Background(), bp, "wf-1", nil)
	require.NoError(t, err)

	require.Eventually(t, handle.Ready, time.Second, 5*time.Millisecond)
	require.True(t, handle.Failed())
}
