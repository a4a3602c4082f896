package queue

import (
	"context"
	"testing"
	"time"

	"github.com/lightflow-io/lightflow/internal/lferrors"
	"github.com/lightflow-io/lightflow/internal/taskaction"
	"github.com/lightflow-io/lightflow/internal/taskdata"
	"github.com/stretchr/testify/require"
)

func TestPublishAwaitResultRoundTripsTaskResult(t *testing.T) {
	rdb := newTestRedis(t)

	bundle := taskdata.NewBundle()
	bundle.AddDataset("extract", taskdata.NewDataset())
	want := TaskResult{Action: taskaction.New(bundle)}

	require.NoError(t, PublishResult(context.Background(), rdb, "job-1", want))

	var got TaskResult
	require.NoError(t, AwaitResult(context.Background(), rdb, "job-1", time.Second, &got))
	require.Len(t, got.Action.Data.Datasets(), len(want.Action.Data.Datasets()))
	require.Empty(t, got.ErrMsg)
}

func TestAwaitResultTimesOutWhenNothingPublished(t *testing.T) {
	rdb := newTestRedis(t)

	var got TaskResult
	err := AwaitResult(context.Background(), rdb, "missing-job", 20*time.Millisecond, &got)
	require.ErrorIs(t, err, lferrors.ErrQueueResultTimeout)
}

func TestPublishResultDagResultRoundTrips(t *testing.T) {
	rdb := newTestRedis(t)

	want := DagResult{Status: "success"}
	require.NoError(t, PublishResult(context.Background(), rdb, "dag-job-1", want))

	var got DagResult
	require.NoError(t, AwaitResult(context.Background(), rdb, "dag-job-1", time.Second, &got))
	require.Equal(t, want, got)
}
