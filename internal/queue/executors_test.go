package queue

import (
	"context"
	"testing"
	"time"

	"github.com/lightflow-io/lightflow/internal/dag"
	"github.com/lightflow-io/lightflow/internal/parameters"
	"github.com/lightflow-io/lightflow/internal/task"
	"github.com/lightflow-io/lightflow/internal/taskaction"
	"github.com/lightflow-io/lightflow/internal/taskdata"
	"github.com/stretchr/testify/require"
)

func TestConsolidateArgsPassesThroughWithoutRegisteredParameters(t *testing.T) {
	reg := &Registry{WorkflowParameters: map[string]*parameters.List{}}
	job := WorkflowJob{WorkflowName: "unregistered", Args: map[string]any{"region": "us-east"}}

	bundle, err := consolidateArgs(reg, job)
	require.NoError(t, err)
	require.Equal(t, "us-east", bundle.DefaultDataset().Get("region", nil))
}

func TestConsolidateArgsFillsDefaultsAndCoercesTypes(t *testing.T) {
	reg := &Registry{WorkflowParameters: map[string]*parameters.List{
		"billing": parameters.NewList(
			parameters.Option{Name: "account_id", Type: parameters.TypeString},
			parameters.Option{Name: "retries", Type: parameters.TypeInt, Default: 3},
		),
	}}
	job := WorkflowJob{WorkflowName: "billing", Args: map[string]any{"account_id": "acct-1", "retries": "5"}}

	bundle, err := consolidateArgs(reg, job)
	require.NoError(t, err)
	require.Equal(t, "acct-1", bundle.DefaultDataset().Get("account_id", nil))
	require.Equal(t, 5, bundle.DefaultDataset().Get("retries", nil))
}

func TestConsolidateArgsRejectsMissingRequiredParameter(t *testing.T) {
	reg := &Registry{WorkflowParameters: map[string]*parameters.List{
		"billing": parameters.NewList(
			parameters.Option{Name: "account_id", Type: parameters.TypeString},
		),
	}}
	job := WorkflowJob{WorkflowName: "billing", Args: map[string]any{}}

	_, err := consolidateArgs(reg, job)
	require.Error(t, err)
}

func echoTask(name string) *task.Task {
	return task.New(name, func(data *taskdata.Bundle, store task.Store, signal task.Signal, ctx task.Context) (*taskaction.Action, error) {
		return taskaction.New(data), nil
	})
}

func TestExecuteTaskPublishesActionResult(t *testing.T) {
	rdb := newTestRedis(t)
	reg := &Registry{
		DagTasks: map[string]map[string]*task.Task{
			"main": {"extract": echoTask("extract")},
		},
	}
	wc := &WorkerConfig{
		Registry:     reg,
		StoreClient:  rdb,
		SignalClient: rdb,
		ResultClient: rdb,
	}

	job := TaskJob{JobID: "job-1", WorkflowID: "wf-1", BaseDag: "main", RunDagName: "main:1", TaskName: "extract"}
	require.NoError(t, ExecuteTask(context.Background(), job, wc))

	var result TaskResult
	require.NoError(t, AwaitResult(context.Background(), rdb, "job-1", time.Second, &result))
	require.Empty(t, result.ErrMsg)
	require.NotNil(t, result.Action)
}

func TestExecuteTaskUnknownTaskPublishesError(t *testing.T) {
	rdb := newTestRedis(t)
	reg := &Registry{DagTasks: map[string]map[string]*task.Task{}}
	wc := &WorkerConfig{Registry: reg, StoreClient: rdb, SignalClient: rdb, ResultClient: rdb}

	job := TaskJob{JobID: "job-2", WorkflowID: "wf-1", BaseDag: "main", RunDagName: "main", TaskName: "missing"}
	err := ExecuteTask(context.Background(), job, wc)
	require.Error(t, err)

	var result TaskResult
	require.NoError(t, AwaitResult(context.Background(), rdb, "job-2", time.Second, &result))
	require.NotEmpty(t, result.ErrMsg)
}

func TestExecuteDagRunsSingleTaskGraphViaTaskQueue(t *testing.T) {
	rdb := newTestRedis(t)
	reg := &Registry{
		DagTasks: map[string]map[string]*task.Task{
			"main": {"extract": echoTask("extract")},
		},
	}
	events := NewChannelSink(16)
	q := New(rdb)
	dispatcher := NewTaskDispatcher(q, rdb, DefaultTaskQueue, time.Second, events)
	wc := &WorkerConfig{
		Registry:     reg,
		StoreClient:  rdb,
		SignalClient: rdb,
		ResultClient: rdb,
		Dispatcher:   dispatcher,
		// No workflow driver answers the signal bus here, so bound each
		// is_dag_stopped wait instead of blocking on it forever.
		SignalTimeout: 20 * time.Millisecond,
	}

	// Simulate a second worker process draining the task queue.
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			popped, err := q.Dequeue(context.Background(), 50*time.Millisecond, DefaultTaskQueue)
			if err != nil || popped == nil {
				continue
			}
			tj, err := popped.DecodeTask()
			require.NoError(t, err)
			require.NoError(t, ExecuteTask(context.Background(), tj, wc))
		}
	}()
	defer close(stop)

	bp := dag.NewBlueprint("main", true, dag.Schema{dag.Isolated("extract")})
	job := DagJob{JobID: "dag-job-1", WorkflowID: "wf-1", Blueprint: bp}

	require.NoError(t, ExecuteDag(context.Background(), job, wc))

	var result DagResult
	require.NoError(t, AwaitResult(context.Background(), rdb, "dag-job-1", time.Second, &result))
	require.Equal(t, "success", result.Status)
	require.Empty(t, result.ErrMsg)
}
