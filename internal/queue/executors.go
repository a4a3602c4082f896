package queue

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lightflow-io/lightflow/internal/dag"
	"github.com/lightflow-io/lightflow/internal/parameters"
	"github.com/lightflow-io/lightflow/internal/scheduler"
	"github.com/lightflow-io/lightflow/internal/signalbus"
	"github.com/lightflow-io/lightflow/internal/store"
	"github.com/lightflow-io/lightflow/internal/task"
	"github.com/lightflow-io/lightflow/internal/taskdata"
	"github.com/lightflow-io/lightflow/internal/workflow"
	"github.com/redis/go-redis/v9"
)

// Registry is the static, process-wide map from a workflow's declared name
// to its DAG blueprints and declared parameters, and from a DAG's declared
// name to its task definitions. Every worker process builds one
// identically at startup by importing the same workflow packages, so a
// job carrying only names (not the tasks themselves, which carry
// unserializable closures) can still be executed wherever it lands.
type Registry struct {
	WorkflowDags       map[string]map[string]*dag.Blueprint
	WorkflowParameters map[string]*parameters.List
	DagTasks           map[string]map[string]*task.Task
}

// WorkerConfig carries the Redis connections and tuning a worker needs to
// run jobs it has popped from the queue.
type WorkerConfig struct {
	Registry        *Registry
	StoreClient     *redis.Client
	SignalClient    *redis.Client
	ResultClient    *redis.Client
	Dispatcher      *TaskDispatcher
	DagRunner       *DagRunner
	SignalTimeout   time.Duration
	DagPollInterval time.Duration
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

// consolidateArgs checks the run's arguments against the workflow's
// declared parameter list, if it registered one, and returns the
// coerced result wrapped in the bundle's default dataset. A workflow with
// no registered parameter list passes its raw arguments through
// unchecked.
func consolidateArgs(registry *Registry, job WorkflowJob) (*taskdata.Bundle, error) {
	params, ok := registry.WorkflowParameters[job.WorkflowName]
	if !ok {
		ds := taskdata.NewDataset()
		for k, v := range job.Args {
			ds.Set(k, v)
		}
		return taskdata.NewBundleWithDataset(ds), nil
	}

	if missing := params.CheckMissing(job.Args); len(missing) > 0 {
		return nil, fmt.Errorf("queue: execute workflow %q: missing required parameters: %v", job.WorkflowName, missing)
	}

	consolidated, err := params.Consolidate(job.Args)
	if err != nil {
		return nil, fmt.Errorf("queue: execute workflow %q: consolidate parameters: %w", job.WorkflowName, err)
	}

	ds := taskdata.NewDataset()
	for k, v := range consolidated {
		ds.Set(k, v)
	}
	return taskdata.NewBundleWithDataset(ds), nil
}

// ExecuteWorkflow runs a workflow job: it drives every autostart DAG
// belonging to the named workflow to completion via wc.DagRunner, serving
// the signal bus for the run, and publishes a WorkflowResult when the
// whole run settles.
func ExecuteWorkflow(ctx context.Context, job WorkflowJob, wc *WorkerConfig) error {
	blueprints, ok := wc.Registry.WorkflowDags[job.WorkflowName]
	if !ok {
		err := fmt.Errorf("queue: execute workflow %q: no dags registered", job.WorkflowName)
		_ = PublishResult(ctx, wc.ResultClient, job.JobID, WorkflowResult{ErrMsg: err.Error()})
		return err
	}

	initialData, err := consolidateArgs(wc.Registry, job)
	if err != nil {
		_ = PublishResult(ctx, wc.ResultClient, job.JobID, WorkflowResult{ErrMsg: err.Error()})
		return err
	}

	server := signalbus.NewServer(wc.SignalClient, job.WorkflowID)
	driver := workflow.New(workflow.Config{
		WorkflowID:       job.WorkflowID,
		PollInterval:     wc.DagPollInterval,
		ForgetOnComplete: true,
	}, blueprints, wc.DagRunner)

	runErr := driver.Run(ctx, server, initialData)

	result := WorkflowResult{}
	if runErr != nil {
		result.ErrMsg = runErr.Error()
	}
	if err := PublishResult(ctx, wc.ResultClient, job.JobID, result); err != nil {
		return fmt.Errorf("queue: publish workflow result: %w", err)
	}
	return runErr
}

// ExecuteDag runs a dag job to completion: it builds the DAG's frontier
// graph from the travelling blueprint, looks up its tasks by the
// blueprint's base name, and runs scheduler.Executor against a
// queue-backed task dispatcher so individual tasks fan out across the
// worker pool rather than running inside this call.
func ExecuteDag(ctx context.Context, job DagJob, wc *WorkerConfig) error {
	baseName := baseDagName(job.Blueprint.Name())
	tasks, ok := wc.Registry.DagTasks[baseName]
	if !ok {
		err := fmt.Errorf("queue: execute dag %q: no tasks registered for %q", job.Blueprint.Name(), baseName)
		_ = PublishResult(ctx, wc.ResultClient, job.JobID, DagResult{Status: "error", ErrMsg: err.Error()})
		return err
	}

	graph, err := dag.Build(job.Blueprint.Schema())
	if err != nil {
		err = fmt.Errorf("queue: execute dag %q: %w", job.Blueprint.Name(), err)
		_ = PublishResult(ctx, wc.ResultClient, job.JobID, DagResult{Status: "error", ErrMsg: err.Error()})
		return err
	}

	signalClient := signalbus.NewClient(wc.SignalClient, job.WorkflowID, wc.SignalTimeout)
	dagSignal := signalbus.NewDagSignal(ctx, signalClient, job.Blueprint.Name())
	taskSignal := signalbus.NewTaskSignal(ctx, signalClient, job.Blueprint.Name())
	doc := store.New(wc.StoreClient).Document(job.WorkflowID)

	executor, err := scheduler.NewExecutor(scheduler.Config{
		DagName:        job.Blueprint.Name(),
		WorkflowID:     job.WorkflowID,
		WorkerHostname: hostname(),
	}, graph, tasks, wc.Dispatcher, doc, dagSignal, taskSignal)
	if err != nil {
		err = fmt.Errorf("queue: execute dag %q: %w", job.Blueprint.Name(), err)
		_ = PublishResult(ctx, wc.ResultClient, job.JobID, DagResult{Status: "error", ErrMsg: err.Error()})
		return err
	}

	status, runErr := executor.Run(ctx, job.Data, nil)

	result := DagResult{Status: status.String()}
	if runErr != nil {
		result.Status = "error"
		result.ErrMsg = runErr.Error()
	}
	if err := PublishResult(ctx, wc.ResultClient, job.JobID, result); err != nil {
		return fmt.Errorf("queue: publish dag result: %w", err)
	}
	return runErr
}

// ExecuteTask runs a single task job: it looks the task up in the
// registry by its base DAG name, runs its full task.Execute lifecycle
// against the run's data store and signal bus, and publishes the outcome
// for the dispatcher that is blocked awaiting it.
func ExecuteTask(ctx context.Context, job TaskJob, wc *WorkerConfig) error {
	tasks, ok := wc.Registry.DagTasks[job.BaseDag]
	if !ok {
		err := fmt.Errorf("queue: execute task %q: no tasks registered for dag %q", job.TaskName, job.BaseDag)
		_ = PublishResult(ctx, wc.ResultClient, job.JobID, TaskResult{ErrMsg: err.Error()})
		return err
	}
	t, ok := tasks[job.TaskName]
	if !ok {
		err := fmt.Errorf("queue: execute task %q: not found in dag %q", job.TaskName, job.BaseDag)
		_ = PublishResult(ctx, wc.ResultClient, job.JobID, TaskResult{ErrMsg: err.Error()})
		return err
	}

	doc := store.New(wc.StoreClient).Document(job.WorkflowID)
	signalClient := signalbus.NewClient(wc.SignalClient, job.WorkflowID, wc.SignalTimeout)
	taskSignal := signalbus.NewTaskSignal(ctx, signalClient, job.RunDagName)

	tctx := task.Context{
		TaskName:       job.TaskName,
		DagName:        job.RunDagName,
		WorkflowID:     job.WorkflowID,
		WorkerHostname: hostname(),
	}

	action, err := task.Execute(t, job.Data, doc, taskSignal, tctx)

	result := TaskResult{Action: action}
	if err != nil {
		result.ErrMsg = err.Error()
	}
	if pubErr := PublishResult(ctx, wc.ResultClient, job.JobID, result); pubErr != nil {
		return fmt.Errorf("queue: publish task result: %w", pubErr)
	}
	return err
}
