// Package task defines the user-facing unit of work: a named task with
// lifecycle callbacks that runs once per DAG execution and returns an
// Action describing its output data and, optionally, which successors may
// proceed.
package task

import (
	"github.com/lightflow-io/lightflow/internal/taskaction"
	"github.com/lightflow-io/lightflow/internal/taskdata"
)

// Status is delivered to a task's Finally callback, describing how the
// task's run concluded.
type Status int

const (
	StatusSuccess Status = iota + 1
	StatusStopped
	StatusAborted
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusStopped:
		return "stopped"
	case StatusAborted:
		return "aborted"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Context is the read-only snapshot of where a task is running, handed to
// every task invocation and callback.
type Context struct {
	TaskName       string
	DagName        string
	WorkflowName   string
	WorkflowID     string
	WorkerHostname string
}

// Store is the task-facing view of the persistent data store document: a
// nested, dot-path-addressed key/value space scoped to the workflow run.
type Store interface {
	Get(path string, def any) (any, error)
	Set(path string, value any) error
	Push(path string, value any) error
	Extend(path string, values []any) error
}

// Signal is the task-facing view of the signal bus: cooperative
// cancellation plus the ability to start and join sub-DAGs and request a
// workflow-wide or DAG-wide stop.
type Signal interface {
	IsStopped() bool
	StopWorkflow() error
	StopDag(name string) error
	StartDag(name string, data *taskdata.Bundle) (string, error)
	JoinDags(names []string) error
}

// RunFunc is the user-supplied body of a task. Returning (nil, nil)
// synthesises an Action carrying the (possibly modified) input data
// unchanged. Returning a non-nil error that is not StopTask or
// AbortWorkflow propagates as a task failure.
type RunFunc func(data *taskdata.Bundle, store Store, signal Signal, ctx Context) (*taskaction.Action, error)

// InitFunc runs immediately before RunFunc.
type InitFunc func(data *taskdata.Bundle, store Store, signal Signal, ctx Context)

// FinallyFunc always runs at the end of a task, regardless of outcome.
type FinallyFunc func(status Status, data *taskdata.Bundle, store Store, signal Signal, ctx Context)

// Task is the declarative definition of a unit of work: its routing
// (name, queue), its scheduling flags, its lifecycle callbacks, and its
// run body. A Task is immutable once constructed; per-run state (waiting,
// running, skipped, ...) lives in the scheduler, not here, so that one Task
// definition can be reused, unmodified, across many DAG copies.
type Task struct {
	Name          string
	Queue         string
	ForceRun      bool
	PropagateSkip bool

	Init    InitFunc
	Finally FinallyFunc
	Run     RunFunc
}

// DefaultQueue is the queue name used when a Task does not specify one.
const DefaultQueue = "task"

// New creates a Task with the engine's defaults: PropagateSkip true,
// ForceRun false, queued to DefaultQueue.
func New(name string, run RunFunc) *Task {
	return &Task{
		Name:          name,
		Queue:         DefaultQueue,
		PropagateSkip: true,
		Run:           run,
	}
}
