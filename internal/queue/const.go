// Package queue implements the job queue adapter: three Redis-list-backed
// queues (workflow, dag, task), a gob-encoded job envelope, result
// correlation for the submitting side to learn how a dispatched job
// concluded, a lifecycle event stream, and the worker pool runtime that
// pops jobs and dispatches them to the matching executor.
package queue

// JobType names the three kinds of job this package queues.
type JobType string

const (
	JobTypeWorkflow JobType = "workflow"
	JobTypeDag      JobType = "dag"
	JobTypeTask     JobType = "task"
)

// Default queue keys, one Redis list per job type. A task may override its
// queue key via Task.Queue; DAG jobs always go to the queue the DagRunner
// was built with, and there is no per-DAG override.
const (
	DefaultWorkflowQueue = "lightflow:queue:workflow"
	DefaultDagQueue      = "lightflow:queue:dag"
	DefaultTaskQueue     = "lightflow:queue:task"
)

// EventType is the job lifecycle event taxonomy, matching the
// "task-lightflow-*" custom Celery event names.
type EventType string

const (
	EventStarted   EventType = "task-lightflow-started"
	EventSucceeded EventType = "task-lightflow-succeeded"
	EventStopped   EventType = "task-lightflow-stopped"
	EventAborted   EventType = "task-lightflow-aborted"
)
