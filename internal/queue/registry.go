package queue

import (
	"github.com/lightflow-io/lightflow/internal/dag"
	"github.com/lightflow-io/lightflow/internal/parameters"
	"github.com/lightflow-io/lightflow/internal/task"
)

// defaultRegistry accumulates workflow and DAG registrations made via
// RegisterWorkflow/RegisterDag. Workflow packages call these from init(),
// so the registry is the single source of truth every worker process in a
// deployment builds identically simply by importing the same packages.
var defaultRegistry = &Registry{
	WorkflowDags:       make(map[string]map[string]*dag.Blueprint),
	WorkflowParameters: make(map[string]*parameters.List),
	DagTasks:           make(map[string]map[string]*task.Task),
}

// RegisterWorkflow associates a workflow name with the autostart DAG
// blueprints it owns. Must be called from init() functions only — not safe
// for concurrent use.
func RegisterWorkflow(workflowName string, dags ...*dag.Blueprint) {
	set, ok := defaultRegistry.WorkflowDags[workflowName]
	if !ok {
		set = make(map[string]*dag.Blueprint)
		defaultRegistry.WorkflowDags[workflowName] = set
	}
	for _, bp := range dags {
		set[bp.Name()] = bp
	}
}

// RegisterWorkflowParameters associates a workflow name with the parameter
// list its module declared, consolidated from every parameter-list
// instance the workflow module contract says an import may collect.
// Repeated calls for the same workflow extend the existing list, matching
// how multiple module-level parameter-list instances are merged. Must be
// called from init() functions only — not safe for concurrent use.
func RegisterWorkflowParameters(workflowName string, params *parameters.List) {
	if params == nil {
		return
	}
	if existing, ok := defaultRegistry.WorkflowParameters[workflowName]; ok {
		existing.Extend(params)
		return
	}
	defaultRegistry.WorkflowParameters[workflowName] = params
}

// RegisterDag associates a DAG name with the tasks it runs. Must be called
// from init() functions only — not safe for concurrent use.
func RegisterDag(dagName string, tasks ...*task.Task) {
	set, ok := defaultRegistry.DagTasks[dagName]
	if !ok {
		set = make(map[string]*task.Task)
		defaultRegistry.DagTasks[dagName] = set
	}
	for _, t := range tasks {
		set[t.Name] = t
	}
}

// DefaultRegistry returns the process-wide registry populated by
// RegisterWorkflow/RegisterDag calls.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
