// Package scheduler implements the DAG executor: the frontier-driven loop
// that walks a dag.Graph, dispatches each task's Run method, and applies
// skip propagation and successor limit sets to decide what runs next.
package scheduler

import (
	"sync"

	"github.com/lightflow-io/lightflow/internal/task"
	"github.com/lightflow-io/lightflow/internal/taskaction"
)

// NodeStatus is the runtime status of one task within one DAG run.
type NodeStatus int

const (
	NodeStatusInit NodeStatus = iota
	NodeStatusWaiting
	NodeStatusRunning
	NodeStatusCompleted
	NodeStatusSkipped
	NodeStatusStopped
	NodeStatusAborted
)

func (s NodeStatus) String() string {
	switch s {
	case NodeStatusInit:
		return "init"
	case NodeStatusWaiting:
		return "waiting"
	case NodeStatusRunning:
		return "running"
	case NodeStatusCompleted:
		return "completed"
	case NodeStatusSkipped:
		return "skipped"
	case NodeStatusStopped:
		return "stopped"
	case NodeStatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status represents a node that will not
// run (or run again) for the rest of this DAG execution.
func (s NodeStatus) IsTerminal() bool {
	switch s {
	case NodeStatusCompleted, NodeStatusSkipped, NodeStatusStopped, NodeStatusAborted:
		return true
	default:
		return false
	}
}

// Node is the runtime state of a single task within one DAG run: its
// status, whether it was skipped, and the Action it produced. A Node is
// distinct from a task.Task so that one Task definition, registered once
// in a Blueprint, can be scheduled across many concurrent DAG runs without
// their runtime states aliasing each other.
type Node struct {
	mu sync.Mutex

	task   *task.Task
	status NodeStatus
	skip   bool
	action *taskaction.Action
	err    error
}

func newNode(t *task.Task) *Node {
	return &Node{task: t, status: NodeStatusInit}
}

// Task returns the task definition this node runs.
func (n *Node) Task() *task.Task {
	return n.task
}

// Name returns the underlying task's name.
func (n *Node) Name() string {
	return n.task.Name
}

// Status returns the node's current status.
func (n *Node) Status() NodeStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status
}

func (n *Node) setStatus(s NodeStatus) {
	n.mu.Lock()
	n.status = s
	n.mu.Unlock()
}

// IsSkipped reports whether this node was skipped rather than run.
func (n *Node) IsSkipped() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.skip
}

func (n *Node) setSkipped(v bool) {
	n.mu.Lock()
	n.skip = v
	n.mu.Unlock()
}

// Action returns the Action the node produced, if it ran.
func (n *Node) Action() *taskaction.Action {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.action
}

func (n *Node) setAction(a *taskaction.Action) {
	n.mu.Lock()
	n.action = a
	n.mu.Unlock()
}

// Err returns the error the node's run produced, if any.
func (n *Node) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

func (n *Node) setErr(err error) {
	n.mu.Lock()
	n.err = err
	n.mu.Unlock()
}
