package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/lightflow-io/lightflow/internal/dag"
	"github.com/lightflow-io/lightflow/internal/task"
	"github.com/lightflow-io/lightflow/internal/taskaction"
	"github.com/lightflow-io/lightflow/internal/taskdata"
)

// Signal is the DAG executor's view of the signal bus: it checks the stop
// latch and, on an unrecoverable task failure, raises stop_workflow.
type Signal interface {
	IsStopped() bool
	StopWorkflow() error
}

// Dispatcher submits a task's full lifecycle (task.Execute) to run,
// somewhere — in-process, or via a job queue backed by a worker pool — and
// blocks until it completes. Multiple nodes in the frontier are dispatched
// concurrently, each in its own goroutine, so true parallelism comes from
// however many Dispatch calls are in flight at once, not from the executor
// loop itself.
type Dispatcher interface {
	Dispatch(ctx context.Context, t *task.Task, data *taskdata.Bundle, store task.Store, signal task.Signal, tctx task.Context) (*taskaction.Action, error)
}

// Config carries the DAG executor's per-run settings.
type Config struct {
	DagName        string
	WorkflowName   string
	WorkflowID     string
	WorkerHostname string
	PollInterval   time.Duration
}

// Executor runs the frontier loop for one DAG copy: it walks dag.Graph,
// decides which waiting nodes may dispatch (applying skip propagation and
// successor limit sets), dispatches them, and folds their results back
// into the frontier until it is empty.
type Executor struct {
	cfg        Config
	graph      *dag.Graph
	nodes      map[string]*Node
	dispatcher Dispatcher
	store      task.Store
	signal     Signal
	taskSignal task.Signal
}

// NewExecutor builds an Executor for graph, where tasks maps every vertex
// name in graph to its task definition.
func NewExecutor(cfg Config, g *dag.Graph, tasks map[string]*task.Task, dispatcher Dispatcher, store task.Store, signal Signal, taskSignal task.Signal) (*Executor, error) {
	nodes := make(map[string]*Node, len(g.Vertices()))
	for _, name := range g.Vertices() {
		t, ok := tasks[name]
		if !ok {
			return nil, fmt.Errorf("scheduler: no task registered for vertex %q", name)
		}
		nodes[name] = newNode(t)
	}

	return &Executor{
		cfg:        cfg,
		graph:      g,
		nodes:      nodes,
		dispatcher: dispatcher,
		store:      store,
		signal:     signal,
		taskSignal: taskSignal,
	}, nil
}

// nodeResult is delivered on the internal completion channel once a
// dispatched node's task.Execute call returns.
type nodeResult struct {
	name   string
	action *taskaction.Action
	err    error
}

// Run drives the frontier loop to completion, seeding the graph's sources
// with initialData, and returns the DAG's aggregate status. done, if
// non-nil, receives every Node as it reaches a terminal status — useful for
// progress reporting and tests.
func (e *Executor) Run(ctx context.Context, initialData *taskdata.Bundle, done chan<- *Node) (Status, error) {
	// A node starts Init and is entered onto the frontier, as Waiting,
	// exactly once: either here at the sources, or the first time one of
	// its predecessors settles below. Checking Init before enqueuing makes
	// that a natural dedup, since no other transition ever returns a node
	// to Init.
	var frontier []string
	enqueue := func(name string) {
		if e.nodes[name].Status() != NodeStatusInit {
			return
		}
		e.nodes[name].setStatus(NodeStatusWaiting)
		frontier = append(frontier, name)
	}
	for _, name := range e.graph.Sources() {
		enqueue(name)
	}

	inFlight := make(chan nodeResult)
	running := 0
	stopped := false
	aborted := false

	ticker := time.NewTicker(pollInterval(e.cfg.PollInterval))
	defer ticker.Stop()

	for len(frontier) > 0 || running > 0 {
		select {
		case <-ticker.C:
		case res := <-inFlight:
			running--
			n := e.nodes[res.name]
			n.setAction(res.action)
			n.setErr(res.err)
			switch {
			case res.err != nil:
				n.setStatus(NodeStatusAborted)
				aborted = true
				_ = e.signal.StopWorkflow()
			default:
				n.setStatus(NodeStatusCompleted)
				for _, edge := range e.graph.Children(res.name) {
					enqueue(edge.To)
				}
			}
			if done != nil {
				done <- n
			}
		}

		if e.signal.IsStopped() {
			stopped = true
		}

		for i := len(frontier) - 1; i >= 0; i-- {
			name := frontier[i]
			n := e.nodes[name]

			if n.Status() != NodeStatusWaiting {
				continue
			}

			if stopped {
				n.setStatus(NodeStatusStopped)
				if done != nil {
					done <- n
				}
				continue
			}

			preds := e.graph.Parents(name)
			if !allTerminal(e.nodes, preds) {
				continue
			}

			runTask, input := e.dispatchDecision(name, preds)
			if len(preds) == 0 {
				input = initialData
			}
			if !runTask {
				n.setSkipped(true)
				n.setStatus(NodeStatusSkipped)
				for _, edge := range e.graph.Children(name) {
					enqueue(edge.To)
				}
				if done != nil {
					done <- n
				}
				continue
			}

			n.setStatus(NodeStatusRunning)
			running++
			tctx := task.Context{
				TaskName:       name,
				DagName:        e.cfg.DagName,
				WorkflowName:   e.cfg.WorkflowName,
				WorkflowID:     e.cfg.WorkflowID,
				WorkerHostname: e.cfg.WorkerHostname,
			}
			t := n.Task()
			go func(name string, input *taskdata.Bundle) {
				action, err := e.dispatcher.Dispatch(ctx, t, input, e.store, e.taskSignal, tctx)
				inFlight <- nodeResult{name: name, action: action, err: err}
			}(name, input)
		}

		// drop every node that is no longer Waiting; nodes newly enqueued
		// during this pass (via the completion branch or a skip above)
		// were appended after the walk began and survive into next round
		var kept []string
		for _, name := range frontier {
			if e.nodes[name].Status() == NodeStatusWaiting {
				kept = append(kept, name)
			}
		}
		frontier = kept
	}

	return e.aggregateStatus(stopped, aborted), nil
}

// dispatchDecision applies the spec's per-predecessor skip and limit rules
// and, when the task should run, assembles its input bundle by fanning in
// every non-skipped predecessor's output dataset under its own name (or the
// edge's slot, if one was declared).
func (e *Executor) dispatchDecision(name string, preds []dag.Edge) (bool, *taskdata.Bundle) {
	n := e.nodes[name]

	if len(preds) == 0 {
		return true, nil
	}
	if n.Task().ForceRun {
		return true, e.fanIn(name, preds)
	}

	runTask := false
	for _, edge := range preds {
		p := e.nodes[edge.From]
		switch {
		case p.IsSkipped():
			if !p.Task().PropagateSkip {
				runTask = true
			}
		default:
			action := p.Action()
			if action == nil || !action.HasLimit() || action.Allows(name) {
				runTask = true
			}
		}
	}

	if !runTask {
		return false, nil
	}
	return true, e.fanIn(name, preds)
}

func (e *Executor) fanIn(name string, preds []dag.Edge) *taskdata.Bundle {
	bundle := taskdata.NewBundle()
	for _, edge := range preds {
		p := e.nodes[edge.From]
		if p.IsSkipped() {
			continue
		}
		action := p.Action()
		if action == nil || action.Data == nil {
			continue
		}
		ds := action.Data.DefaultDataset()
		if ds == nil {
			continue
		}
		aliases := []string{}
		if edge.Slot != "" {
			aliases = append(aliases, edge.Slot)
		}
		bundle.AddDataset(edge.From, ds.Clone(), aliases...)
	}
	return bundle
}

func (e *Executor) aggregateStatus(stopped, aborted bool) Status {
	switch {
	case aborted:
		return StatusAborted
	case stopped:
		return StatusStopped
	default:
		return StatusSuccess
	}
}

func allTerminal(nodes map[string]*Node, edges []dag.Edge) bool {
	for _, edge := range edges {
		if !nodes[edge.From].Status().IsTerminal() {
			return false
		}
	}
	return true
}

func pollInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return 50 * time.Millisecond
	}
	return d
}
