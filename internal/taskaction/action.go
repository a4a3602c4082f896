// Package taskaction defines the value a task returns from its run method:
// the outgoing data bundle plus an optional limit on which successors may
// proceed.
package taskaction

import "github.com/lightflow-io/lightflow/internal/taskdata"

// Action is the return value of a task. It carries the outgoing task data
// bundle and, optionally, an explicit set of successor task names that are
// allowed to proceed — any successor not named is skipped. A nil Limit
// means "all successors proceed"; a non-nil, empty Limit means "skip every
// successor".
type Action struct {
	Data  *taskdata.Bundle
	Limit []string
}

// New creates an Action with no successor limit.
func New(data *taskdata.Bundle) *Action {
	return &Action{Data: data}
}

// NewWithLimit creates an Action restricting execution to the named
// successors. Pass an empty, non-nil slice to skip every successor.
func NewWithLimit(data *taskdata.Bundle, limit []string) *Action {
	return &Action{Data: data, Limit: limit}
}

// HasLimit reports whether this action restricts its successors at all.
func (a *Action) HasLimit() bool {
	return a.Limit != nil
}

// Allows reports whether the named successor may proceed according to this
// action's limit set. When there is no limit set, every successor is
// allowed.
func (a *Action) Allows(successor string) bool {
	if a.Limit == nil {
		return true
	}
	for _, name := range a.Limit {
		if name == successor {
			return true
		}
	}
	return false
}

// Copy returns a shallow copy of the action (the data bundle itself is
// shared, matching the source's `copy.copy` semantics — callers that need
// an independent bundle should Clone it explicitly).
func (a *Action) Copy() *Action {
	clone := *a
	if a.Limit != nil {
		clone.Limit = append([]string(nil), a.Limit...)
	}
	return &clone
}
