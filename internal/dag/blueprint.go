package dag

import (
	"fmt"
	"sync/atomic"
)

// Blueprint is the immutable, user-authored definition of a DAG: its name,
// whether it starts automatically when its workflow runs, and its schema.
// A Blueprint is deep-copied into a runtime copy every time it is
// scheduled, so concurrent copies never alias each other's mutable runtime
// state.
type Blueprint struct {
	name      string
	autoStart bool
	schema    Schema

	copyCounter *atomic.Int64
}

// NewBlueprint creates a DAG blueprint. autoStart controls whether the
// workflow driver starts this DAG automatically when the workflow runs.
func NewBlueprint(name string, autoStart bool, schema Schema) *Blueprint {
	return &Blueprint{
		name:        name,
		autoStart:   autoStart,
		schema:      schema,
		copyCounter: new(atomic.Int64),
	}
}

// Name returns the blueprint's declared name.
func (b *Blueprint) Name() string {
	return b.name
}

// AutoStart reports whether the DAG should be started automatically.
func (b *Blueprint) AutoStart() bool {
	return b.autoStart
}

// Schema returns the blueprint's raw schema.
func (b *Blueprint) Schema() Schema {
	return b.schema
}

// Copy produces a deep, independent copy of the blueprint suitable for one
// scheduled run. Its runtime name is of the form "<base>:<n>", with n a
// monotonically increasing counter scoped to this blueprint — the first
// copy is "<base>:1".
func (b *Blueprint) Copy() *Blueprint {
	n := b.copyCounter.Add(1)
	return &Blueprint{
		name:        fmt.Sprintf("%s:%d", b.name, n),
		autoStart:   b.autoStart,
		schema:      cloneSchema(b.schema),
		copyCounter: new(atomic.Int64),
	}
}

func cloneSchema(schema Schema) Schema {
	clone := make(Schema, len(schema))
	for i, entry := range schema {
		clone[i] = Entry{
			Parent:   entry.Parent,
			Children: append([]ChildEdge(nil), entry.Children...),
			IsNull:   entry.IsNull,
		}
	}
	return clone
}
