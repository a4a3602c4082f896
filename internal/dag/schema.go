// Package dag models a workflow's DAG blueprints: the declared schema of
// parent/child task relationships, its canonical form, and the acyclic
// graph derived from it.
package dag

// ChildEdge is one child of a parent task in a DAG schema declaration,
// together with the slot label assigned to the edge ("" for no labelled
// routing).
type ChildEdge struct {
	Child string
	Slot  string
}

// Entry is one parent's declaration in a DAG schema: the parent task name
// and its children. A nil/empty Children with IsNull set represents an
// isolated node — the edge exists in name only and the node becomes a
// graph vertex with no outgoing edges.
type Entry struct {
	Parent   string
	Children []ChildEdge
	IsNull   bool
}

// Schema is a DAG's raw, user-authored routing declaration: an ordered
// list of parent entries. Order is preserved (rather than using a map) so
// that graph construction and task dispatch order are deterministic,
// matching the breadth-first, insertion-ordered traversal the executor
// performs.
type Schema []Entry

// Children builds an Entry from an ordered list of child names, none of
// which carry a slot label.
func Children(parent string, names ...string) Entry {
	edges := make([]ChildEdge, 0, len(names))
	for _, n := range names {
		edges = append(edges, ChildEdge{Child: n})
	}
	return Entry{Parent: parent, Children: edges}
}

// Slot builds an Entry for a single child with an assigned slot label.
func Slot(parent, child, slot string) Entry {
	return Entry{Parent: parent, Children: []ChildEdge{{Child: child, Slot: slot}}}
}

// SlotEdges builds an Entry from an explicit, ordered set of child/slot
// pairs.
func SlotEdges(parent string, edges ...ChildEdge) Entry {
	return Entry{Parent: parent, Children: edges}
}

// Isolated builds an Entry representing a parent with no children (the
// schema's null child-set case).
func Isolated(parent string) Entry {
	return Entry{Parent: parent, IsNull: true}
}

// canonicalEdge is one canonicalised (parent, child, slot) triple, where an
// empty slot means the edge carries no labelled routing.
type canonicalEdge struct {
	parent string
	child  string
	slot   string
}

// canonicalize normalises the schema into canonical edges, in declaration
// order, plus the set of parents that have no children (isolated nodes,
// which must still become vertices in the graph). An empty-string slot is
// treated identically to an absent one, per the design's schema
// canonicalisation rule.
func canonicalize(schema Schema) ([]canonicalEdge, []string) {
	var edges []canonicalEdge
	var isolated []string

	for _, entry := range schema {
		if entry.IsNull || len(entry.Children) == 0 {
			isolated = append(isolated, entry.Parent)
			continue
		}
		for _, e := range entry.Children {
			edges = append(edges, canonicalEdge{parent: entry.Parent, child: e.Child, slot: e.Slot})
		}
	}

	return edges, isolated
}
