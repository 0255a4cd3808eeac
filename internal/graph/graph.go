package graph

import (
	"github.com/roach88/collage/internal/ir"
)

// Graph is an immutable, topologically ordered view of a program.
type Graph struct {
	name   string
	nodes  []*Node
	byName map[string]NodeID
	doc    ir.GraphDoc
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// Len returns the number of nodes. Valid NodeIDs are [0, Len()).
func (g *Graph) Len() int { return len(g.nodes) }

// Contains reports whether id is a valid node identity for this graph.
func (g *Graph) Contains(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Node returns the node with the given id. It panics if id is out of range.
func (g *Graph) Node(id NodeID) *Node { return g.nodes[id] }

// Nodes returns all nodes in topological order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Lookup resolves a node name to its id.
func (g *Graph) Lookup(name string) (NodeID, bool) {
	id, ok := g.byName[name]
	return id, ok
}

// IDs resolves node names to ids, panicking on unknown names.
// Use only in tests or with names taken from the graph itself.
func (g *Graph) IDs(names ...string) []NodeID {
	out := make([]NodeID, len(names))
	for i, n := range names {
		id, ok := g.byName[n]
		if !ok {
			panic("graph: unknown node " + n)
		}
		out[i] = id
	}
	return out
}

// Set builds an IndexSet from node names. See IDs.
func (g *Graph) Set(names ...string) IndexSet {
	return NewIndexSet(g.IDs(names...)...)
}

// Names maps an IndexSet back to node names in ascending id order.
func (g *Graph) Names(s IndexSet) []string {
	out := make([]string, 0, s.Len())
	s.Each(func(id NodeID) {
		if g.Contains(id) {
			out = append(out, g.nodes[id].Name)
		}
	})
	return out
}

// All returns the set of every node.
func (g *Graph) All() IndexSet {
	var s IndexSet
	for i := range g.nodes {
		s.Add(NodeID(i))
	}
	return s
}

// Doc returns the document the graph was built from.
func (g *Graph) Doc() ir.GraphDoc { return g.doc }

// Hash returns the structural content hash of the graph.
func (g *Graph) Hash() (string, error) {
	return ir.GraphHash(g.doc)
}
