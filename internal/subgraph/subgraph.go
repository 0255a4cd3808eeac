// Package subgraph derives boundary information for a set of graph nodes and
// decides whether that set is a structurally valid partition.
//
// Derivation only reads the graph. Nothing here builds expressions.
package subgraph

import (
	"fmt"
	"strings"

	"github.com/roach88/collage/internal/graph"
)

// SubGraph is a node set plus its derived boundary. It is immutable.
type SubGraph struct {
	nodes   graph.IndexSet
	inputs  graph.IndexSet
	entries graph.IndexSet
	exits   graph.IndexSet
	taps    graph.IndexSet
	depth   int
	convex  bool
	label   string
}

// Derive computes the boundary of nodes within g. Every member of nodes must
// be a valid id of g.
func Derive(g *graph.Graph, nodes graph.IndexSet) (*SubGraph, error) {
	if hi := nodes.Max(); hi >= 0 && !g.Contains(hi) {
		return nil, fmt.Errorf("node %d outside graph %q of %d nodes", hi, g.Name(), g.Len())
	}

	sg := &SubGraph{nodes: nodes.Clone(), convex: true}
	depth := make(map[graph.NodeID]int, nodes.Len())
	var labels []string

	nodes.Each(func(id graph.NodeID) {
		n := g.Node(id)
		labels = append(labels, n.Label())

		d := 1
		if len(n.Args) == 0 {
			sg.entries.Add(id)
		}
		for _, a := range n.Args {
			if nodes.Has(a) {
				d = max(d, depth[a]+1)
				continue
			}
			sg.inputs.Add(a)
			sg.entries.Add(id)
		}
		depth[id] = d
		sg.depth = max(sg.depth, d)

		inside, outside := false, false
		for _, c := range n.Consumers {
			if nodes.Has(c) {
				inside = true
			} else {
				outside = true
			}
		}
		if outside || n.Output || len(n.Consumers) == 0 {
			sg.exits.Add(id)
			if inside {
				sg.taps.Add(id)
			}
		}
	})

	sg.convex = isConvex(g, nodes)
	sg.label = strings.Join(labels, "+")
	return sg, nil
}

// isConvex reports whether no dataflow path leaves nodes and re-enters it.
// One forward pass over the id range spanned by nodes taints every outside
// node reachable from the set; a tainted arg of a member breaks convexity.
func isConvex(g *graph.Graph, nodes graph.IndexSet) bool {
	lo, hi := nodes.Min(), nodes.Max()
	if lo < 0 {
		return true
	}
	tainted := make(map[graph.NodeID]bool)
	for id := lo; id <= hi; id++ {
		n := g.Node(id)
		if nodes.Has(id) {
			for _, a := range n.Args {
				if tainted[a] {
					return false
				}
			}
			continue
		}
		for _, a := range n.Args {
			if nodes.Has(a) || tainted[a] {
				tainted[id] = true
				break
			}
		}
	}
	return true
}

// Nodes returns a copy of the member set.
func (sg *SubGraph) Nodes() graph.IndexSet { return sg.nodes.Clone() }

// Has reports whether id is a member.
func (sg *SubGraph) Has(id graph.NodeID) bool { return sg.nodes.Has(id) }

// Len returns the number of members.
func (sg *SubGraph) Len() int { return sg.nodes.Len() }

// Max returns the largest member id, or -1 when empty.
func (sg *SubGraph) Max() graph.NodeID { return sg.nodes.Max() }

// Inputs returns outside nodes that feed the set.
func (sg *SubGraph) Inputs() graph.IndexSet { return sg.inputs.Clone() }

// Entries returns members with an outside arg or no args at all.
func (sg *SubGraph) Entries() graph.IndexSet { return sg.entries.Clone() }

// Exits returns members whose value leaves the set: consumed outside, a graph
// output, or never consumed.
func (sg *SubGraph) Exits() graph.IndexSet { return sg.exits.Clone() }

// Taps returns exits that are also consumed inside the set.
func (sg *SubGraph) Taps() graph.IndexSet { return sg.taps.Clone() }

// Depth is the longest dependency chain inside the set, counted in nodes.
func (sg *SubGraph) Depth() int { return sg.depth }

// Outputs is the number of independent outputs.
func (sg *SubGraph) Outputs() int { return sg.exits.Len() }

// Convex reports whether no path leaves the set and re-enters it.
func (sg *SubGraph) Convex() bool { return sg.convex }

// Label joins the member labels, e.g. "nn.matmul+nn.relu".
func (sg *SubGraph) Label() string { return sg.label }

func (sg *SubGraph) String() string {
	return fmt.Sprintf("%s[%s]", sg.nodes, sg.label)
}
