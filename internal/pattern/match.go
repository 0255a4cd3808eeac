package pattern

import (
	"github.com/roach88/collage/internal/graph"
)

// Match is one occurrence of a pattern: the node it is rooted at and every
// node the pattern captured. Wildcard operands are not captured.
type Match struct {
	Root  graph.NodeID
	Nodes graph.IndexSet
}

// Matcher finds pattern occurrences. It holds no state and is safe for
// concurrent use.
type Matcher struct{}

// NewMatcher returns a Matcher.
func NewMatcher() *Matcher { return &Matcher{} }

// MatchAll tries every node of g, in id order, as the root of p and returns
// the matches that captured at least one node. Overlapping matches are all
// returned. A pattern value reused inside p binds to a single graph node.
func (m *Matcher) MatchAll(p Pattern, g *graph.Graph) ([]Match, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	var out []Match
	for id := graph.NodeID(0); int(id) < g.Len(); id++ {
		nodes, ok := match(p, g, id, binding{})
		if !ok || nodes.IsEmpty() {
			continue
		}
		out = append(out, Match{Root: id, Nodes: nodes})
	}
	return out, nil
}

// binding tracks which graph node each pattern node matched while trying
// one root. A pattern node used in several places must match the same graph
// node everywhere.
type binding map[Pattern]graph.NodeID

func (b binding) clone() binding {
	out := make(binding, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// match returns the nodes captured by matching p at id.
func match(p Pattern, g *graph.Graph, id graph.NodeID, b binding) (graph.IndexSet, bool) {
	if prev, ok := b[p]; ok && prev != id {
		return graph.IndexSet{}, false
	}
	b[p] = id

	n := g.Node(id)
	switch p := p.(type) {
	case *WildcardPattern:
		return graph.IndexSet{}, true
	case *ConstantPattern:
		if n.Kind != graph.KindConstant {
			return graph.IndexSet{}, false
		}
		return graph.NewIndexSet(id), true
	case *CallPattern:
		if n.Kind != graph.KindCall || n.Op != p.Op {
			return graph.IndexSet{}, false
		}
		if p.AnyArgs {
			return graph.NewIndexSet(id), true
		}
		return matchOperands(p.Args, g, id, n.Args, b)
	case *TuplePattern:
		if n.Kind != graph.KindTuple {
			return graph.IndexSet{}, false
		}
		return matchOperands(p.Fields, g, id, n.Args, b)
	case *ProjPattern:
		if n.Kind != graph.KindProj || len(n.Args) != 1 {
			return graph.IndexSet{}, false
		}
		if p.Index >= 0 && n.Index != p.Index {
			return graph.IndexSet{}, false
		}
		return matchOperands([]Pattern{p.Tuple}, g, id, n.Args, b)
	case *AltPattern:
		for _, alt := range p.Alts {
			// A failed alternative must not leave bindings behind.
			try := b.clone()
			if nodes, ok := match(alt, g, id, try); ok {
				for k, v := range try {
					b[k] = v
				}
				return nodes, true
			}
		}
	}
	return graph.IndexSet{}, false
}

func matchOperands(ps []Pattern, g *graph.Graph, root graph.NodeID, args []graph.NodeID, b binding) (graph.IndexSet, bool) {
	if len(ps) != len(args) {
		return graph.IndexSet{}, false
	}
	nodes := graph.NewIndexSet(root)
	for i, sub := range ps {
		captured, ok := match(sub, g, args[i], b)
		if !ok {
			return graph.IndexSet{}, false
		}
		nodes = nodes.Union(captured)
	}
	return nodes, true
}
