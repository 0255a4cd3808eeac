package graph

import (
	"fmt"

	"github.com/roach88/collage/internal/ir"
)

// NodeID is the stable integer identity of a node: its topological position.
type NodeID int

// NodeKind classifies a graph node.
type NodeKind uint8

const (
	KindVar NodeKind = iota
	KindConstant
	KindCall   // call to a primitive operator
	KindCallFn // call to a user-defined function
	KindTuple
	KindProj
	KindLet
	KindRefNew
	KindRefRead
	KindRefWrite
)

var kindNames = [...]string{
	KindVar:      ir.NodeKindVar,
	KindConstant: ir.NodeKindConstant,
	KindCall:     ir.NodeKindCall,
	KindCallFn:   ir.NodeKindCallFn,
	KindTuple:    ir.NodeKindTuple,
	KindProj:     ir.NodeKindProj,
	KindLet:      ir.NodeKindLet,
	KindRefNew:   ir.NodeKindRefNew,
	KindRefRead:  ir.NodeKindRefRead,
	KindRefWrite: ir.NodeKindRefWrite,
}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", k)
}

// ParseNodeKind maps a document kind string to a NodeKind.
func ParseNodeKind(s string) (NodeKind, error) {
	for k, name := range kindNames {
		if name == s {
			return NodeKind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// Node is one vertex of the graph. Nodes are owned by their Graph and must
// not be modified.
type Node struct {
	ID        NodeID
	Name      string
	Kind      NodeKind
	Op        string // operator name, KindCall only
	Fn        string // function name, KindCallFn only
	Index     int    // tuple field, KindProj only
	Args      []NodeID
	Consumers []NodeID
	DType     string
	Shape     []int64
	Attrs     map[string]any
	Output    bool
}

// IsOpCall reports whether the node calls a primitive operator.
func (n *Node) IsOpCall() bool {
	return n.Kind == KindCall
}

// Label is a short human-readable description used in diagnostics.
func (n *Node) Label() string {
	switch n.Kind {
	case KindCall:
		return n.Op
	case KindCallFn:
		return "@" + n.Fn
	case KindProj:
		return fmt.Sprintf("proj.%d", n.Index)
	default:
		return n.Kind.String()
	}
}
