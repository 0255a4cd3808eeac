package graph

import "github.com/roach88/collage/internal/ir"

// Builder assembles a graph document node by node. Every method returns the
// node name so calls can be nested as args.
//
//	b := graph.NewBuilder("g")
//	x := b.Var("x")
//	b.Call("y", "nn.relu", x)
//	g, err := b.Build()
type Builder struct {
	doc ir.GraphDoc
}

// NewBuilder starts an empty graph.
func NewBuilder(name string) *Builder {
	return &Builder{doc: ir.GraphDoc{Name: name}}
}

func (b *Builder) add(nd ir.NodeDoc) string {
	b.doc.Nodes = append(b.doc.Nodes, nd)
	return nd.Name
}

// Var adds a free variable.
func (b *Builder) Var(name string) string {
	return b.add(ir.NodeDoc{Name: name, Kind: ir.NodeKindVar})
}

// Constant adds a constant.
func (b *Builder) Constant(name string) string {
	return b.add(ir.NodeDoc{Name: name, Kind: ir.NodeKindConstant})
}

// Call adds a primitive operator call.
func (b *Builder) Call(name, op string, args ...string) string {
	return b.add(ir.NodeDoc{Name: name, Kind: ir.NodeKindCall, Op: op, Args: args})
}

// CallFn adds a call to a user-defined function.
func (b *Builder) CallFn(name, fn string, args ...string) string {
	return b.add(ir.NodeDoc{Name: name, Kind: ir.NodeKindCallFn, Fn: fn, Args: args})
}

// Tuple adds a tuple construction.
func (b *Builder) Tuple(name string, fields ...string) string {
	return b.add(ir.NodeDoc{Name: name, Kind: ir.NodeKindTuple, Args: fields})
}

// Proj adds a tuple projection.
func (b *Builder) Proj(name, tuple string, index int) string {
	return b.add(ir.NodeDoc{Name: name, Kind: ir.NodeKindProj, Args: []string{tuple}, Index: index})
}

// Let adds a let-binding.
func (b *Builder) Let(name string, args ...string) string {
	return b.add(ir.NodeDoc{Name: name, Kind: ir.NodeKindLet, Args: args})
}

// Node adds an arbitrary node document.
func (b *Builder) Node(nd ir.NodeDoc) string {
	return b.add(nd)
}

// Typed sets dtype and shape on the most recently added node.
func (b *Builder) Typed(dtype string, shape ...int64) *Builder {
	if n := len(b.doc.Nodes); n > 0 {
		b.doc.Nodes[n-1].DType = dtype
		b.doc.Nodes[n-1].Shape = shape
	}
	return b
}

// Attr sets an attribute on the most recently added node.
func (b *Builder) Attr(key string, value any) *Builder {
	if n := len(b.doc.Nodes); n > 0 {
		nd := &b.doc.Nodes[n-1]
		if nd.Attrs == nil {
			nd.Attrs = make(map[string]any)
		}
		nd.Attrs[key] = value
	}
	return b
}

// Output marks nodes as graph outputs.
func (b *Builder) Output(names ...string) *Builder {
	b.doc.Outputs = append(b.doc.Outputs, names...)
	return b
}

// Build validates and returns the graph.
func (b *Builder) Build() (*Graph, error) {
	return FromDoc(b.doc)
}

// MustBuild is like Build but panics on error.
// Use only in tests or when inputs are known to be valid.
func (b *Builder) MustBuild() *Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}
