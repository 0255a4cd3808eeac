// Package predicate compiles pattern-rule predicates written as CEL
// expressions.
//
// A predicate sees the root node of a match through these variables:
//
//	op          string               operator name ("" unless a call)
//	fn          string               function name ("" unless a function call)
//	kind        string               node kind, e.g. "call", "tuple"
//	dtype       string               result dtype
//	shape       list(int)            result shape
//	attrs       map(string, dyn)     node attributes
//	arity       int                  number of args
//	arg_dtypes  list(string)         dtypes of the args, in order
//
// Example: dtype == "float16" && arity == 2 && attrs.units % 8 == 0
package predicate

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/roach88/collage/internal/graph"
)

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

func newEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable("op", cel.StringType),
			cel.Variable("fn", cel.StringType),
			cel.Variable("kind", cel.StringType),
			cel.Variable("dtype", cel.StringType),
			cel.Variable("shape", cel.ListType(cel.IntType)),
			cel.Variable("attrs", cel.MapType(cel.StringType, cel.DynType)),
			cel.Variable("arity", cel.IntType),
			cel.Variable("arg_dtypes", cel.ListType(cel.StringType)),
		)
	})
	return env, envErr
}

// Predicate is a compiled CEL expression over a match root. It is immutable
// and safe for concurrent use.
type Predicate struct {
	expr string
	prg  cel.Program
}

// Compile parses, type-checks and plans expr. The expression must produce a
// bool, or a dyn value that is checked at evaluation.
func Compile(expr string) (*Predicate, error) {
	e, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("creating CEL environment: %w", err)
	}

	parsed, iss := e.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("parsing predicate %q: %w", expr, iss.Err())
	}

	checked, iss := e.Check(parsed)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("checking predicate %q: %w", expr, iss.Err())
	}
	out := checked.OutputType()
	if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("predicate %q has type %s, want bool", expr, out)
	}

	prg, err := e.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("generating program for %q: %w", expr, err)
	}
	return &Predicate{expr: expr, prg: prg}, nil
}

// MustCompile is like Compile but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCompile(expr string) *Predicate {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Holds evaluates the predicate against node root of g.
func (p *Predicate) Holds(g *graph.Graph, root graph.NodeID) (bool, error) {
	val, _, err := p.prg.Eval(Activation(g, root))
	if err != nil {
		return false, fmt.Errorf("evaluating predicate %q: %w", p.expr, err)
	}
	b, ok := val.Value().(bool)
	if !ok {
		return false, fmt.Errorf("predicate %q produced %T, want bool", p.expr, val.Value())
	}
	return b, nil
}

// String returns the source expression.
func (p *Predicate) String() string { return p.expr }

// Activation builds the CEL variable bindings for a node.
func Activation(g *graph.Graph, root graph.NodeID) map[string]any {
	n := g.Node(root)

	shape := n.Shape
	if shape == nil {
		shape = []int64{}
	}
	attrs := n.Attrs
	if attrs == nil {
		attrs = map[string]any{}
	}
	argDTypes := make([]string, len(n.Args))
	for i, a := range n.Args {
		argDTypes[i] = g.Node(a).DType
	}

	return map[string]any{
		"op":         n.Op,
		"fn":         n.Fn,
		"kind":       n.Kind.String(),
		"dtype":      n.DType,
		"shape":      shape,
		"attrs":      attrs,
		"arity":      int64(len(n.Args)),
		"arg_dtypes": argDTypes,
	}
}
