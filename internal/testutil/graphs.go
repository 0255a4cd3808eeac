// Package testutil provides graph fixtures and deterministic generators for
// tests across the collage packages.
package testutil

import (
	"github.com/roach88/collage/internal/graph"
)

// SingleAdd is one elementwise add over two variables.
//
//	x, y -> a = add(x, y)
func SingleAdd() *graph.Graph {
	b := graph.NewBuilder("single_add")
	b.Call("a", "add", b.Var("x"), b.Var("y"))
	b.Output("a")
	return b.MustBuild()
}

// MatmulReluWithAdd is a matmul feeding a relu, plus an unrelated add.
//
//	x, w -> mm = nn.matmul(x, w) -> r = nn.relu(mm)
//	p, q -> a = add(p, q)
func MatmulReluWithAdd() *graph.Graph {
	b := graph.NewBuilder("matmul_relu_add")
	mm := b.Call("mm", "nn.matmul", b.Var("x"), b.Constant("w"))
	r := b.Call("r", "nn.relu", mm)
	a := b.Call("a", "add", b.Var("p"), b.Var("q"))
	b.Output(r, a)
	return b.MustBuild()
}

// TapDiamond is a four node diamond whose interior node b is also consumed
// outside the diamond.
//
//	x -> a -> {b, c} -> d ; b -> e
func TapDiamond() *graph.Graph {
	b := graph.NewBuilder("tap_diamond")
	a := b.Call("a", "nn.relu", b.Var("x"))
	bb := b.Call("b", "exp", a)
	c := b.Call("c", "tanh", a)
	d := b.Call("d", "add", bb, c)
	e := b.Call("e", "negative", bb)
	b.Output(d, e)
	return b.MustBuild()
}

// LetAndCall is a let-binding consumed by a fusable call.
//
//	l = let ; a = add(l, l)
func LetAndCall() *graph.Graph {
	b := graph.NewBuilder("let_and_call")
	l := b.Let("l")
	b.Call("a", "add", l, l)
	b.Output("a")
	return b.MustBuild()
}

// Mixed exercises every node kind: variables, constants, fusable and opaque
// operators, function calls, tuples, projections, lets and references.
func Mixed() *graph.Graph {
	b := graph.NewBuilder("mixed")
	x := b.Var("x")
	b.Typed("float16", 1, 16)
	w := b.Constant("w")
	b.Typed("float16", 16, 16)
	d := b.Call("d", "nn.dense", x, w)
	b.Typed("float16", 1, 16)
	r := b.Call("r", "nn.relu", d)
	b.Typed("float16", 1, 16)
	s := b.Call("s", "nn.softmax", r)
	f := b.CallFn("f", "helper", s)
	t := b.Tuple("t", f, r)
	p := b.Proj("p", t, 0)
	ref := b.Node(refNode("ref", "ref_new", p))
	rd := b.Node(refNode("rd", "ref_read", ref))
	l := b.Let("l", rd)
	b.Call("out", "add", l, r)
	b.Output("out")
	return b.MustBuild()
}

// Chain is n exp calls in sequence over one variable.
func Chain(n int) *graph.Graph {
	b := graph.NewBuilder("chain")
	prev := b.Var("x")
	for i := 0; i < n; i++ {
		prev = b.Call(chainName(i), "exp", prev)
	}
	b.Output(prev)
	return b.MustBuild()
}
