package subgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collage/internal/graph"
)

// tapDiamond builds x -> a -> {b, c} -> d with b also consumed by e.
func tapDiamond() *graph.Graph {
	b := graph.NewBuilder("diamond")
	x := b.Var("x")
	a := b.Call("a", "nn.relu", x)
	bb := b.Call("b", "exp", a)
	c := b.Call("c", "tanh", a)
	d := b.Call("d", "add", bb, c)
	b.Call("e", "negative", bb)
	b.Output(d)
	return b.MustBuild()
}

func TestDeriveBoundary(t *testing.T) {
	g := tapDiamond()
	sg, err := Derive(g, g.Set("a", "b", "c", "d"))
	require.NoError(t, err)

	assert.True(t, g.Set("x").Equal(sg.Inputs()))
	assert.True(t, g.Set("a").Equal(sg.Entries()))
	assert.True(t, g.Set("b", "d").Equal(sg.Exits()))
	assert.True(t, g.Set("b").Equal(sg.Taps()))
	assert.Equal(t, 3, sg.Depth())
	assert.Equal(t, 2, sg.Outputs())
	assert.True(t, sg.Convex())
	assert.Equal(t, "nn.relu+exp+tanh+add", sg.Label())
}

func TestDeriveSingleton(t *testing.T) {
	g := tapDiamond()
	sg, err := Derive(g, g.Set("x"))
	require.NoError(t, err)

	assert.Equal(t, 1, sg.Len())
	assert.Equal(t, 1, sg.Depth())
	assert.True(t, g.Set("x").Equal(sg.Entries()))
	assert.True(t, g.Set("x").Equal(sg.Exits()))
	assert.True(t, sg.Taps().IsEmpty())
	assert.Equal(t, "var", sg.Label())
}

func TestDeriveNonConvex(t *testing.T) {
	g := tapDiamond()
	// a -> b -> d leaves {a, d} through b and re-enters.
	sg, err := Derive(g, g.Set("a", "d"))
	require.NoError(t, err)
	assert.False(t, sg.Convex())
	assert.False(t, IsValid(sg, Config{AllowTaps: true}))
}

func TestDeriveOutOfRange(t *testing.T) {
	g := tapDiamond()
	_, err := Derive(g, graph.NewIndexSet(0, 99))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node 99 outside graph")
}

func TestDeriveDoesNotAliasInput(t *testing.T) {
	g := tapDiamond()
	set := g.Set("a")
	sg, err := Derive(g, set)
	require.NoError(t, err)

	set.Add(g.IDs("b")[0])
	assert.Equal(t, 1, sg.Len())
}

func TestIsValidRules(t *testing.T) {
	g := tapDiamond()
	diamond, err := Derive(g, g.Set("a", "b", "c", "d"))
	require.NoError(t, err)
	chain, err := Derive(g, g.Set("c", "d"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		sg    *SubGraph
		cfg   Config
		valid bool
	}{
		{"taps forbidden", diamond, Config{}, false},
		{"taps allowed", diamond, Config{AllowTaps: true}, true},
		{"depth limit", diamond, Config{AllowTaps: true, MaxDepth: 2}, false},
		{"exit limit", diamond, Config{AllowTaps: true, MaxExits: 1}, false},
		{"chain within limits", chain, Config{MaxDepth: 2, MaxExits: 2}, true},
		{"nil", nil, Config{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValid(tt.sg, tt.cfg))
		})
	}
}

func TestIsValidEmptySet(t *testing.T) {
	sg, err := Derive(tapDiamond(), graph.IndexSet{})
	require.NoError(t, err)
	assert.False(t, IsValid(sg, Config{AllowTaps: true}))
}

func TestCheckerRejectsNegativeConfig(t *testing.T) {
	g := tapDiamond()
	sg, err := Derive(g, g.Set("a"))
	require.NoError(t, err)

	_, err = NewChecker().IsValid(sg, Config{MaxDepth: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	ok, err := NewChecker().IsValid(sg, Config{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConfigString(t *testing.T) {
	assert.Equal(t, "{max_depth=4, max_exits=1, allow_taps=false}", Config{MaxDepth: 4, MaxExits: 1}.String())
}
