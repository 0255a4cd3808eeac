package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collage/internal/partition"
	"github.com/roach88/collage/internal/pattern"
	"github.com/roach88/collage/internal/subgraph"
)

func TestAnalyzeSpecs_Clean(t *testing.T) {
	cuda := partition.MustSpec("cuda",
		partition.Target{Kind: "cuda", Attrs: map[string]string{"compiler": "nvcc"}},
		partition.NewPrimitiveRule("nvcc", partition.NewOpKindRule("ew")))
	host := partition.MustSpec("cpu", partition.Target{Kind: "cpu"}, partition.NewHostRule("host"))

	assert.Empty(t, AnalyzeSpecs([]*partition.Spec{cuda, host}))
}

func TestAnalyzeSpecs_NoSpecs(t *testing.T) {
	warnings := AnalyzeSpecs(nil)
	require.NotNil(t, warnings)
	assert.Empty(t, warnings)
}

func TestAnalyzeSpecs_Shapes(t *testing.T) {
	inner := partition.NewCompositeRule("inner", partition.NewPatternRule("relu", pattern.CallAny("nn.relu"), nil))
	root := partition.NewPrimitiveRule("prim",
		partition.NewValidOnlyRule("outer_valid",
			partition.NewValidOnlyRule("inner_valid",
				partition.NewUnionRule("ops",
					partition.NewCompositeRule("outer", inner),
					partition.NewUnionRule("empty"),
				),
				subgraph.Config{MaxDepth: 2}),
			subgraph.Config{MaxDepth: 4}))
	spec := partition.MustSpec("gpu", partition.Target{Kind: "gpu"}, root)

	warnings := AnalyzeSpecs([]*partition.Spec{spec})
	require.Len(t, warnings, 5)

	assert.Equal(t, "warning", warnings[0].Level)
	assert.Equal(t, []string{"prim"}, warnings[0].Path)
	assert.Contains(t, warnings[0].Message, "compiler")

	assert.Equal(t, []string{"prim", "outer_valid"}, warnings[1].Path)
	assert.Contains(t, warnings[1].Message, "directly wraps")

	assert.Equal(t, []string{"prim", "outer_valid", "inner_valid", "ops", "outer", "inner"}, warnings[2].Path)
	assert.Contains(t, warnings[2].Message, "overridden")

	assert.Equal(t, []string{"prim", "outer_valid", "inner_valid", "ops", "empty"}, warnings[3].Path)
	assert.Contains(t, warnings[3].Message, "no sub-rules")

	assert.Equal(t, "info", warnings[4].Level)
	assert.Empty(t, warnings[4].Spec)
	assert.Contains(t, warnings[4].Message, "host rule")

	for _, w := range warnings[:4] {
		assert.Equal(t, "gpu", w.Spec)
	}
}
