package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collage/internal/partition"
	"github.com/roach88/collage/internal/testutil"
)

func TestListPasses_Empty(t *testing.T) {
	s := createTestStore(t)

	passes, err := s.ListPasses(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, passes)
	assert.Empty(t, passes)
}

func TestListPasses_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, g := range []string{"b", "a", "c"} {
		_, err := s.WritePass(ctx, Pass{Spec: "s", Target: "cpu", GraphName: g, GraphHash: g}, nil)
		require.NoError(t, err)
	}

	passes, err := s.ListPasses(ctx)
	require.NoError(t, err)
	require.Len(t, passes, 3)

	var names []string
	for i, p := range passes {
		assert.Equal(t, int64(i+1), p.Seq)
		names = append(names, p.GraphName)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
}

func TestReadPass(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p, cands := enumerateTest(t, testutil.SingleAdd(), primitiveSpec())

	stored, err := s.WritePass(ctx, p, cands)
	require.NoError(t, err)

	got, err := s.ReadPass(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, got)
	assert.Equal(t, "cuda", got.Target)
	assert.Equal(t, "cuda", got.Spec)
}

func TestReadPass_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadPass(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestLatestPass(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.LatestPass(ctx)
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	for _, name := range []string{"first", "second"} {
		_, err := s.WritePass(ctx, Pass{Spec: name, Target: "cpu", GraphName: "g", GraphHash: "h"}, nil)
		require.NoError(t, err)
	}

	latest, err := s.LatestPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", latest.Spec)
}

func TestReadCandidates_UnknownPass(t *testing.T) {
	s := createTestStore(t)

	cands, err := s.ReadCandidates(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestFindCandidate_AcrossPasses(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	g := testutil.SingleAdd()

	p, cands := enumerateTest(t, g, primitiveSpec())
	first, err := s.WritePass(ctx, p, cands)
	require.NoError(t, err)
	second, err := s.WritePass(ctx, p, cands)
	require.NoError(t, err)

	other := partition.MustSpec("cpu", partition.Target{Kind: "cpu"}, partition.NewHostRule("host"))
	op, ocands := enumerateTest(t, g, other)
	_, err = s.WritePass(ctx, op, ocands)
	require.NoError(t, err)

	id, err := cands[0].ID()
	require.NoError(t, err)

	passes, err := s.FindCandidate(ctx, id)
	require.NoError(t, err)
	require.Len(t, passes, 2)
	assert.Equal(t, first.ID, passes[0].ID)
	assert.Equal(t, second.ID, passes[1].ID)
}

func TestUnmarshalArrays_Empty(t *testing.T) {
	ss, err := unmarshalStrings("")
	require.NoError(t, err)
	assert.Equal(t, []string{}, ss)

	ns, err := unmarshalInts("")
	require.NoError(t, err)
	assert.Equal(t, []int{}, ns)

	_, err = unmarshalInts("[1,")
	assert.Error(t, err)
}
