package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/collage/internal/graph"
	"github.com/roach88/collage/internal/partition"
	"github.com/roach88/collage/internal/testutil"
)

// createTestStore creates a new store in a temp dir with fixed pass IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewFixedIDGenerator("pass")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// primitiveSpec wraps every fusable op call in a primitive for "nvcc".
func primitiveSpec() *partition.Spec {
	return partition.MustSpec("cuda",
		partition.Target{Kind: "cuda", Attrs: map[string]string{partition.CompilerAttr: "nvcc"}},
		partition.NewPrimitiveRule("prim", partition.NewOpKindRule("ew")))
}

// enumerateTest runs spec over g and returns the candidates with a pass
// header describing the run.
func enumerateTest(t *testing.T, g *graph.Graph, spec *partition.Spec) (Pass, []partition.Candidate) {
	t.Helper()
	cands, err := partition.Enumerate(context.Background(), g, spec)
	if err != nil {
		t.Fatalf("Enumerate() failed: %v", err)
	}
	hash, err := g.Hash()
	if err != nil {
		t.Fatalf("Hash() failed: %v", err)
	}
	return Pass{
		Spec:      spec.Name(),
		Target:    spec.Target().Kind,
		GraphName: g.Name(),
		GraphHash: hash,
	}, cands
}
