package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/collage/internal/compiler"
	"github.com/roach88/collage/internal/graph"
	"github.com/roach88/collage/internal/ir"
	"github.com/roach88/collage/internal/ops"
	"github.com/roach88/collage/internal/partition"
	"github.com/roach88/collage/internal/store"
	"github.com/roach88/collage/internal/testutil"
)

// Harness is the scenario execution engine.
// It enumerates with a deterministic pass ID generator and a fresh store.
type Harness struct {
	store  *store.Store
	enum   *partition.Enumerator
	graph  *graph.Graph
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load the graph (file or inline)
// 2. Compile the specs directory and apply operator overrides
// 3. Enumerate each selected spec and record the pass
// 4. Read the recorded candidates back
// 5. Evaluate assertions against the read-back candidates
func Run(scenario *Scenario) (*Result, error) {
	g, err := loadGraph(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	specs, overrides, err := compiler.CompileDir(scenario.Specs)
	if err != nil {
		return nil, fmt.Errorf("failed to compile specs: %w", err)
	}
	specs, err = selectSpecs(specs, scenario.Spec)
	if err != nil {
		return nil, err
	}

	for op, name := range scenario.Ops {
		k, err := ops.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("ops[%s]: %w", op, err)
		}
		overrides[op] = k
	}

	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.Name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store: st,
		enum: partition.NewEnumerator(
			partition.WithOps(ops.Default().With(overrides)),
			partition.WithParallelism(scenario.Parallelism),
		),
		graph:  g,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()
	result := NewResult()
	result.Nodes = g.Len()

	for _, spec := range specs {
		if err := h.runSpec(ctx, spec, result); err != nil {
			return nil, fmt.Errorf("spec %s: %w", spec.Name(), err)
		}
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

func (h *Harness) runSpec(ctx context.Context, spec *partition.Spec, result *Result) error {
	cands, err := h.enum.Enumerate(ctx, h.graph, spec)
	if err != nil {
		return fmt.Errorf("enumerate: %w", err)
	}

	hash, err := h.graph.Hash()
	if err != nil {
		return fmt.Errorf("hash graph: %w", err)
	}

	pass, err := h.store.WritePass(ctx, store.Pass{
		Spec:      spec.Name(),
		Target:    spec.Target().Kind,
		GraphName: h.graph.Name(),
		GraphHash: hash,
	}, cands)
	if err != nil {
		return err
	}
	h.logger.Debug("pass recorded", "pass", pass.ID, "spec", pass.Spec, "candidates", pass.Count)

	stored, err := h.store.ReadCandidates(ctx, pass.ID)
	if err != nil {
		return err
	}
	for _, c := range stored {
		result.Candidates = append(result.Candidates, CandidateView{
			Spec:   spec.Name(),
			ID:     c.ID,
			Rule:   c.Rule,
			Names:  h.names(c.Nodes),
			Record: c.CandidateRecord,
		})
	}
	result.Passes = append(result.Passes, pass)
	return nil
}

func (h *Harness) names(nodes []int) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = h.graph.Node(graph.NodeID(n)).Name
	}
	return out
}

func loadGraph(s *Scenario) (*graph.Graph, error) {
	if s.Graph != "" {
		return graph.Load(s.Graph)
	}
	return graph.FromDoc(ir.GraphDoc{
		Name:    s.Name,
		Nodes:   s.Nodes,
		Outputs: s.Outputs,
	})
}

func selectSpecs(specs []*partition.Spec, name string) ([]*partition.Spec, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no specs found")
	}
	if name == "" {
		return specs, nil
	}
	for _, s := range specs {
		if s.Name() == name {
			return []*partition.Spec{s}, nil
		}
	}
	return nil, fmt.Errorf("spec %q not found", name)
}
