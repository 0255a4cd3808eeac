package partition

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/collage/internal/graph"
	"github.com/roach88/collage/internal/ops"
	"github.com/roach88/collage/internal/pattern"
	"github.com/roach88/collage/internal/subgraph"
)

// Matcher is the pattern match service.
type Matcher interface {
	MatchAll(p pattern.Pattern, g *graph.Graph) ([]pattern.Match, error)
}

// OpMetadata is the operator metadata service.
type OpMetadata interface {
	FusionKind(op string) ops.Kind
}

// ValidityChecker is the sub-graph validity service.
type ValidityChecker interface {
	IsValid(sg *subgraph.SubGraph, cfg subgraph.Config) (bool, error)
}

// Enumerator runs rule trees over graphs. Its services are shared and
// read-only, so one Enumerator may serve concurrent passes.
type Enumerator struct {
	ops         OpMetadata
	matcher     Matcher
	checker     ValidityChecker
	parallelism int
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithOps sets the operator metadata service.
func WithOps(o OpMetadata) Option {
	return func(e *Enumerator) { e.ops = o }
}

// WithMatcher sets the pattern match service.
func WithMatcher(m Matcher) Option {
	return func(e *Enumerator) { e.matcher = m }
}

// WithChecker sets the validity service.
func WithChecker(c ValidityChecker) Option {
	return func(e *Enumerator) { e.checker = c }
}

// WithParallelism lets union siblings run on up to n goroutines. Results are
// merged in declaration order, so output does not depend on n. n <= 1 keeps
// enumeration sequential.
func WithParallelism(n int) Option {
	return func(e *Enumerator) { e.parallelism = n }
}

// NewEnumerator returns an Enumerator with the default services.
func NewEnumerator(opts ...Option) *Enumerator {
	e := &Enumerator{
		ops:         ops.Default(),
		matcher:     pattern.NewMatcher(),
		checker:     subgraph.NewChecker(),
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	_ = initMetrics()
	return e
}

// Enumerate runs one pass of spec's rule tree over g. It returns either every
// candidate in deterministic order or an error; never a partial set.
//
// ctx carries tracing only. Enumeration does no I/O and is not cancellable.
func (e *Enumerator) Enumerate(ctx context.Context, g *graph.Graph, spec *Spec) ([]Candidate, error) {
	ctx, span := tracer.Start(ctx, "partition.Enumerate",
		trace.WithAttributes(
			attribute.String("spec", spec.Name()),
			attribute.String("graph", g.Name()),
			attribute.Int("graph.nodes", g.Len()),
		),
	)
	defer span.End()

	cands, err := e.enumerate(ctx, g, spec.Rule(), spec)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if passesTotal != nil {
		passesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("candidates", len(cands)))
	slog.Debug("enumeration complete",
		"spec", spec.Name(),
		"graph", g.Name(),
		"nodes", g.Len(),
		"candidates", len(cands))
	return cands, nil
}

// Enumerate runs spec over g with a default Enumerator.
func Enumerate(ctx context.Context, g *graph.Graph, spec *Spec) ([]Candidate, error) {
	return NewEnumerator().Enumerate(ctx, g, spec)
}

func (e *Enumerator) enumerate(ctx context.Context, g *graph.Graph, r Rule, spec *Spec) ([]Candidate, error) {
	ctx, span := tracer.Start(ctx, "partition.rule",
		trace.WithAttributes(
			attribute.String("rule.name", r.RuleName()),
			attribute.String("rule.kind", string(r.Kind())),
		),
	)
	defer span.End()

	var (
		cands []Candidate
		err   error
	)
	switch r := r.(type) {
	case *PatternRule:
		cands, err = e.enumeratePattern(g, r)
	case *OpKindRule:
		cands, err = e.enumerateSingletons(g, r.Name, e.isFusableCall)
	case *HostRule:
		// Complement of OpKindRule, so non-fusable operator calls fall back to host too.
		cands, err = e.enumerateSingletons(g, r.Name, func(n *graph.Node) bool { return !e.isFusableCall(n) })
	case *CompositeRule:
		cands, err = e.enumerateComposite(ctx, g, r, spec)
	case *PrimitiveRule:
		cands, err = e.enumeratePrimitive(ctx, g, r, spec)
	case *UnionRule:
		cands, err = e.enumerateUnion(ctx, g, r, spec)
	case *ValidOnlyRule:
		cands, err = e.enumerateValidOnly(ctx, g, r, spec)
	default:
		err = &RuleError{Code: ErrCodeUnknownRule, Rule: r.RuleName(), Message: fmt.Sprintf("unsupported rule type %T", r)}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("candidates", len(cands)))
	if candidatesTotal != nil {
		candidatesTotal.Add(ctx, int64(len(cands)), metric.WithAttributes(attribute.String("rule.kind", string(r.Kind()))))
	}
	slog.Debug("rule enumerated", "rule", r.RuleName(), "kind", r.Kind(), "candidates", len(cands))
	return cands, nil
}

func (e *Enumerator) isFusableCall(n *graph.Node) bool {
	return n.IsOpCall() && e.ops.FusionKind(n.Op).Fusable()
}

func (e *Enumerator) enumeratePattern(g *graph.Graph, r *PatternRule) ([]Candidate, error) {
	matches, err := e.matcher.MatchAll(r.Pattern, g)
	if err != nil {
		return nil, fmt.Errorf("pattern rule %q: %w", r.Name, err)
	}

	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		if hi := m.Nodes.Max(); !g.Contains(m.Root) || (hi >= 0 && !g.Contains(hi)) {
			return nil, &RuleError{
				Code:       ErrCodeNodeOutOfRange,
				Rule:       r.Name,
				Provenance: []string{r.Name},
				Message:    fmt.Sprintf("match rooted at %d with nodes %s outside graph of %d nodes", m.Root, m.Nodes, g.Len()),
			}
		}
		if r.Predicate != nil {
			ok, err := r.Predicate.Holds(g, m.Root)
			if err != nil {
				return nil, fmt.Errorf("pattern rule %q: %w", r.Name, err)
			}
			if !ok {
				continue
			}
		}
		sg, err := subgraph.Derive(g, m.Nodes)
		if err != nil {
			return nil, fmt.Errorf("pattern rule %q: %w", r.Name, err)
		}
		out = append(out, Candidate{SubGraph: sg, Provenance: []string{r.Name}})
	}
	return out, nil
}

func (e *Enumerator) enumerateSingletons(g *graph.Graph, name string, keep func(*graph.Node) bool) ([]Candidate, error) {
	var out []Candidate
	for _, n := range g.Nodes() {
		if !keep(n) {
			continue
		}
		sg, err := subgraph.Derive(g, graph.NewIndexSet(n.ID))
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		out = append(out, Candidate{SubGraph: sg, Provenance: []string{name}})
	}
	return out, nil
}

// sub runs a combinator's sub-rule and checks its candidates lie in g.
func (e *Enumerator) sub(ctx context.Context, g *graph.Graph, parent string, r Rule, spec *Spec) ([]Candidate, error) {
	cands, err := e.enumerate(ctx, g, r, spec)
	if err != nil {
		return nil, err
	}
	if err := checkRange(g, parent, cands); err != nil {
		return nil, err
	}
	return cands, nil
}

func checkRange(g *graph.Graph, parent string, cands []Candidate) error {
	for _, c := range cands {
		if c.SubGraph == nil {
			return &RuleError{Code: ErrCodeNodeOutOfRange, Rule: parent, Provenance: c.Provenance, Message: "candidate has no sub-graph"}
		}
		if hi := c.SubGraph.Max(); hi >= 0 && !g.Contains(hi) {
			return &RuleError{
				Code:       ErrCodeNodeOutOfRange,
				Rule:       parent,
				Provenance: c.Provenance,
				Message:    fmt.Sprintf("node %d outside graph of %d nodes", hi, g.Len()),
			}
		}
	}
	return nil
}

func (e *Enumerator) enumerateComposite(ctx context.Context, g *graph.Graph, r *CompositeRule, spec *Spec) ([]Candidate, error) {
	cands, err := e.sub(ctx, g, r.Name, r.Sub, spec)
	if err != nil {
		return nil, err
	}
	for i, c := range cands {
		c = c.wrap(r.Name)
		c.Pending.Composite = r.Name
		cands[i] = c
	}
	return cands, nil
}

func (e *Enumerator) enumeratePrimitive(ctx context.Context, g *graph.Graph, r *PrimitiveRule, spec *Spec) ([]Candidate, error) {
	cands, err := e.sub(ctx, g, r.Name, r.Sub, spec)
	if err != nil {
		return nil, err
	}
	compiler, hasCompiler := spec.TargetAttribute(CompilerAttr)
	for i, c := range cands {
		c = c.wrap(r.Name)
		c.Pending.Primitive = true
		if hasCompiler && compiler != "" {
			c.Pending.Compiler = compiler
		}
		cands[i] = c
	}
	return cands, nil
}

func (e *Enumerator) enumerateUnion(ctx context.Context, g *graph.Graph, r *UnionRule, spec *Spec) ([]Candidate, error) {
	results := make([][]Candidate, len(r.Subs))
	errs := make([]error, len(r.Subs))

	if e.parallelism > 1 && len(r.Subs) > 1 {
		var eg errgroup.Group
		eg.SetLimit(e.parallelism)
		for i, sub := range r.Subs {
			eg.Go(func() error {
				results[i], errs[i] = e.sub(ctx, g, r.Name, sub, spec)
				return nil
			})
		}
		_ = eg.Wait()
	} else {
		for i, sub := range r.Subs {
			results[i], errs[i] = e.sub(ctx, g, r.Name, sub, spec)
			if errs[i] != nil {
				break
			}
		}
	}

	// The first failing sibling in declaration order wins, whatever finished first.
	total := 0
	for i := range r.Subs {
		if errs[i] != nil {
			return nil, errs[i]
		}
		total += len(results[i])
	}
	out := make([]Candidate, 0, total)
	for _, res := range results {
		out = append(out, res...)
	}
	return out, nil
}

func (e *Enumerator) enumerateValidOnly(ctx context.Context, g *graph.Graph, r *ValidOnlyRule, spec *Spec) ([]Candidate, error) {
	cands, err := e.sub(ctx, g, r.Name, r.Sub, spec)
	if err != nil {
		return nil, err
	}
	out := cands[:0]
	for _, c := range cands {
		ok, err := e.checker.IsValid(c.SubGraph, r.Config)
		if err != nil {
			return nil, fmt.Errorf("valid-only rule %q: %w", r.Name, err)
		}
		if ok {
			out = append(out, c)
		}
	}
	if dropped := len(cands) - len(out); dropped > 0 {
		if filteredTotal != nil {
			filteredTotal.Add(ctx, int64(dropped), metric.WithAttributes(attribute.String("rule", r.Name)))
		}
		slog.Debug("invalid candidates dropped", "rule", r.Name, "dropped", dropped, "kept", len(out))
	}
	return out, nil
}
