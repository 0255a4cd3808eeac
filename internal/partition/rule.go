package partition

import (
	"github.com/roach88/collage/internal/graph"
	"github.com/roach88/collage/internal/pattern"
	"github.com/roach88/collage/internal/subgraph"
)

// RuleKind names a rule variant.
type RuleKind string

const (
	KindPattern   RuleKind = "pattern"
	KindOpKind    RuleKind = "op_kind"
	KindComposite RuleKind = "composite"
	KindPrimitive RuleKind = "primitive"
	KindUnion     RuleKind = "union"
	KindValidOnly RuleKind = "valid_only"
	KindHost      RuleKind = "host"
)

// Rule is a sealed interface over the seven rule variants. New variants are
// added here and in the Enumerator's dispatch switch.
type Rule interface {
	RuleName() string
	Kind() RuleKind
	isRule()
}

// Predicate filters pattern matches by their root node.
type Predicate interface {
	Holds(g *graph.Graph, root graph.NodeID) (bool, error)
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(g *graph.Graph, root graph.NodeID) (bool, error)

// Holds calls f.
func (f PredicateFunc) Holds(g *graph.Graph, root graph.NodeID) (bool, error) {
	return f(g, root)
}

// PatternRule proposes every match of Pattern whose root satisfies
// Predicate. A nil Predicate always holds.
type PatternRule struct {
	Name      string
	Pattern   pattern.Pattern
	Predicate Predicate
}

// OpKindRule proposes a singleton for every primitive operator call whose
// fusion kind is at or below ops.FusableThreshold.
type OpKindRule struct {
	Name string
}

// CompositeRule tags every candidate of Sub with Composite=Name.
type CompositeRule struct {
	Name string
	Sub  Rule
}

// PrimitiveRule marks every candidate of Sub as a Primitive unit, stamping
// the target's compiler when the spec names one.
type PrimitiveRule struct {
	Name string
	Sub  Rule
}

// UnionRule concatenates the candidates of Subs in declaration order.
type UnionRule struct {
	Name string
	Subs []Rule
}

// ValidOnlyRule keeps the candidates of Sub that satisfy Config.
type ValidOnlyRule struct {
	Name   string
	Sub    Rule
	Config subgraph.Config
}

// HostRule proposes a singleton for every node the built-in engine must run.
type HostRule struct {
	Name string
}

// NewPatternRule returns a PatternRule. pred may be nil.
func NewPatternRule(name string, p pattern.Pattern, pred Predicate) *PatternRule {
	return &PatternRule{Name: name, Pattern: p, Predicate: pred}
}

// NewOpKindRule returns an OpKindRule.
func NewOpKindRule(name string) *OpKindRule { return &OpKindRule{Name: name} }

// NewCompositeRule returns a CompositeRule.
func NewCompositeRule(name string, sub Rule) *CompositeRule {
	return &CompositeRule{Name: name, Sub: sub}
}

// NewPrimitiveRule returns a PrimitiveRule.
func NewPrimitiveRule(name string, sub Rule) *PrimitiveRule {
	return &PrimitiveRule{Name: name, Sub: sub}
}

// NewUnionRule returns a UnionRule.
func NewUnionRule(name string, subs ...Rule) *UnionRule {
	return &UnionRule{Name: name, Subs: subs}
}

// NewValidOnlyRule returns a ValidOnlyRule.
func NewValidOnlyRule(name string, sub Rule, cfg subgraph.Config) *ValidOnlyRule {
	return &ValidOnlyRule{Name: name, Sub: sub, Config: cfg}
}

// NewHostRule returns a HostRule.
func NewHostRule(name string) *HostRule { return &HostRule{Name: name} }

func (r *PatternRule) RuleName() string   { return r.Name }
func (r *OpKindRule) RuleName() string    { return r.Name }
func (r *CompositeRule) RuleName() string { return r.Name }
func (r *PrimitiveRule) RuleName() string { return r.Name }
func (r *UnionRule) RuleName() string     { return r.Name }
func (r *ValidOnlyRule) RuleName() string { return r.Name }
func (r *HostRule) RuleName() string      { return r.Name }

func (*PatternRule) Kind() RuleKind   { return KindPattern }
func (*OpKindRule) Kind() RuleKind    { return KindOpKind }
func (*CompositeRule) Kind() RuleKind { return KindComposite }
func (*PrimitiveRule) Kind() RuleKind { return KindPrimitive }
func (*UnionRule) Kind() RuleKind     { return KindUnion }
func (*ValidOnlyRule) Kind() RuleKind { return KindValidOnly }
func (*HostRule) Kind() RuleKind      { return KindHost }

func (*PatternRule) isRule()   {}
func (*OpKindRule) isRule()    {}
func (*CompositeRule) isRule() {}
func (*PrimitiveRule) isRule() {}
func (*UnionRule) isRule()     {}
func (*ValidOnlyRule) isRule() {}
func (*HostRule) isRule()      {}

func (r *PatternRule) String() string   { return Format(r) }
func (r *OpKindRule) String() string    { return Format(r) }
func (r *CompositeRule) String() string { return Format(r) }
func (r *PrimitiveRule) String() string { return Format(r) }
func (r *UnionRule) String() string     { return Format(r) }
func (r *ValidOnlyRule) String() string { return Format(r) }
func (r *HostRule) String() string      { return Format(r) }

// Children returns the direct sub-rules of r in declaration order.
func Children(r Rule) []Rule {
	switch r := r.(type) {
	case *CompositeRule:
		return []Rule{r.Sub}
	case *PrimitiveRule:
		return []Rule{r.Sub}
	case *ValidOnlyRule:
		return []Rule{r.Sub}
	case *UnionRule:
		return r.Subs
	}
	return nil
}

// Walk visits r and its descendants depth-first in declaration order. It
// stops descending when fn returns false. A rule reachable twice is visited
// twice; cycles are reported by CheckRuleTree, so Walk must only be used on
// checked trees.
func Walk(r Rule, fn func(r Rule, depth int) bool) {
	walk(r, 0, fn)
}

func walk(r Rule, depth int, fn func(Rule, int) bool) {
	if r == nil || !fn(r, depth) {
		return
	}
	for _, c := range Children(r) {
		walk(c, depth+1, fn)
	}
}
