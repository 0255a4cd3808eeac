// Package partition implements the partition rule algebra: a closed set of
// rule variants that enumerate candidate sub-graphs a backend could execute.
//
// Base rules (PatternRule, OpKindRule, HostRule) read the graph directly.
// Combinators (CompositeRule, PrimitiveRule, UnionRule, ValidOnlyRule)
// transform or merge the candidates of their sub-rules. A Spec pairs a root
// rule with a target; an Enumerator runs one pass over one graph.
//
// Key design constraints:
//   - Rules are immutable trees and are reused across passes
//   - Enumeration is a pure function of (graph, spec) with deterministic order
//   - Candidates are index sets plus metadata; no expression is built here
//   - Pending attributes record wrapping intent for the realization step
package partition
