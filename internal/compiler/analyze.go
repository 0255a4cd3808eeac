package compiler

import (
	"fmt"

	"github.com/roach88/collage/internal/partition"
)

// Warning is a spec shape that is legal but probably not intended.
//
// Warnings never block compilation: a spec without a host rule is fine when
// another spec in the same search covers the remaining nodes.
type Warning struct {
	Spec    string   `json:"spec"`
	Path    []string `json:"path"`    // Rule names from the root: ["cutlass", "cutlass_valid"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeSpecs performs static analysis on checked specs.
//
// Reported shapes:
//   - primitive rule in a spec whose target has no compiler attribute
//   - union with no sub-rules
//   - valid_only directly wrapping another valid_only
//   - composite nested in a composite (the outer name wins)
//   - no spec carries a host rule, so some nodes may have no candidate
//
// Specs are visited in order and rules depth-first, so the output is stable.
func AnalyzeSpecs(specs []*partition.Spec) []Warning {
	warnings := []Warning{}
	hasHost := false

	for _, s := range specs {
		_, hasCompiler := s.TargetAttribute(partition.CompilerAttr)
		analyzeRule(s, s.Rule(), nil, hasCompiler, false, &hasHost, &warnings)
	}

	if len(specs) > 0 && !hasHost {
		warnings = append(warnings, Warning{
			Message: "no spec contains a host rule; nodes no backend claims will have no candidate",
			Level:   "info",
		})
	}
	return warnings
}

func analyzeRule(s *partition.Spec, r partition.Rule, parent []string, hasCompiler, inComposite bool, hasHost *bool, out *[]Warning) {
	if r == nil {
		return
	}
	path := append(append([]string(nil), parent...), r.RuleName())
	warn := func(level, format string, args ...any) {
		*out = append(*out, Warning{Spec: s.Name(), Path: path, Message: fmt.Sprintf(format, args...), Level: level})
	}

	switch r := r.(type) {
	case *partition.HostRule:
		*hasHost = true
	case *partition.PrimitiveRule:
		if !hasCompiler {
			warn("warning", "primitive rule %q in a target without a %q attribute; candidates will carry no compiler", r.Name, partition.CompilerAttr)
		}
	case *partition.UnionRule:
		if len(r.Subs) == 0 {
			warn("warning", "union %q has no sub-rules and yields nothing", r.Name)
		}
	case *partition.ValidOnlyRule:
		if inner, ok := r.Sub.(*partition.ValidOnlyRule); ok {
			warn("info", "valid_only %q directly wraps valid_only %q; only the stricter limits matter", r.Name, inner.Name)
		}
	case *partition.CompositeRule:
		if inComposite {
			warn("info", "composite %q is nested in another composite and its name is overridden", r.Name)
		}
		inComposite = true
	}

	for _, c := range partition.Children(r) {
		analyzeRule(s, c, path, hasCompiler, inComposite, hasHost, out)
	}
}
