package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/collage/internal/partition"
	"github.com/roach88/collage/internal/pattern"
	"github.com/roach88/collage/internal/predicate"
	"github.com/roach88/collage/internal/subgraph"
)

// CompileRule parses a CUE rule value into a partition.Rule.
//
// Only the shape of the CUE value is checked here. Rule tree contracts
// (names, missing sub-rules, configs) are left to partition.CheckRuleTree so
// that validation can report all of them at once: a missing sub-rule
// compiles to a nil Sub and a missing pattern to a nil Pattern.
func CompileRule(v cue.Value) (partition.Rule, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	kind, err := lookupString(v, "kind", true)
	if err != nil {
		return nil, err
	}
	name, err := lookupString(v, "name", false)
	if err != nil {
		return nil, err
	}

	switch partition.RuleKind(kind) {
	case partition.KindPattern:
		return compilePatternRule(v, name)

	case partition.KindOpKind:
		return partition.NewOpKindRule(name), nil

	case partition.KindHost:
		return partition.NewHostRule(name), nil

	case partition.KindComposite:
		sub, err := compileSub(v)
		if err != nil {
			return nil, err
		}
		return partition.NewCompositeRule(name, sub), nil

	case partition.KindPrimitive:
		sub, err := compileSub(v)
		if err != nil {
			return nil, err
		}
		return partition.NewPrimitiveRule(name, sub), nil

	case partition.KindValidOnly:
		sub, err := compileSub(v)
		if err != nil {
			return nil, err
		}
		cfg, err := compileConfig(v.LookupPath(cue.ParsePath("config")))
		if err != nil {
			return nil, err
		}
		return partition.NewValidOnlyRule(name, sub, cfg), nil

	case partition.KindUnion:
		subs, err := compileRuleList(v.LookupPath(cue.ParsePath("rules")))
		if err != nil {
			return nil, err
		}
		return partition.NewUnionRule(name, subs...), nil

	default:
		return nil, &CompileError{
			Field:   "kind",
			Message: fmt.Sprintf("unknown rule kind %q", kind),
			Pos:     v.LookupPath(cue.ParsePath("kind")).Pos(),
		}
	}
}

func compileSub(v cue.Value) (partition.Rule, error) {
	sv := v.LookupPath(cue.ParsePath("sub"))
	if !sv.Exists() {
		return nil, nil
	}
	return CompileRule(sv)
}

func compileRuleList(v cue.Value) ([]partition.Rule, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: "rules", Message: "rules must be a list", Pos: v.Pos()}
	}
	var rules []partition.Rule
	for iter.Next() {
		r, err := CompileRule(iter.Value())
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func compilePatternRule(v cue.Value, name string) (partition.Rule, error) {
	var pat pattern.Pattern
	if pv := v.LookupPath(cue.ParsePath("pattern")); pv.Exists() {
		p, err := CompilePattern(pv)
		if err != nil {
			return nil, err
		}
		pat = p
	}

	expr, err := lookupString(v, "predicate", false)
	if err != nil {
		return nil, err
	}
	if expr == "" {
		return partition.NewPatternRule(name, pat, nil), nil
	}
	pred, err := predicate.Compile(expr)
	if err != nil {
		return nil, &CompileError{
			Field:   "predicate",
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath("predicate")).Pos(),
			Err:     err,
		}
	}
	return partition.NewPatternRule(name, pat, pred), nil
}

// compileConfig reads a validity config. Absent fields are unlimited, and
// an absent config is the zero Config.
func compileConfig(v cue.Value) (subgraph.Config, error) {
	var cfg subgraph.Config
	if !v.Exists() {
		return cfg, nil
	}
	if err := v.Err(); err != nil {
		return cfg, formatCUEError(err)
	}

	var err error
	if cfg.MaxDepth, err = lookupInt(v, "max_depth"); err != nil {
		return cfg, err
	}
	if cfg.MaxExits, err = lookupInt(v, "max_exits"); err != nil {
		return cfg, err
	}
	if bv := v.LookupPath(cue.ParsePath("allow_taps")); bv.Exists() {
		b, err := bv.Bool()
		if err != nil {
			return cfg, &CompileError{Field: "config.allow_taps", Message: "allow_taps must be a bool", Pos: bv.Pos()}
		}
		cfg.AllowTaps = b
	}
	return cfg, nil
}

func lookupInt(v cue.Value, field string) (int, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, &CompileError{Field: "config." + field, Message: field + " must be an integer", Pos: fv.Pos()}
	}
	return int(n), nil
}
