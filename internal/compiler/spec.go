package compiler

import (
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/collage/internal/ops"
	"github.com/roach88/collage/internal/partition"
)

// CompileSpec parses a CUE value into a partition.Spec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is the spec struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`spec: cutlass: { target: {...}, rule: {...} }`)
//	spec, err := CompileSpec(v.LookupPath(cue.ParsePath("spec.cutlass")))
//
// The rule tree is checked before the spec is returned; tree errors are
// reported as a CompileError wrapping the partition.RuleError values.
func CompileSpec(v cue.Value) (*partition.Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var name string
	if sels := v.Path().Selectors(); len(sels) > 0 {
		name = strings.Trim(sels[len(sels)-1].String(), `"`)
	}

	target, err := parseTarget(v)
	if err != nil {
		return nil, err
	}

	ruleVal := v.LookupPath(cue.ParsePath("rule"))
	if !ruleVal.Exists() {
		return nil, &CompileError{Field: "rule", Message: "rule is required", Pos: v.Pos()}
	}
	rule, err := CompileRule(ruleVal)
	if err != nil {
		return nil, err
	}

	spec, err := partition.NewSpec(name, target, rule)
	if err != nil {
		return nil, &CompileError{
			Field:   "rule",
			Message: fmt.Sprintf("invalid rule tree: %v", err),
			Pos:     ruleVal.Pos(),
			Err:     err,
		}
	}
	return spec, nil
}

// parseTarget extracts the target kind and string attributes.
func parseTarget(v cue.Value) (partition.Target, error) {
	var target partition.Target

	targetVal := v.LookupPath(cue.ParsePath("target"))
	if !targetVal.Exists() {
		return target, &CompileError{Field: "target", Message: "target is required", Pos: v.Pos()}
	}

	kind, err := lookupString(targetVal, "kind", true)
	if err != nil {
		return target, err
	}
	target.Kind = kind

	attrsVal := targetVal.LookupPath(cue.ParsePath("attrs"))
	if !attrsVal.Exists() {
		return target, nil
	}
	iter, err := attrsVal.Fields()
	if err != nil {
		return target, formatCUEError(err)
	}
	target.Attrs = make(map[string]string)
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return target, &CompileError{
				Field:   "target.attrs." + iter.Label(),
				Message: "target attributes must be strings",
				Pos:     iter.Value().Pos(),
			}
		}
		target.Attrs[iter.Label()] = s
	}
	return target, nil
}

// CompileOps parses an operator fusion-kind override table:
//
//	ops: { "my.custom_op": "injective" }
func CompileOps(v cue.Value) (map[string]ops.Kind, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := make(map[string]ops.Kind)
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: "ops." + iter.Label(), Message: "fusion kind must be a string", Pos: iter.Value().Pos()}
		}
		k, err := ops.ParseKind(s)
		if err != nil {
			return nil, &CompileError{Field: "ops." + iter.Label(), Message: err.Error(), Pos: iter.Value().Pos()}
		}
		out[iter.Label()] = k
	}
	return out, nil
}

// lookupString reads a string field. Missing optional fields yield "".
func lookupString(v cue.Value, field string, required bool) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		if required {
			return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
		}
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: field + " must be a string", Pos: fv.Pos()}
	}
	return s, nil
}

// CompileSpecs compiles every spec under the `spec` field of v, in CUE
// field order.
func CompileSpecs(v cue.Value) ([]*partition.Spec, error) {
	specsVal := v.LookupPath(cue.ParsePath("spec"))
	if !specsVal.Exists() {
		return nil, nil
	}
	iter, err := specsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var specs []*partition.Spec
	for iter.Next() {
		s, err := CompileSpec(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("spec %s: %w", iter.Label(), err)
		}
		specs = append(specs, s)
	}
	return specs, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
