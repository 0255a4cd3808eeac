package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/collage/internal/pattern"
)

// CompilePattern parses a CUE pattern value. Accepted forms:
//
//	"*"                                  wildcard
//	"nn.relu"                            call with any arguments
//	{wildcard: true}
//	{constant: true}
//	{op: "nn.relu", args: [ ... ]}       call; args omitted matches any arity
//	{alt: [ ... ]}                       first matching alternative
//	{tuple: [ ... ]}
//	{proj: { ... }, index: 0}            index omitted matches any field
func CompilePattern(v cue.Value) (pattern.Pattern, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	if v.Kind() == cue.StringKind {
		s, _ := v.String()
		switch s {
		case "":
			return nil, &CompileError{Field: "pattern", Message: "empty pattern", Pos: v.Pos()}
		case "*":
			return pattern.Wildcard(), nil
		default:
			return pattern.CallAny(s), nil
		}
	}
	if v.Kind() != cue.StructKind {
		return nil, &CompileError{Field: "pattern", Message: fmt.Sprintf("pattern must be a string or struct, got %s", v.Kind()), Pos: v.Pos()}
	}

	if flag(v, "wildcard") {
		return pattern.Wildcard(), nil
	}
	if flag(v, "constant") {
		return pattern.Constant(), nil
	}

	if ov := v.LookupPath(cue.ParsePath("op")); ov.Exists() {
		op, err := ov.String()
		if err != nil || op == "" {
			return nil, &CompileError{Field: "pattern.op", Message: "op must be a non-empty string", Pos: ov.Pos()}
		}
		av := v.LookupPath(cue.ParsePath("args"))
		if !av.Exists() {
			return pattern.CallAny(op), nil
		}
		args, err := compilePatternList(av, "pattern.args")
		if err != nil {
			return nil, err
		}
		return pattern.Call(op, args...), nil
	}

	if av := v.LookupPath(cue.ParsePath("alt")); av.Exists() {
		alts, err := compilePatternList(av, "pattern.alt")
		if err != nil {
			return nil, err
		}
		if len(alts) == 0 {
			return nil, &CompileError{Field: "pattern.alt", Message: "alternation needs at least one pattern", Pos: av.Pos()}
		}
		return pattern.Alt(alts...), nil
	}

	if tv := v.LookupPath(cue.ParsePath("tuple")); tv.Exists() {
		fields, err := compilePatternList(tv, "pattern.tuple")
		if err != nil {
			return nil, err
		}
		return pattern.Tuple(fields...), nil
	}

	if pv := v.LookupPath(cue.ParsePath("proj")); pv.Exists() {
		inner, err := CompilePattern(pv)
		if err != nil {
			return nil, err
		}
		index := -1
		if iv := v.LookupPath(cue.ParsePath("index")); iv.Exists() {
			n, err := iv.Int64()
			if err != nil || n < 0 {
				return nil, &CompileError{Field: "pattern.index", Message: "index must be a non-negative integer", Pos: iv.Pos()}
			}
			index = int(n)
		}
		return pattern.Proj(inner, index), nil
	}

	return nil, &CompileError{Field: "pattern", Message: "pattern needs one of wildcard, constant, op, alt, tuple, proj", Pos: v.Pos()}
}

func compilePatternList(v cue.Value, field string) ([]pattern.Pattern, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: field + " must be a list", Pos: v.Pos()}
	}
	var out []pattern.Pattern
	for iter.Next() {
		p, err := CompilePattern(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func flag(v cue.Value, field string) bool {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false
	}
	b, err := fv.Bool()
	return err == nil && b
}
