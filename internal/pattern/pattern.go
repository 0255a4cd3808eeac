// Package pattern implements the dataflow pattern language and the match
// service that finds every occurrence of a pattern in a graph.
//
// Matching is purely structural. The matcher does not check whether a match
// could legally be extracted as a sub-graph; that is left to the validity
// service.
package pattern

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is wrapped by every error reported for an ill-formed pattern.
var ErrMalformed = errors.New("malformed pattern")

// Pattern is a sealed interface over the pattern variants.
type Pattern interface {
	fmt.Stringer
	pattern()
}

// WildcardPattern matches any node. Wildcard nodes are not captured.
type WildcardPattern struct{}

// ConstantPattern matches a constant node.
type ConstantPattern struct{}

// CallPattern matches a call to the operator Op. With AnyArgs set, the
// operands are ignored and only the call itself is captured.
type CallPattern struct {
	Op      string
	Args    []Pattern
	AnyArgs bool
}

// AltPattern matches the first alternative that matches.
type AltPattern struct {
	Alts []Pattern
}

// TuplePattern matches a tuple construction field by field.
type TuplePattern struct {
	Fields []Pattern
}

// ProjPattern matches a projection of a tuple. Index -1 matches any field.
type ProjPattern struct {
	Tuple Pattern
	Index int
}

func (*WildcardPattern) pattern() {}
func (*ConstantPattern) pattern() {}
func (*CallPattern) pattern()     {}
func (*AltPattern) pattern()      {}
func (*TuplePattern) pattern()    {}
func (*ProjPattern) pattern()     {}

// Wildcard matches anything without capturing it.
func Wildcard() Pattern { return &WildcardPattern{} }

// Constant matches a constant.
func Constant() Pattern { return &ConstantPattern{} }

// Call matches op applied to exactly len(args) operands.
func Call(op string, args ...Pattern) Pattern {
	return &CallPattern{Op: op, Args: args}
}

// CallAny matches op applied to any operands.
func CallAny(op string) Pattern {
	return &CallPattern{Op: op, AnyArgs: true}
}

// Alt matches the first of alts that matches.
func Alt(alts ...Pattern) Pattern { return &AltPattern{Alts: alts} }

// Tuple matches a tuple of the given fields.
func Tuple(fields ...Pattern) Pattern { return &TuplePattern{Fields: fields} }

// Proj matches field index of a tuple matched by tuple.
func Proj(tuple Pattern, index int) Pattern {
	return &ProjPattern{Tuple: tuple, Index: index}
}

func (*WildcardPattern) String() string { return "*" }

func (*ConstantPattern) String() string { return "const" }

func (p *CallPattern) String() string {
	if p.AnyArgs {
		return p.Op + "(...)"
	}
	return p.Op + "(" + join(p.Args, ", ") + ")"
}

func (p *AltPattern) String() string { return "(" + join(p.Alts, " | ") + ")" }

func (p *TuplePattern) String() string { return "(" + join(p.Fields, ", ") + ",)" }

func (p *ProjPattern) String() string {
	if p.Index < 0 {
		return fmt.Sprintf("%s.*", p.Tuple)
	}
	return fmt.Sprintf("%s.%d", p.Tuple, p.Index)
}

func join(ps []Pattern, sep string) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		if p == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = p.String()
	}
	return strings.Join(parts, sep)
}

// Validate reports the first structural problem in p.
func Validate(p Pattern) error {
	switch p := p.(type) {
	case nil:
		return fmt.Errorf("%w: nil pattern", ErrMalformed)
	case *WildcardPattern, *ConstantPattern:
		return nil
	case *CallPattern:
		if p.Op == "" {
			return fmt.Errorf("%w: call with empty operator", ErrMalformed)
		}
		if p.AnyArgs && len(p.Args) > 0 {
			return fmt.Errorf("%w: call %s has both explicit and wildcard operands", ErrMalformed, p.Op)
		}
		return validateAll(p.Args)
	case *AltPattern:
		if len(p.Alts) == 0 {
			return fmt.Errorf("%w: empty alternation", ErrMalformed)
		}
		return validateAll(p.Alts)
	case *TuplePattern:
		return validateAll(p.Fields)
	case *ProjPattern:
		if p.Index < -1 {
			return fmt.Errorf("%w: projection index %d", ErrMalformed, p.Index)
		}
		return Validate(p.Tuple)
	default:
		return fmt.Errorf("%w: unsupported pattern %T", ErrMalformed, p)
	}
}

func validateAll(ps []Pattern) error {
	for _, p := range ps {
		if err := Validate(p); err != nil {
			return err
		}
	}
	return nil
}
