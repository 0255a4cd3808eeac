package partition

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CompilerAttr is the target attribute naming an external compiler.
const CompilerAttr = "compiler"

// Target identifies a backend and its attributes.
type Target struct {
	Kind  string
	Attrs map[string]string
}

// Spec pairs a rule tree with the target its candidates are for. A Spec is
// immutable once built.
type Spec struct {
	name   string
	target Target
	rule   Rule
}

// NewSpec checks the rule tree and returns the Spec. An empty name defaults
// to the root rule's name. All tree errors are returned joined.
func NewSpec(name string, target Target, rule Rule) (*Spec, error) {
	if err := CheckRuleTree(rule); err != nil {
		return nil, err
	}
	if name == "" {
		name = rule.RuleName()
	}
	return &Spec{
		name:   name,
		target: Target{Kind: target.Kind, Attrs: maps.Clone(target.Attrs)},
		rule:   rule,
	}, nil
}

// MustSpec is like NewSpec but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSpec(name string, target Target, rule Rule) *Spec {
	s, err := NewSpec(name, target, rule)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the spec name.
func (s *Spec) Name() string { return s.name }

// Rule returns the root rule.
func (s *Spec) Rule() Rule { return s.rule }

// Target returns a copy of the target.
func (s *Spec) Target() Target {
	return Target{Kind: s.target.Kind, Attrs: maps.Clone(s.target.Attrs)}
}

// TargetAttribute returns the target attribute key, if set.
func (s *Spec) TargetAttribute(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.target.Attrs[key]
	return v, ok
}

// NormalizeName is the form rule names are compared in.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// CheckRuleTree verifies that every rule is named, names are unique after
// normalization, combinators have their sub-rules, and no rule value is
// owned by two parents. It returns every problem found, joined.
func CheckRuleTree(root Rule) error {
	if isNilRule(root) {
		return &RuleError{Code: ErrCodeMissingSubRule, Message: "spec has no root rule"}
	}
	c := &treeChecker{seen: make(map[Rule]bool), names: make(map[string]string)}
	c.check(root)
	return errors.Join(c.errs...)
}

type treeChecker struct {
	seen  map[Rule]bool
	names map[string]string
	errs  []error
}

func (c *treeChecker) fail(code RuleErrorCode, rule, format string, args ...any) {
	c.errs = append(c.errs, &RuleError{Code: code, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

func (c *treeChecker) check(r Rule) {
	if c.seen[r] {
		c.fail(ErrCodeSharedSubRule, r.RuleName(), "rule value appears more than once in the tree; clone it instead of sharing")
		return
	}
	c.seen[r] = true

	name := r.RuleName()
	key := NormalizeName(name)
	switch prev, dup := c.names[key]; {
	case key == "":
		c.fail(ErrCodeEmptyRuleName, name, "%s rule has an empty name", r.Kind())
	case dup:
		c.fail(ErrCodeDuplicateRuleName, name, "name collides with rule %q", prev)
	default:
		c.names[key] = name
	}

	switch r := r.(type) {
	case *PatternRule:
		if r.Pattern == nil {
			c.fail(ErrCodeMissingPattern, r.Name, "pattern rule has no pattern")
		}
	case *OpKindRule, *HostRule:
	case *CompositeRule, *PrimitiveRule:
	case *ValidOnlyRule:
		if err := r.Config.Validate(); err != nil {
			c.fail(ErrCodeInvalidConfig, r.Name, "%v", err)
		}
	case *UnionRule:
	default:
		c.fail(ErrCodeUnknownRule, name, "unsupported rule type %T", r)
		return
	}

	for _, sub := range Children(r) {
		if isNilRule(sub) {
			c.fail(ErrCodeMissingSubRule, name, "%s rule is missing a sub-rule", r.Kind())
			continue
		}
		c.check(sub)
	}
}

// isNilRule catches both a nil interface and a typed nil pointer.
func isNilRule(r Rule) bool {
	switch r := r.(type) {
	case nil:
		return true
	case *PatternRule:
		return r == nil
	case *OpKindRule:
		return r == nil
	case *CompositeRule:
		return r == nil
	case *PrimitiveRule:
		return r == nil
	case *UnionRule:
		return r == nil
	case *ValidOnlyRule:
		return r == nil
	case *HostRule:
		return r == nil
	}
	return false
}
