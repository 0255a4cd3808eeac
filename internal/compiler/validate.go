package compiler

import (
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/collage/internal/partition"
)

// Validation error codes (E100, E120-E129)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported type for validation

	// Rule tree errors (E120-E124)
	ErrEmptyRuleName     = "E120" // rule name is required
	ErrDuplicateRuleName = "E121" // rule name reused after NFC normalisation
	ErrMissingSubRule    = "E122" // combinator without sub-rule
	ErrInvalidConfig     = "E123" // negative validity limit
	ErrMissingPattern    = "E124" // pattern rule without pattern

	// Spec errors (E125-E129)
	ErrInvalidTarget     = "E125" // target kind missing or attribute empty
	ErrDuplicateSpecName = "E126" // two specs share a name
	ErrSharedSubRule     = "E127" // one rule value owned twice
	ErrSpecCompile       = "E128" // CUE value could not be compiled
)

// ruleCodes maps partition rule tree codes onto validation codes.
var ruleCodes = map[partition.RuleErrorCode]string{
	partition.ErrCodeEmptyRuleName:     ErrEmptyRuleName,
	partition.ErrCodeDuplicateRuleName: ErrDuplicateRuleName,
	partition.ErrCodeMissingSubRule:    ErrMissingSubRule,
	partition.ErrCodeInvalidConfig:     ErrInvalidConfig,
	partition.ErrCodeMissingPattern:    ErrMissingPattern,
	partition.ErrCodeSharedSubRule:     ErrSharedSubRule,
}

// RuleCode maps a partition rule tree code onto its validation code.
// Codes with no validation counterpart map to ErrMissingSubRule.
func RuleCode(c partition.RuleErrorCode) string {
	if code, ok := ruleCodes[c]; ok {
		return code
	}
	return ErrMissingSubRule
}

// ValidationError represents a spec validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks rule trees and specs.
// Returns all errors found (does not fail-fast).
// Supports partition.Rule, *partition.Spec and []*partition.Spec.
func Validate(v any) []ValidationError {
	switch x := v.(type) {
	case *partition.Spec:
		return validateSpec(x)
	case []*partition.Spec:
		return validateSpecs(x)
	case partition.Rule:
		return validateRule("rule", x)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

// ValidateValue validates every spec under the `spec` field of a CUE value
// without stopping at the first broken one. Rule trees are compiled without
// checking and then validated, so one pass reports all tree errors.
func ValidateValue(v cue.Value) []ValidationError {
	specsVal := v.LookupPath(cue.ParsePath("spec"))
	if !specsVal.Exists() {
		return nil
	}
	iter, err := specsVal.Fields()
	if err != nil {
		return []ValidationError{compileFailure("spec", err)}
	}

	var errs []ValidationError
	for iter.Next() {
		name := iter.Label()
		sv := iter.Value()
		field := "spec." + name

		target, err := parseTarget(sv)
		if err != nil {
			errs = append(errs, compileFailure(field, err))
		} else {
			errs = append(errs, validateTarget(field, target)...)
		}

		rule, err := CompileRule(sv.LookupPath(cue.ParsePath("rule")))
		if err != nil {
			errs = append(errs, compileFailure(field+".rule", err))
			continue
		}
		errs = append(errs, validateRule(field+".rule", rule)...)
	}
	return errs
}

func compileFailure(field string, err error) ValidationError {
	ve := ValidationError{Field: field, Message: err.Error(), Code: ErrSpecCompile}
	var ce *CompileError
	if errors.As(err, &ce) && ce.Pos.IsValid() {
		ve.Line = ce.Pos.Line()
	}
	return ve
}

func validateRule(field string, r partition.Rule) []ValidationError {
	var errs []ValidationError
	for _, re := range partition.RuleErrors(partition.CheckRuleTree(r)) {
		code := RuleCode(re.Code)
		f := field
		if re.Rule != "" {
			f = fmt.Sprintf("%s[%s]", field, re.Rule)
		}
		errs = append(errs, ValidationError{Field: f, Message: re.Message, Code: code})
	}
	return errs
}

func validateTarget(field string, t partition.Target) []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(t.Kind) == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".target.kind",
			Message: "target kind is required",
			Code:    ErrInvalidTarget,
		})
	}
	// An empty attribute is indistinguishable from an absent one downstream.
	for _, k := range sortedKeys(t.Attrs) {
		if t.Attrs[k] == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".target.attrs." + k,
				Message: "target attribute must be non-empty",
				Code:    ErrInvalidTarget,
			})
		}
	}
	return errs
}

func validateSpec(s *partition.Spec) []ValidationError {
	if s == nil {
		return []ValidationError{{Field: "spec", Message: "spec is nil", Code: ErrMissingSubRule}}
	}
	field := "spec." + s.Name()
	errs := validateTarget(field, s.Target())
	return append(errs, validateRule(field+".rule", s.Rule())...)
}

func validateSpecs(specs []*partition.Spec) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, s := range specs {
		errs = append(errs, validateSpec(s)...)
		if s == nil {
			continue
		}
		key := partition.NormalizeName(s.Name())
		if seen[key] {
			errs = append(errs, ValidationError{
				Field:   "spec." + s.Name(),
				Message: fmt.Sprintf("duplicate spec name %q", s.Name()),
				Code:    ErrDuplicateSpecName,
			})
		}
		seen[key] = true
	}
	return errs
}
