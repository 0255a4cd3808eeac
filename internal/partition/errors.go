package partition

import (
	"errors"
	"fmt"
	"strings"
)

// RuleErrorCode classifies rule tree and enumeration contract failures.
type RuleErrorCode string

const (
	ErrCodeEmptyRuleName     RuleErrorCode = "E201" // rule has no name
	ErrCodeDuplicateRuleName RuleErrorCode = "E202" // name reused within one rule tree
	ErrCodeMissingSubRule    RuleErrorCode = "E203" // combinator without a sub-rule
	ErrCodeNodeOutOfRange    RuleErrorCode = "E204" // candidate outside the graph
	ErrCodeUnknownRule       RuleErrorCode = "E205" // rule variant not handled
	ErrCodeMissingPattern    RuleErrorCode = "E206" // pattern rule without a pattern
	ErrCodeInvalidConfig     RuleErrorCode = "E207" // malformed validity config
	ErrCodeSharedSubRule     RuleErrorCode = "E208" // one rule value owned by two parents
)

// RuleError is a contract violation in a rule tree. Construction-time errors
// name the offending rule; enumeration-time errors also carry the provenance
// of the candidate that broke the contract.
type RuleError struct {
	Code       RuleErrorCode
	Rule       string
	Provenance []string
	Message    string
}

func (e *RuleError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: rule %q", e.Code, e.Rule)
	if len(e.Provenance) > 0 {
		fmt.Fprintf(&b, " (candidate from %s)", strings.Join(e.Provenance, "."))
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// IsRuleError reports whether err is or wraps a RuleError with code.
func IsRuleError(err error, code RuleErrorCode) bool {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// RuleErrors returns every RuleError joined into err, in order.
func RuleErrors(err error) []*RuleError {
	var out []*RuleError
	var collect func(error)
	collect = func(e error) {
		if e == nil {
			return
		}
		if re, ok := e.(*RuleError); ok {
			out = append(out, re)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				collect(inner)
			}
		case interface{ Unwrap() error }:
			collect(u.Unwrap())
		}
	}
	collect(err)
	return out
}
