package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type       string          // Assertion type for categorization
	Expected   string          // Human-readable expected outcome
	Actual     string          // Human-readable actual outcome
	Candidates []CandidateView // Candidates in scope for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nCandidates:\n")
	for i, c := range e.Candidates {
		fmt.Fprintf(&buf, "  [%d] %s {%s}\n", i+1, c.Rule, strings.Join(c.Names, ", "))
	}

	return buf.String()
}

// scoped returns the candidates of one spec, or all of them.
func scoped(cands []CandidateView, spec string) []CandidateView {
	if spec == "" {
		return cands
	}
	var out []CandidateView
	for _, c := range cands {
		if c.Spec == spec {
			out = append(out, c)
		}
	}
	return out
}

// assertCandidateCount checks the exact number of candidates.
func assertCandidateCount(cands []CandidateView, a Assertion) error {
	if len(cands) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:       AssertCandidateCount,
		Expected:   fmt.Sprintf("%d candidates", a.Count),
		Actual:     fmt.Sprintf("%d candidates", len(cands)),
		Candidates: cands,
	}
}

// assertCoversAll checks that every node index below n is in some candidate.
func assertCoversAll(cands []CandidateView, n int) error {
	covered := make([]bool, n)
	for _, c := range cands {
		for _, id := range c.Record.Nodes {
			if id >= 0 && id < n {
				covered[id] = true
			}
		}
	}

	var missing []string
	for id, ok := range covered {
		if !ok {
			missing = append(missing, fmt.Sprintf("%d", id))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &AssertionError{
		Type:       AssertCoversAll,
		Expected:   fmt.Sprintf("all %d nodes covered", n),
		Actual:     fmt.Sprintf("uncovered node indices: %s", strings.Join(missing, ", ")),
		Candidates: cands,
	}
}

// assertContains checks that some candidate matches every field given.
func assertContains(cands []CandidateView, a Assertion) error {
	for _, c := range cands {
		if matchCandidate(c, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:       AssertContains,
		Expected:   describeMatch(a),
		Actual:     "not found among candidates",
		Candidates: cands,
	}
}

func matchCandidate(c CandidateView, a Assertion) bool {
	if len(a.Provenance) > 0 && !slices.Equal(c.Record.Provenance, a.Provenance) {
		return false
	}
	if len(a.Nodes) > 0 && !sameSet(c.Names, a.Nodes) {
		return false
	}
	if a.Composite != "" && c.Record.Composite != a.Composite {
		return false
	}
	if a.Primitive != nil && c.Record.Primitive != *a.Primitive {
		return false
	}
	if a.Compiler != "" && c.Record.Compiler != a.Compiler {
		return false
	}
	return true
}

func sameSet(a, b []string) bool {
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(slices.Compact(x), slices.Compact(y))
}

func describeMatch(a Assertion) string {
	var parts []string
	if len(a.Provenance) > 0 {
		parts = append(parts, "provenance="+strings.Join(a.Provenance, "."))
	}
	if len(a.Nodes) > 0 {
		parts = append(parts, "nodes={"+strings.Join(a.Nodes, ", ")+"}")
	}
	if a.Composite != "" {
		parts = append(parts, "composite="+a.Composite)
	}
	if a.Primitive != nil {
		parts = append(parts, fmt.Sprintf("primitive=%t", *a.Primitive))
	}
	if a.Compiler != "" {
		parts = append(parts, "compiler="+a.Compiler)
	}
	return "candidate with " + strings.Join(parts, " ")
}

// assertOrder checks that the first candidate of each rule appears in the
// given order. Other candidates may appear in between.
func assertOrder(cands []CandidateView, a Assertion) error {
	positions := make(map[string]int)
	for i, c := range cands {
		if _, seen := positions[c.Rule]; !seen {
			positions[c.Rule] = i + 1 // 1-indexed for readability
		}
	}

	for _, rule := range a.Rules {
		if positions[rule] == 0 {
			return &AssertionError{
				Type:       AssertOrder,
				Expected:   fmt.Sprintf("all rules present: %v", a.Rules),
				Actual:     fmt.Sprintf("missing rule: %s", rule),
				Candidates: cands,
			}
		}
	}

	for i := 1; i < len(a.Rules); i++ {
		prev, curr := a.Rules[i-1], a.Rules[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertOrder,
				Expected: fmt.Sprintf("rules in order: %v", a.Rules),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Candidates: cands,
			}
		}
	}
	return nil
}

// assertNoneFor checks that no candidate includes any of the named nodes.
func assertNoneFor(cands []CandidateView, a Assertion) error {
	for _, c := range cands {
		for _, name := range a.Nodes {
			if slices.Contains(c.Names, name) {
				return &AssertionError{
					Type:       AssertNoneFor,
					Expected:   fmt.Sprintf("no candidate for %v", a.Nodes),
					Actual:     fmt.Sprintf("%s claims %s", c.Rule, name),
					Candidates: cands,
				}
			}
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		cands := scoped(result.Candidates, assertion.Spec)

		var err error
		switch assertion.Type {
		case AssertCandidateCount:
			err = assertCandidateCount(cands, assertion)
		case AssertCoversAll:
			err = assertCoversAll(cands, result.Nodes)
		case AssertContains:
			err = assertContains(cands, assertion)
		case AssertOrder:
			err = assertOrder(cands, assertion)
		case AssertNoneFor:
			err = assertNoneFor(cands, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
