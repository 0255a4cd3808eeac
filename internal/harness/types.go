package harness

import (
	"github.com/roach88/collage/internal/ir"
	"github.com/roach88/collage/internal/store"
)

// CandidateView is one recorded candidate with its node names resolved.
type CandidateView struct {
	Spec   string             `json:"spec"`
	ID     string             `json:"id"`
	Rule   string             `json:"rule"`
	Names  []string           `json:"names"`
	Record ir.CandidateRecord `json:"record"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Candidates lists every candidate in spec order, then enumeration order.
	Candidates []CandidateView `json:"candidates"`

	// Passes holds the recorded pass of each enumerated spec.
	Passes []store.Pass `json:"passes"`

	// Nodes is the number of nodes in the scenario graph.
	Nodes int `json:"nodes"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Candidates: []CandidateView{},
		Passes:     []store.Pass{},
		Errors:     []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Records returns the candidate records in order.
func (r *Result) Records() []ir.CandidateRecord {
	recs := make([]ir.CandidateRecord, len(r.Candidates))
	for i, c := range r.Candidates {
		recs[i] = c.Record
	}
	return recs
}
