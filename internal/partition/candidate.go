package partition

import (
	"slices"
	"strings"
	"time"

	"github.com/roach88/collage/internal/ir"
	"github.com/roach88/collage/internal/subgraph"
)

// Candidate is one proposed partition. The caller owns it; the enumerator
// keeps no reference once a pass returns. SubGraph is shared between
// candidates derived from the same match and must not be modified.
type Candidate struct {
	SubGraph   *subgraph.SubGraph
	Provenance []string
	Target     string // unset until the search assigns a backend
	Cost       *Cost  // computed lazily by the search
	Pending    PendingAttrs
}

// PendingAttrs records how a candidate must be wrapped if it is selected.
// Nothing is constructed until then.
type PendingAttrs struct {
	Composite string
	Primitive bool
	Compiler  string
}

// IsZero reports whether no wrapping was requested.
func (p PendingAttrs) IsZero() bool {
	return p == PendingAttrs{}
}

// Cost is a measured or estimated execution cost.
type Cost struct {
	Mean    time.Duration
	Samples int
}

// RuleName joins the provenance chain, innermost first, e.g. "ew.prim".
func (c Candidate) RuleName() string {
	return strings.Join(c.Provenance, ".")
}

// Record returns the serialized form of c.
func (c Candidate) Record() ir.CandidateRecord {
	rec := ir.CandidateRecord{
		Provenance: slices.Clone(c.Provenance),
		Composite:  c.Pending.Composite,
		Primitive:  c.Pending.Primitive,
		Compiler:   c.Pending.Compiler,
	}
	if c.SubGraph != nil {
		rec.Nodes = c.SubGraph.Nodes().Ints()
	}
	if rec.Provenance == nil {
		rec.Provenance = []string{}
	}
	if rec.Nodes == nil {
		rec.Nodes = []int{}
	}
	return rec
}

// ID returns the content hash of c's record.
func (c Candidate) ID() (string, error) {
	return ir.CandidateID(c.Record())
}

// Records serializes candidates in order.
func Records(cands []Candidate) []ir.CandidateRecord {
	out := make([]ir.CandidateRecord, len(cands))
	for i, c := range cands {
		out[i] = c.Record()
	}
	return out
}

// wrap returns a copy of c with name appended to its provenance. The
// provenance slice is copied so siblings never share backing arrays.
func (c Candidate) wrap(name string) Candidate {
	prov := make([]string, len(c.Provenance), len(c.Provenance)+1)
	copy(prov, c.Provenance)
	c.Provenance = append(prov, name)
	return c
}
