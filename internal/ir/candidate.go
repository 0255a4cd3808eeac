package ir

// CandidateRecord is the serialized form of one enumerated candidate.
// It is what the pass recorder persists and what golden files contain.
type CandidateRecord struct {
	Provenance []string `json:"provenance"`
	Nodes      []int    `json:"nodes"`
	Composite  string   `json:"composite,omitempty"`
	Primitive  bool     `json:"primitive,omitempty"`
	Compiler   string   `json:"compiler,omitempty"`
}

// Object returns the canonical object form. Unset pending attributes are
// omitted so records stay minimal.
func (r CandidateRecord) Object() Object {
	obj := Object{
		"provenance": Strings(r.Provenance),
		"nodes":      Ints(r.Nodes),
	}
	if r.Composite != "" {
		obj["composite"] = String(r.Composite)
	}
	if r.Primitive {
		obj["primitive"] = Bool(true)
	}
	if r.Compiler != "" {
		obj["compiler"] = String(r.Compiler)
	}
	return obj
}

// MarshalCandidates renders records as one canonical JSON array.
func MarshalCandidates(recs []CandidateRecord) ([]byte, error) {
	arr := make(Array, len(recs))
	for i, r := range recs {
		arr[i] = r.Object()
	}
	return MarshalCanonical(arr)
}
