package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainGraph     = "collage/graph/v1"
	DomainCandidate = "collage/candidate/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// GraphHash computes the content hash of a graph document's structure.
// Node attrs are excluded: they may carry floats, and they never change
// which candidates a rule tree proposes except through predicates.
func GraphHash(doc GraphDoc) (string, error) {
	nodes := make(Array, len(doc.Nodes))
	for i, n := range doc.Nodes {
		obj := Object{
			"name": String(n.Name),
			"kind": String(n.Kind),
			"args": Strings(n.Args),
		}
		if n.Op != "" {
			obj["op"] = String(n.Op)
		}
		if n.Fn != "" {
			obj["fn"] = String(n.Fn)
		}
		if n.Kind == "proj" {
			obj["index"] = Int(n.Index)
		}
		if n.DType != "" {
			obj["dtype"] = String(n.DType)
		}
		if len(n.Shape) > 0 {
			shape, _ := ToValue(n.Shape)
			obj["shape"] = shape
		}
		nodes[i] = obj
	}
	canonical, err := MarshalCanonical(Object{
		"nodes":   nodes,
		"outputs": Strings(doc.Outputs),
	})
	if err != nil {
		return "", fmt.Errorf("GraphHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGraph, canonical), nil
}

// CandidateID computes the content-addressed ID of a candidate record.
// Two candidates with the same nodes, provenance and pending attributes
// share an ID even when produced by different passes.
func CandidateID(rec CandidateRecord) (string, error) {
	canonical, err := MarshalCanonical(rec.Object())
	if err != nil {
		return "", fmt.Errorf("CandidateID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCandidate, canonical), nil
}

// MustCandidateID is like CandidateID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCandidateID(rec CandidateRecord) string {
	id, err := CandidateID(rec)
	if err != nil {
		panic(err)
	}
	return id
}
