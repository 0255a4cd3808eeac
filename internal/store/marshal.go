package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/collage/internal/ir"
)

// marshalStrings converts a provenance chain to canonical JSON TEXT.
func marshalStrings(ss []string) (string, error) {
	data, err := ir.MarshalCanonical(ir.Strings(ss))
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

// marshalInts converts node indices to canonical JSON TEXT.
func marshalInts(ns []int) (string, error) {
	data, err := ir.MarshalCanonical(ir.Ints(ns))
	if err != nil {
		return "", fmt.Errorf("marshal ints: %w", err)
	}
	return string(data), nil
}

// unmarshalStrings parses a JSON string array. Empty input is an empty slice.
func unmarshalStrings(s string) ([]string, error) {
	out := []string{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return out, nil
}

// unmarshalInts parses a JSON integer array. Empty input is an empty slice.
func unmarshalInts(s string) ([]int, error) {
	out := []int{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("unmarshal ints: %w", err)
	}
	return out, nil
}
