package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns predictable IDs in sequence: "<prefix>-000001",
// "<prefix>-000002", and so on.
//
// Two runs of the same test with fresh generators produce identical IDs, which
// keeps recorded passes comparable against golden output.
//
// Thread-safety: Generate is safe for concurrent use.
type FixedIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedIDGenerator creates a generator. An empty prefix becomes "test-pass".
func NewFixedIDGenerator(prefix string) *FixedIDGenerator {
	if prefix == "" {
		prefix = "test-pass"
	}
	return &FixedIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}
