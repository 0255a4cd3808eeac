package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator_Sequence(t *testing.T) {
	gen := NewFixedIDGenerator("pass")

	assert.Equal(t, "pass-000001", gen.Generate())
	assert.Equal(t, "pass-000002", gen.Generate())
}

func TestFixedIDGenerator_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "test-pass-000001", NewFixedIDGenerator("").Generate())
}

func TestFixedIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedIDGenerator("p")

	var wg sync.WaitGroup
	seen := sync.Map{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, dup := seen.LoadOrStore(gen.Generate(), true)
				assert.False(t, dup)
			}
		}()
	}
	wg.Wait()
}
