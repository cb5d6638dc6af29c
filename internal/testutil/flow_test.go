package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialTokenGenerator_Numbers(t *testing.T) {
	gen := NewSequentialTokenGenerator("scenario")

	assert.Equal(t, "scenario-1", gen.Generate())
	assert.Equal(t, "scenario-2", gen.Generate())
	assert.Equal(t, "scenario-3", gen.Generate())
}

func TestSequentialTokenGenerator_EmptyPrefixDefault(t *testing.T) {
	gen := NewSequentialTokenGenerator("")
	assert.Equal(t, "test-session-1", gen.Generate())
}

func TestSequentialTokenGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequentialTokenGenerator("t")
	const goroutines = 100

	tokens := make(chan string, goroutines)
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens <- gen.Generate()
		}()
	}
	wg.Wait()
	close(tokens)

	seen := make(map[string]bool)
	for tok := range tokens {
		require.False(t, seen[tok], "token %s generated twice", tok)
		seen[tok] = true
	}
	assert.Len(t, seen, goroutines)
}
