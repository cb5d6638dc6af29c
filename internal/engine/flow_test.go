package engine

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_ValidFormat(t *testing.T) {
	gen := UUIDv7Generator{}
	token := gen.Generate()

	assert.Equal(t, 36, len(token), "UUID should be 36 characters")

	parsed, err := uuid.Parse(token)
	require.NoError(t, err, "token should be valid UUID")
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestUUIDv7Generator_Concurrent(t *testing.T) {
	gen := UUIDv7Generator{}
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
	for token := range tokens {
		require.False(t, seen[token], "duplicate token generated")
		seen[token] = true
	}

	assert.Equal(t, goroutines, len(seen))
}

func TestFixedGenerator_Sequential(t *testing.T) {
	gen := NewFixedGenerator("session-1", "session-2", "session-3")

	assert.Equal(t, "session-1", gen.Generate())
	assert.Equal(t, "session-2", gen.Generate())
	assert.Equal(t, "session-3", gen.Generate())
}

func TestFixedGenerator_ContinuesAfterExhausted(t *testing.T) {
	gen := NewFixedGenerator("s")

	assert.Equal(t, "s", gen.Generate())
	assert.Equal(t, "s.2", gen.Generate())
	assert.Equal(t, "s.3", gen.Generate())
}

func TestFixedGenerator_EmptyTokens(t *testing.T) {
	gen := NewFixedGenerator()

	assert.Equal(t, "session", gen.Generate())
	assert.Equal(t, "session.2", gen.Generate())
}

func TestSession_UsesTokenGenerator(t *testing.T) {
	s := NewSession(testConfig(), nil, WithTokenGenerator(NewFixedGenerator("first", "second")))
	assert.Equal(t, "first", s.Token())

	s.OnJoin()
	assert.Equal(t, "second", s.Token())
}

func TestSession_DefaultTokenIsUUIDv7(t *testing.T) {
	s := NewSession(testConfig(), nil)

	parsed, err := uuid.Parse(s.Token())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}
