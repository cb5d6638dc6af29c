package testutil

import (
	"fmt"
	"sync"
)

// SequentialTokenGenerator numbers session tokens: "<prefix>-1", "<prefix>-2", ...
//
// Every reset starts a new session, so tokens must differ between sessions
// for journal entry IDs to stay unique. Numbering keeps them deterministic
// for golden trace comparison.
//
// Implements engine.SessionTokenGenerator.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialTokenGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialTokenGenerator creates a generator with the given prefix.
// If prefix is empty, "test-session" is used.
func NewSequentialTokenGenerator(prefix string) *SequentialTokenGenerator {
	if prefix == "" {
		prefix = "test-session"
	}
	return &SequentialTokenGenerator{prefix: prefix}
}

// Generate returns the next token.
func (g *SequentialTokenGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
