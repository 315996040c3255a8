package testutil

import (
	"fmt"
	"sync"
)

// SequentialGenerator returns numbered session IDs ("<prefix>-0001",
// "<prefix>-0002", ...) so traces and histories are reproducible.
//
// Unlike negotiate.FixedGenerator it never runs out, and it can be reset
// so the same scenario run twice yields identical IDs.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequentialGenerator creates a generator whose first ID is
// "<prefix>-0001". An empty prefix defaults to "session".
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	if prefix == "" {
		prefix = "session"
	}
	return &SequentialGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%04d", g.prefix, g.seq)
}

// Issued returns how many IDs have been generated since the last Reset.
func (g *SequentialGenerator) Issued() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts numbering at 1.
func (g *SequentialGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
