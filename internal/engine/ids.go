package engine

import (
	"sync"

	"github.com/google/uuid"
)

// ReactionID identifies a spawned reaction record. IDs are owned
// exclusively by the scheduler's registry.
type ReactionID string

// IDGenerator mints ReactionIDs for the scheduler.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() ReactionID
}

// UUIDv7Generator generates time-sortable UUIDv7 reaction IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, making IDs
// sortable by spawn time, which is helpful when reading journal traces.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() ReactionID {
	return ReactionID(uuid.Must(uuid.NewV7()).String())
}

// FixedGenerator returns predetermined reaction IDs for testing.
//
// This enables deterministic test execution and golden trace comparison.
// Tests provide a known sequence of IDs and verify exact trace output.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []ReactionID
	idx int
}

// NewFixedGenerator creates a generator that returns IDs in order.
//
// Example:
//
//	gen := NewFixedGenerator("r-1", "r-2")
//	gen.Generate() // "r-1"
//	gen.Generate() // "r-2"
//	gen.Generate() // panic: all ids exhausted
func NewFixedGenerator(ids ...ReactionID) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
//
// Panics if all IDs have been consumed. This is a fail-fast approach to
// catch test misconfiguration (test spawned more reactions than expected).
func (g *FixedGenerator) Generate() ReactionID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
