package world

import "sync/atomic"

// Clock is the monotonic version clock for component writes.
//
// Every write through a Store stamps the touched (entity, component type)
// pair with the next value from this clock. Staleness comparison only relies
// on per-pair monotonicity: a later write to the same pair always carries a
// strictly greater stamp. No ordering is guaranteed across distinct pairs.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used when resuming a world from a journaled position.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
