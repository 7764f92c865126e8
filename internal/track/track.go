package track

import (
	"fmt"
	"sync"

	"github.com/roach88/reverb/internal/world"
)

// Key identifies a tracked read. Fine-grained reads carry the entity that
// was resolved; coarse (whole-type) reads use world.NoEntity, meaning "any
// instance of this type".
type Key struct {
	Entity world.Entity
	Type   world.ComponentType
}

// Entry is one tracked read: the key plus the version stamp observed at the
// moment of the read. For coarse entries the stamp is the type-level
// high-water mark.
type Entry struct {
	Key     Key
	Version int64
}

// Snapshot is the deduplicated set of reads captured during one reaction
// execution, keyed by (entity, type). A nil Snapshot is the "never run"
// sentinel and is always stale.
type Snapshot map[Key]int64

// Capture accumulates tracked reads between Begin and End. Exactly one
// capture may be live per Tracker at a time.
type Capture struct {
	tracker *Tracker
	pending Snapshot
}

// Tracker owns the capture lifecycle for a single reaction record.
//
// Thread-safety: Begin/End are guarded so a second Begin while a capture is
// live is reported as ErrCaptureActive rather than silently corrupting the
// pending set. Read recording within one capture happens on the executing
// goroutine only.
type Tracker struct {
	mu     sync.Mutex
	active *Capture
}

// ErrCaptureActive reports a Begin while another capture is live for the
// same tracker. This is a programming error, not a data-dependent failure.
var ErrCaptureActive = fmt.Errorf("track: capture already active")

// NewTracker creates a tracker with no live capture.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin starts a new, empty capture scope.
// Returns ErrCaptureActive if a capture is already live.
func (t *Tracker) Begin() (*Capture, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != nil {
		return nil, ErrCaptureActive
	}
	c := &Capture{tracker: t, pending: make(Snapshot)}
	t.active = c
	return c, nil
}

// End finalizes the capture and returns the accumulated snapshot.
// The capture becomes invalid; further Record calls on it are ignored.
func (t *Tracker) End(c *Capture) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c == nil || t.active != c {
		return nil
	}
	t.active = nil
	snap := c.pending
	c.pending = nil
	c.tracker = nil
	return snap
}

// Drain discards a live capture without producing a snapshot. Used when a
// record is removed mid-flight: the capture must be finalized, not leaked.
func (t *Tracker) Drain(c *Capture) {
	t.End(c)
}

// Record appends a fine-grained read of (e, ct) observed at version v.
// The stamp is taken at read time, not commit time: a write landing between
// the read and End must not retroactively mark this entry stale.
// Re-reading the same key keeps the first observed stamp.
func (c *Capture) Record(e world.Entity, ct world.ComponentType, v int64) {
	if c.pending == nil {
		return
	}
	k := Key{Entity: e, Type: ct}
	if _, ok := c.pending[k]; !ok {
		c.pending[k] = v
	}
}

// RecordType appends a coarse read of the whole component type ct observed
// at type-level version v.
func (c *Capture) RecordType(ct world.ComponentType, v int64) {
	if c.pending == nil {
		return
	}
	k := Key{Entity: world.NoEntity, Type: ct}
	if _, ok := c.pending[k]; !ok {
		c.pending[k] = v
	}
}

// Stale reports whether a snapshot no longer reflects the store.
//
// The nil (never run) sentinel is always stale. Otherwise a snapshot is
// stale iff any fine-grained entry's stamp has drifted or any coarse
// entry's type-level stamp has moved.
//
// Absence is stamped 0 at read time, so drift covers both directions of
// existence change: a previously-read component disappearing (recorded > 0,
// now absent) and a previously-missing one appearing (recorded 0, now
// stamped). A read that was absent and stays absent has NOT drifted — the
// record stays dormant until the component is inserted.
func Stale(snap Snapshot, r world.Reader) bool {
	if snap == nil {
		return true
	}
	for k, recorded := range snap {
		if k.Entity == world.NoEntity {
			if r.TypeVersion(k.Type) != recorded {
				return true
			}
			continue
		}
		current, ok := r.Version(k.Entity, k.Type)
		if !ok {
			current = 0
		}
		if current != recorded {
			return true
		}
	}
	return false
}
