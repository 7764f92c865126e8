package engine

import (
	"github.com/roach88/reverb/internal/track"
	"github.com/roach88/reverb/internal/world"
)

// Scope is the capability set handed to a reaction body: read-tracked query
// execution against the store, scoped to the target entity the body is
// currently running for.
//
// All reads issued through a Scope funnel into the record's live capture,
// so the scheduler can re-run the body when, and only when, the state it
// read has changed.
type Scope struct {
	// Entity is the target the body is executing for. world.NoEntity for a
	// reaction with no targets ("run once, not entity-scoped").
	Entity world.Entity

	reader  world.Reader
	capture *track.Capture
}

// Get performs a fine-grained tracked read of component t on entity e.
//
// The version stamp is recorded at the moment of the read, not at capture
// commit: a write landing between the read and the snapshot commit must
// show up as staleness on the next pass, never be masked by it. The stamp
// is therefore taken before the value.
//
// Returns a MISSING_COMPONENT RecordError if the component is absent.
func (s Scope) Get(e world.Entity, t world.ComponentType) (world.Value, error) {
	ver, ok := s.reader.Version(e, t)
	if !ok {
		// Absence is tracked too: record the read at stamp 0 so the
		// component appearing later marks this record stale, while
		// continued absence keeps it dormant.
		s.capture.Record(e, t, 0)
		return nil, NewMissingComponentError(e, t)
	}
	s.capture.Record(e, t, ver)

	v, ok := s.reader.Get(e, t)
	if !ok {
		return nil, NewMissingComponentError(e, t)
	}
	return v, nil
}

// GetScoped is Get against the scope's own target entity.
func (s Scope) GetScoped(t world.ComponentType) (world.Value, error) {
	return s.Get(s.Entity, t)
}

// Query performs a coarse tracked read of every entity carrying component
// type t. Staleness is tracked at whole-type granularity: the record goes
// stale when any instance of t is written or removed, mirroring the
// engine's coarse reactivity mode.
func (s Scope) Query(t world.ComponentType) []world.Entity {
	s.capture.RecordType(t, s.reader.TypeVersion(t))
	return s.reader.EntitiesWith(t)
}

// Lookup is an untracked read. It never records a dependency: use it for
// state the reaction should observe but not re-run on.
func (s Scope) Lookup(e world.Entity, t world.ComponentType) (world.Value, bool) {
	return s.reader.Get(e, t)
}
