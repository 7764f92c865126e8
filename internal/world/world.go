package world

import (
	"sort"
	"sync"
)

// Entity is an opaque, stable handle into the component store.
// The zero value is never a live entity.
type Entity int64

// NoEntity is the zero Entity. Reactions with no targets execute against it.
const NoEntity Entity = 0

// ComponentType identifies a kind of component, e.g. "health" or "damage".
type ComponentType string

// Value is a component value. The store treats values as opaque; typed
// access is the caller's concern.
type Value any

// Reader is the shared-access half of the store contract consumed by the
// scheduler and tracked reads.
//
// Version must be monotonic per (entity, component type): any write strictly
// increases the stamp. TypeVersion is the high-water stamp across all
// instances of a type, used for coarse (whole-type) change tracking.
type Reader interface {
	Get(e Entity, t ComponentType) (Value, bool)
	Version(e Entity, t ComponentType) (int64, bool)
	TypeVersion(t ComponentType) int64
	EntitiesWith(t ComponentType) []Entity
	Alive(e Entity) bool
}

// Writer is the exclusive-access half of the store contract. Set replaces
// the value and bumps the version stamp; Remove deletes the instance and
// bumps the type-level stamp so coarse readers observe the removal.
type Writer interface {
	Set(e Entity, t ComponentType, v Value)
	Remove(e Entity, t ComponentType)
}

// Store is the full contract the engine threads through every pass.
type Store interface {
	Reader
	Writer
}

type instance struct {
	value   Value
	version int64
}

// World is the reference Store implementation: an in-memory versioned
// component registry. The engine only depends on the Reader/Writer
// interfaces; a host application may substitute its own storage.
//
// Thread-safety: all methods are safe for concurrent use. Reads take a
// shared lock, writes an exclusive one, which satisfies the per-component
// read/write exclusivity the engine's parallel pass mode relies on.
type World struct {
	mu         sync.RWMutex
	clock      *Clock
	nextID     Entity
	alive      map[Entity]bool
	components map[ComponentType]map[Entity]instance
	typeSeq    map[ComponentType]int64
}

// New creates an empty World with a fresh version clock.
func New() *World {
	return NewWithClock(NewClock())
}

// NewWithClock creates an empty World stamping writes from the given clock.
// Sharing one clock between a World and a journal keeps sequence numbers
// globally comparable in traces.
func NewWithClock(clock *Clock) *World {
	return &World{
		clock:      clock,
		nextID:     1,
		alive:      make(map[Entity]bool),
		components: make(map[ComponentType]map[Entity]instance),
		typeSeq:    make(map[ComponentType]int64),
	}
}

// Clock returns the world's version clock.
func (w *World) Clock() *Clock {
	return w.clock
}

// Spawn mints a new entity ID and marks it alive.
func (w *World) Spawn() Entity {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++
	w.alive[id] = true
	return id
}

// Despawn marks the entity dead and removes all its components.
// Each removed component bumps its type's high-water stamp so both
// fine-grained and coarse readers observe the disappearance.
func (w *World) Despawn(e Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.alive[e] {
		return
	}
	delete(w.alive, e)
	for t, store := range w.components {
		if _, ok := store[e]; ok {
			delete(store, e)
			w.typeSeq[t] = w.clock.Next()
		}
	}
}

// Alive reports whether the entity is alive.
func (w *World) Alive(e Entity) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.alive[e]
}

// Set replaces the component value for (e, t) and stamps it with the next
// clock value. The type-level stamp advances to the same value.
func (w *World) Set(e Entity, t ComponentType, v Value) {
	w.mu.Lock()
	defer w.mu.Unlock()

	store := w.components[t]
	if store == nil {
		store = make(map[Entity]instance)
		w.components[t] = store
	}
	seq := w.clock.Next()
	store[e] = instance{value: v, version: seq}
	w.typeSeq[t] = seq
}

// Remove deletes the component instance for (e, t), if present.
// Removal advances the type-level stamp; the per-instance stamp is gone,
// which trackers treat as staleness (absence of a previously-read value).
func (w *World) Remove(e Entity, t ComponentType) {
	w.mu.Lock()
	defer w.mu.Unlock()

	store := w.components[t]
	if store == nil {
		return
	}
	if _, ok := store[e]; !ok {
		return
	}
	delete(store, e)
	w.typeSeq[t] = w.clock.Next()
}

// Get returns the component value for (e, t).
func (w *World) Get(e Entity, t ComponentType) (Value, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	inst, ok := w.components[t][e]
	if !ok {
		return nil, false
	}
	return inst.value, true
}

// Version returns the version stamp for (e, t), or false if the component
// is absent.
func (w *World) Version(e Entity, t ComponentType) (int64, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	inst, ok := w.components[t][e]
	if !ok {
		return 0, false
	}
	return inst.version, true
}

// TypeVersion returns the high-water stamp for the component type: the
// stamp of the most recent Set or Remove touching any instance of t.
// Returns 0 if the type has never been written.
func (w *World) TypeVersion(t ComponentType) int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.typeSeq[t]
}

// EntitiesWith returns all alive entities carrying a component of type t,
// in ascending entity order for deterministic iteration.
func (w *World) EntitiesWith(t ComponentType) []Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()

	store := w.components[t]
	if len(store) == 0 {
		return nil
	}
	out := make([]Entity, 0, len(store))
	for e := range store {
		if w.alive[e] {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
