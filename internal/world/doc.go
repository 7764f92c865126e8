// Package world defines the component store contract the reverb engine
// consumes, and provides a reference in-memory implementation.
//
// The contract has three parts:
//
//   - Typed component values keyed by entity identity (Get/Set/Remove).
//   - A monotonically increasing version stamp per component instance,
//     advanced by every write (Version), plus a per-type high-water stamp
//     for coarse change tracking (TypeVersion).
//   - Shared (read) and exclusive (write) access that can be held
//     concurrently within a pass; the reference World serializes
//     conflicting accesses with an RWMutex.
//
// The engine never mutates storage except through the Writer interface, so
// a host application can substitute its own store as long as it honors
// per-pair version monotonicity.
package world
