// Package engine implements the reactive re-computation core: reaction
// records, the per-tick scheduler sweep, and the derive/switch combinators.
//
// # Execution model
//
// A reaction is spawned into the scheduler with a body and a target entity
// set. Each pass, the scheduler checks every live record's last dependency
// snapshot against the store's current version stamps and re-invokes
// exactly the stale ones (a never-run record is always stale). The body's
// tracked reads are captured into a fresh snapshot, committed wholesale on
// success.
//
// # Kinds
//
//   - Plain: body runs for effect only.
//   - Derive: body returns a value, written back as a component on each
//     target; the write bumps the version clock and downstream readers go
//     stale on their next check.
//   - Switch: a tracked predicate selects one of two untracked producers;
//     the chosen producer's value replaces the opposite branch's component.
//
// # Failure policy
//
// Per-record failures (missing component, dead target, capture misuse) are
// collected into the PassResult and never abort the pass. A failed
// execution keeps its prior snapshot, so the record retries next tick.
//
// # Propagation
//
// There is no intra-pass dependency ordering or fixpoint iteration: when
// record A writes a component record B reads, B observes the change one
// pass later. Propagation is eventually consistent across ticks.
package engine
