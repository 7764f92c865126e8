// Package track records, per reaction execution, the set of component
// reads performed and the version stamps observed, and answers the
// staleness question that drives re-scheduling.
//
// A reaction body runs inside a capture scope (Begin/End). Every tracked
// read funnels into the live capture, producing a Snapshot: an unordered
// set of (entity, type, stamp) entries deduplicated by (entity, type). On
// later passes, Stale compares the snapshot against fresh stamps from the
// store; any drift (or the disappearance of a previously-read component)
// marks the reaction for re-execution.
//
// Two granularities coexist in one snapshot: fine-grained entries pin a
// specific entity's component instance, coarse entries (Entity ==
// world.NoEntity) pin a component type's high-water stamp and go stale when
// any instance of the type changes.
package track
