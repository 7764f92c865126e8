// Package scenario loads declarative YAML scripts for driving the engine
// in tests, golden traces, and the CLI's run command.
//
// A scenario names its entities and reactions symbolically; the harness
// resolves names to store entity IDs and reaction IDs at spawn time.
// Documents are validated against an embedded CUE schema before decoding.
package scenario
