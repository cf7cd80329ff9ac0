// Package conflict classifies and resolves divergent replicas of a record.
//
// Everything here is pure: no I/O, no shared state, safe for concurrent use.
// The Detector classifies a local/remote pair; Resolve applies a strategy
// to the pair using an entity-specific Merger.
package conflict
