// Package domain defines the core business entities for the Eunio sync engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - User, DailyLog, UserSettings: the replicated health-tracking records
//   - SyncResult: counters and per-record errors for one sync pass
//   - SyncStatus: the phase a sync pass is in
//   - Resolution: the outcome of reconciling a local and a remote replica
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
