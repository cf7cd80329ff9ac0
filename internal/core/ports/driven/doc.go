// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - LocalStore: Device-side persistence with a pending-sync queue, one per entity type
//   - RemoteStore: Remote document persistence, one per entity type
//   - ChangeFeed: The remote "changed since timestamp" query and sync markers
//   - ConflictStore: Conflicts awaiting a manual decision
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SchedulerStore: Scheduler task state. Without it, the scheduler keeps state in memory only.
//   - UnitFormatter: Locale-aware unit formatting. Only used by the cached formatter.
//   - ChangeListener: Notified of records written by sync, used to invalidate caches.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
