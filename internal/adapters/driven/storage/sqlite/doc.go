// Package sqlite provides SQLite-backed implementations of the driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Two databases share the same schema and migrations:
//
//   - Store (local.db): the device replica. It implements LocalStore for users,
//     daily logs and settings, plus ConflictStore and SchedulerStore.
//   - RemoteStore (remote.db): a file-backed stand-in for the cloud document
//     store. It implements RemoteStore for each entity and ChangeFeed.
//
// Records are stored as versioned JSON documents encoded by the schema package,
// so older documents are upgraded when read.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the databases are stored under ~/.eunio/data.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
