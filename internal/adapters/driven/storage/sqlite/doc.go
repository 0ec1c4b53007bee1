// Package sqlite provides a SQLite-based implementation of the agent's
// persistence ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements two store interfaces
// through a single database connection:
//
//   - KVStore: Last outcome, last clear and last connection test
//   - HistoryStore: Bounded log of terminal outcomes
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Applied versions are tracked in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.sessync/data/state.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
