// Package sqlite provides the structured index over the part catalog.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. The catalog is projected into a single
// parts table in a shared-cache in-memory database.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Thread Safety
//
// Rows are written once by a single-connection writer pool while the index is
// built. Queries run on a separate pool opened with query_only, so any number
// of goroutines may search concurrently.
package sqlite
