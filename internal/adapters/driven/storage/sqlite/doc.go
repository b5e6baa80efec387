// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - BookStore: Book, chapter, chunk and index status persistence
//   - ConceptStore: Concept map persistence
//   - SummaryStore: Chapter summary and synopsis persistence
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a .up.sql file applied in order.
//
// # Data Location
//
// By default, the database is stored at ~/.bookqa/data/metadata.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
