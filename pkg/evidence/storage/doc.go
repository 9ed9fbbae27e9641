// Package storage provides backends for run records.
//
//   - SQLite: durable storage for the CLI and watch mode
//   - Memory: in-memory storage for tests and one-shot runs
//
// The SQLite backend runs in WAL mode with a busy timeout. Timestamps are
// stored as Unix nanoseconds so range filters compare numerically, and fired
// rules are stored as a JSON column alongside a delimited rule id list used
// for filtering.
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:    "data/evidence.db",
//	    WALMode: true,
//	})
package storage
