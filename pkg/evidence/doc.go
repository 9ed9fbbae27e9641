// Package evidence keeps an audit trail of rule engine runs.
//
// Every processed project produces one RunRecord: a hash of the facts that
// went in, the hash and git provenance of the rule set, each fired rule with
// its citation label and annotations, and the totals. Records are written to
// a Storage backend (SQLite or memory), queried and exported by the CLI, and
// pruned by the retention package.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:    "data/evidence.db",
//	    WALMode: true,
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	rec := recorder.New(store, nil, logger)
//	record, err := rec.Record(ctx, recorder.Run{...})
//
// # Subpackages
//
//   - storage: SQLite and in-memory backends
//   - recorder: builds and writes run records
//   - query: query validation and defaults
//   - export: JSON and CSV exporters
//   - retention: age and count based pruning on a cron schedule
package evidence
