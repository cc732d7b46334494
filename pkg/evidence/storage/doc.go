// Package storage provides backends for decision evidence records.
//
//   - SQLiteStorage: durable, single-node storage on the pure-Go modernc.org/sqlite driver
//   - MemoryStorage: in-process storage for tests and dry runs
//
// # SQLite Backend
//
// The schema is created on first open and tracked in a schema_version table.
// Timestamps and durations are stored as integer nanoseconds; rule outcomes
// and failed actions are stored as JSON and filtered with SQLite's JSON
// functions. WAL mode is enabled when configured and busy_timeout is applied
// to every pooled connection.
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:        "data/evidence.db",
//	    WALMode:     true,
//	    BusyTimeout: 5 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	canceled, err := store.Query(ctx, &evidence.Query{Disposition: "canceled", Limit: 50})
//
// Both backends order query results by evaluation time, newest first unless
// SortOrder is "asc", and are safe for concurrent use.
package storage
