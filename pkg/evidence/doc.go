// Package evidence records policy decisions as durable audit entries.
//
// Every evaluation the engine completes can be turned into a DecisionRecord
// holding the job's identity, the analysis results the rules saw, the final
// disposition and any gateway action that failed. Cancellations and
// redirects therefore leave a queryable trail in addition to the log line.
//
// # Layers
//
//  1. recorder: converts engine decisions into records and writes them asynchronously
//  2. storage: persists records (SQLite or in-memory)
//  3. query and export: validate filters and render results as JSON or CSV
//  4. retention: prunes by age or record count on a cron schedule
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{Path: "data/evidence.db", WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	rec := recorder.New(store, recorder.DefaultConfig())
//	defer rec.Close()
//
//	evaluator, err := engine.New(cfg, engine.WithDecisionRecorder(rec))
//
// Records are written off the evaluation path; a full buffer drops the record
// after the configured write timeout instead of delaying the print job.
package evidence
