// Package recorder converts engine decisions into evidence records.
//
// Recorder implements engine.DecisionRecorder. Each decision is turned into
// an evidence.DecisionRecord, stamped with a fresh UUID and a SHA-256 content
// hash, and pushed onto a buffered channel. A single worker drains the
// channel into the storage backend.
//
//	rec := recorder.New(store, recorder.FromConfig(&cfg.Evidence),
//	    recorder.WithLogger(logger),
//	    recorder.WithMetrics(collector),
//	)
//	defer rec.Close()
//
//	evaluator, err := engine.New(engineCfg, engine.WithDecisionRecorder(rec))
//
// Evaluation never waits on storage. When the buffer stays full for longer
// than WriteTimeout the record is dropped and counted as "dropped"; storage
// errors are counted as "failed". Close drains the buffer before returning.
//
// Usernames can be stored as "sha256:<hex>" digests with HashUsernames.
package recorder
