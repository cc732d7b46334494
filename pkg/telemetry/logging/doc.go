// Package logging provides structured logging for jobhook.
//
// # Overview
//
// The logging package wraps log/slog to provide:
//   - JSON and text output with a configurable level
//   - Optional redaction of usernames and email addresses
//   - Job fields (job_id, user, printer, evaluation_id) carried on the context
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:     "info",
//	    Format:    "json",
//	    RedactPII: true,
//	})
//
//	// Packages take a plain *slog.Logger.
//	eval, err := engine.New(cfg, engine.WithLogger(logger.Slog()))
//
//	ctx = logging.WithJobID(ctx, snap.JobID)
//	logger.InfoContext(ctx, "job received")  // includes job_id
//
// # Redaction
//
// With RedactPII enabled, values under user-identifying keys keep their
// first character and email addresses keep only their domain:
//
//   - user=jdoe → user=j***
//   - jdoe@example.com → j***@example.com
package logging
