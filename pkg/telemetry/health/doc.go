// Package health serves liveness, readiness and version endpoints for the
// long-running jobhook commands.
//
// Components register a CheckFunc; readiness runs them concurrently with a
// per-check timeout and reports "degraded" (HTTP 503) if any fails:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("evidence", func(ctx context.Context) error {
//		_, err := store.Count(ctx, &evidence.Query{})
//		return err
//	})
//	health.Register(mux, checker, health.VersionInfo{Version: version})
package health
