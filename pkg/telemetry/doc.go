// Package telemetry groups the observability packages used by jobhook.
//
// # Components
//
//   - logging: slog setup with optional username and email redaction
//   - metrics: Prometheus collector for evaluations, rules, prompts,
//     gateway failures, reloads and evidence
//   - tracing: OpenTelemetry spans for evaluations and rules, exported
//     over OTLP/gRPC
//   - health: liveness and readiness endpoints for long-running commands
//
// # Usage
//
//	logger, _ := logging.New(logging.FromConfig(&cfg.Telemetry.Logging, os.Stderr))
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing)
//	defer tracer.Shutdown(context.Background())
//
//	ev, _ := engine.New(cfg.EngineConfig(),
//		engine.WithLogger(logger.Slog()),
//		engine.WithMetrics(collector),
//		engine.WithTracer(tracer),
//	)
package telemetry
