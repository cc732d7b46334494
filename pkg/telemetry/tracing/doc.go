// Package tracing provides OpenTelemetry tracing for jobhook.
//
// # Overview
//
// A Tracer wraps an OpenTelemetry TracerProvider that exports spans over
// OTLP/gRPC. The evaluator accepts a Tracer through engine.WithTracer and
// emits one "jobhook.evaluate" span per job with a "jobhook.rule.<name>"
// child per rule.
//
// # Sampling Strategies
//
//   - always: sample every evaluation
//   - never: sample nothing
//   - ratio: sample a fraction of evaluations by trace ID
//
// All samplers respect the parent's decision, so a replayed job that carries
// a sampled trace context is always recorded.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	eval, err := engine.New(engineCfg, engine.WithTracer(tracer))
//
// # Trace Context
//
// Job records may carry a W3C trace context map:
//
//	{"traceparent": "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"}
//
// ExtractFromMap turns it into a parent context for the evaluation span.
package tracing
