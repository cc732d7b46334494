// Package metrics provides Prometheus metrics for jobhook.
//
// # Metrics
//
// With the default namespace "jobhook" and subsystem "policy":
//
//   - jobhook_policy_evaluations_total{disposition,analysis}
//   - jobhook_policy_evaluation_duration_seconds{disposition}
//   - jobhook_policy_rule_hits_total{rule}
//   - jobhook_policy_rule_misses_total{rule}
//   - jobhook_policy_prompt_responses_total{response}
//   - jobhook_policy_gateway_failures_total{action}
//   - jobhook_policy_reloads_total{result}
//   - jobhook_policy_evidence_records_total{outcome}
//   - jobhook_policy_evidence_pruned_total
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	eval, err := engine.New(engineCfg, engine.WithMetrics(collector))
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Every Record method is a no-op when metrics are disabled.
package metrics
