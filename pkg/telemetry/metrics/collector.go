package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/jobhook/pkg/config"
)

// Collector owns the jobhook Prometheus metrics. It satisfies the
// evaluator's, the policy manager's and the evidence recorder's metrics
// interfaces.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	policyMetrics  *PolicyMetrics
	gatewayMetrics *GatewayMetrics
	runtimeMetrics *RuntimeMetrics
}

// NewCollector creates a collector and registers its metrics. If registry is
// nil a new registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "jobhook",
//		Subsystem: "policy",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:         cfg,
		registry:       registry,
		policyMetrics:  NewPolicyMetrics(cfg, registry),
		gatewayMetrics: NewGatewayMetrics(cfg, registry),
		runtimeMetrics: NewRuntimeMetrics(cfg, registry),
	}
}

// RecordEvaluation records a finished evaluation.
//
// Parameters:
//   - disposition: "proceed" or "canceled"
//   - analysisPending: true when the job was not yet analyzed
//   - duration: evaluation wall time, including time spent waiting on the user
func (c *Collector) RecordEvaluation(disposition string, analysisPending bool, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.policyMetrics.RecordEvaluation(disposition, analysisPending, duration)
}

// RecordRule records whether a rule applied to a job.
func (c *Collector) RecordRule(rule string, matched bool) {
	if !c.config.Enabled {
		return
	}

	if matched {
		c.policyMetrics.RecordHit(rule)
	} else {
		c.policyMetrics.RecordMiss(rule)
	}
}

// RecordPromptResponse records the user's answer to a color prompt.
func (c *Collector) RecordPromptResponse(response string) {
	if !c.config.Enabled {
		return
	}

	c.gatewayMetrics.RecordPromptResponse(response)
}

// RecordGatewayFailure records a failed gateway action.
func (c *Collector) RecordGatewayFailure(action string) {
	if !c.config.Enabled {
		return
	}

	c.gatewayMetrics.RecordFailure(action)
}

// RecordReload records a policy reload attempt.
func (c *Collector) RecordReload(success bool) {
	if !c.config.Enabled {
		return
	}

	c.runtimeMetrics.RecordReload(success)
}

// RecordEvidence records what happened to a decision record: "stored",
// "dropped" or "failed".
func (c *Collector) RecordEvidence(outcome string) {
	if !c.config.Enabled {
		return
	}

	c.runtimeMetrics.RecordEvidence(outcome)
}

// RecordPruned records evidence records removed by retention.
func (c *Collector) RecordPruned(count int64) {
	if !c.config.Enabled || count <= 0 {
		return
	}

	c.runtimeMetrics.RecordPruned(count)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
