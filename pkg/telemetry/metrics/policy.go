package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/jobhook/pkg/config"
)

// PolicyMetrics tracks evaluations and rule outcomes.
type PolicyMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	hitsTotal          *prometheus.CounterVec
	missesTotal        *prometheus.CounterVec
}

// NewPolicyMetrics creates and registers policy metrics with the provided registry.
func NewPolicyMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PolicyMetrics {
	pm := &PolicyMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of print job evaluations",
			},
			[]string{"disposition", "analysis"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of print job evaluation in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"disposition"},
		),

		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_hits_total",
				Help:      "Total number of jobs a rule applied to",
			},
			[]string{"rule"},
		),

		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_misses_total",
				Help:      "Total number of jobs a rule did not apply to",
			},
			[]string{"rule"},
		),
	}

	registry.MustRegister(
		pm.evaluationsTotal,
		pm.evaluationDuration,
		pm.hitsTotal,
		pm.missesTotal,
	)

	return pm
}

// RecordEvaluation records a finished evaluation.
func (pm *PolicyMetrics) RecordEvaluation(disposition string, analysisPending bool, duration time.Duration) {
	analysis := "complete"
	if analysisPending {
		analysis = "pending"
	}
	pm.evaluationsTotal.WithLabelValues(disposition, analysis).Inc()
	pm.evaluationDuration.WithLabelValues(disposition).Observe(duration.Seconds())
}

// RecordHit records a rule that applied.
func (pm *PolicyMetrics) RecordHit(rule string) {
	pm.hitsTotal.WithLabelValues(rule).Inc()
}

// RecordMiss records a rule that did not apply.
func (pm *PolicyMetrics) RecordMiss(rule string) {
	pm.missesTotal.WithLabelValues(rule).Inc()
}
