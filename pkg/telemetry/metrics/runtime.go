package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/jobhook/pkg/config"
)

// RuntimeMetrics tracks policy reloads and evidence storage.
type RuntimeMetrics struct {
	reloadsTotal  *prometheus.CounterVec
	evidenceTotal *prometheus.CounterVec
	prunedTotal   prometheus.Counter
}

// NewRuntimeMetrics creates and registers runtime metrics with the provided registry.
func NewRuntimeMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RuntimeMetrics {
	rm := &RuntimeMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reloads_total",
				Help:      "Policy reload attempts by result",
			},
			[]string{"result"},
		),

		evidenceTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evidence_records_total",
				Help:      "Decision records by outcome",
			},
			[]string{"outcome"},
		),

		prunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evidence_pruned_total",
				Help:      "Decision records removed by retention",
			},
		),
	}

	registry.MustRegister(rm.reloadsTotal, rm.evidenceTotal, rm.prunedTotal)

	return rm
}

// RecordReload records a reload attempt.
func (rm *RuntimeMetrics) RecordReload(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	rm.reloadsTotal.WithLabelValues(result).Inc()
}

// RecordEvidence records a decision record outcome.
func (rm *RuntimeMetrics) RecordEvidence(outcome string) {
	rm.evidenceTotal.WithLabelValues(outcome).Inc()
}

// RecordPruned adds count pruned records.
func (rm *RuntimeMetrics) RecordPruned(count int64) {
	rm.prunedTotal.Add(float64(count))
}
