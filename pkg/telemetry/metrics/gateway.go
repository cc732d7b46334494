package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/jobhook/pkg/config"
)

// GatewayMetrics tracks prompt answers and failed host actions.
type GatewayMetrics struct {
	promptResponses *prometheus.CounterVec
	failuresTotal   *prometheus.CounterVec
}

// NewGatewayMetrics creates and registers gateway metrics with the provided registry.
func NewGatewayMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GatewayMetrics {
	gm := &GatewayMetrics{
		promptResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "prompt_responses_total",
				Help:      "Color prompt answers by response",
			},
			[]string{"response"},
		),

		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gateway_failures_total",
				Help:      "Failed gateway actions by action",
			},
			[]string{"action"},
		),
	}

	registry.MustRegister(gm.promptResponses, gm.failuresTotal)

	return gm
}

// RecordPromptResponse records a prompt answer. Empty responses are
// recorded as "none".
func (gm *GatewayMetrics) RecordPromptResponse(response string) {
	if response == "" {
		response = "none"
	}
	gm.promptResponses.WithLabelValues(response).Inc()
}

// RecordFailure records a failed gateway action.
func (gm *GatewayMetrics) RecordFailure(action string) {
	gm.failuresTotal.WithLabelValues(action).Inc()
}
