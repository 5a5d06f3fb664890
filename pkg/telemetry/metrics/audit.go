package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"crucible-hq/crucible/pkg/config"
)

// AuditMetrics tracks audit log writes.
//
// Metrics:
//   - audit_appends_total: append attempts by event type and result
//   - audit_append_duration_seconds: append latency by event type
//   - validations_total: validation sessions by outcome
type AuditMetrics struct {
	appendsTotal     *prometheus.CounterVec
	appendDuration   *prometheus.HistogramVec
	validationsTotal *prometheus.CounterVec
}

// NewAuditMetrics creates and registers audit metrics.
func NewAuditMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AuditMetrics {
	am := &AuditMetrics{
		appendsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_appends_total",
				Help:      "Total number of audit append attempts",
			},
			[]string{"event_type", "result"},
		),

		appendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_append_duration_seconds",
				Help:      "Duration of durable audit appends in seconds",
				// fsync dominates: 100µs to ~1.6s
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"event_type"},
		),

		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validations_total",
				Help:      "Total number of validation sessions recorded",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(am.appendsTotal, am.appendDuration, am.validationsTotal)
	return am
}

// RecordAppend records one append attempt.
func (am *AuditMetrics) RecordAppend(eventType string, err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	am.appendsTotal.WithLabelValues(eventType, result).Inc()
	am.appendDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

// RecordValidation records one validation session.
func (am *AuditMetrics) RecordValidation(outcome string) {
	am.validationsTotal.WithLabelValues(outcome).Inc()
}
