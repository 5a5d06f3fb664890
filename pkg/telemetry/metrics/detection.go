package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"crucible-hq/crucible/pkg/config"
)

// DetectionMetrics tracks rationale analyses.
//
// Metrics:
//   - analyses_total: analyses by verdict
//   - rule_matches_total: matches by rule and category
//   - analysis_duration_seconds: time spent in the engine
type DetectionMetrics struct {
	analysesTotal    *prometheus.CounterVec
	ruleMatchesTotal *prometheus.CounterVec
	analysisDuration prometheus.Histogram
}

// NewDetectionMetrics creates and registers detection metrics.
func NewDetectionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DetectionMetrics {
	dm := &DetectionMetrics{
		analysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "analyses_total",
				Help:      "Total number of rationales analyzed",
			},
			[]string{"flagged"},
		),

		ruleMatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_matches_total",
				Help:      "Total number of pattern matches by rule",
			},
			[]string{"rule", "category"},
		),

		analysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "analysis_duration_seconds",
				Help:      "Duration of rationale analysis in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
			},
		),
	}

	registry.MustRegister(dm.analysesTotal, dm.ruleMatchesTotal, dm.analysisDuration)
	return dm
}

// RecordAnalysis records one analysis.
func (dm *DetectionMetrics) RecordAnalysis(flagged bool, duration time.Duration) {
	dm.analysesTotal.WithLabelValues(strconv.FormatBool(flagged)).Inc()
	dm.analysisDuration.Observe(duration.Seconds())
}

// RecordMatch records one rule match.
func (dm *DetectionMetrics) RecordMatch(rule, category string) {
	dm.ruleMatchesTotal.WithLabelValues(rule, category).Inc()
}
