package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"crucible-hq/crucible/pkg/config"
)

// Collector owns every gate metric and the registry they live in.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	detectionMetrics *DetectionMetrics
	auditMetrics     *AuditMetrics
}

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil a fresh one is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "crucible",
//		Subsystem: "gate",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := *cfg
	if c.Namespace == "" {
		c.Namespace = config.DefaultMetricsNamespace
	}
	if c.Subsystem == "" {
		c.Subsystem = config.DefaultMetricsSubsystem
	}

	return &Collector{
		config:           &c,
		registry:         registry,
		detectionMetrics: NewDetectionMetrics(&c, registry),
		auditMetrics:     NewAuditMetrics(&c, registry),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordAnalysis records one completed analysis.
func (c *Collector) RecordAnalysis(flagged bool, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.detectionMetrics.RecordAnalysis(flagged, duration)
}

// RecordRuleMatch records one match of a rule.
func (c *Collector) RecordRuleMatch(rule, category string) {
	if !c.enabled() {
		return
	}
	c.detectionMetrics.RecordMatch(rule, category)
}

// RecordValidation records one validation session by outcome.
func (c *Collector) RecordValidation(outcome string) {
	if !c.enabled() {
		return
	}
	c.auditMetrics.RecordValidation(outcome)
}

// RecordAppend records one audit append attempt.
func (c *Collector) RecordAppend(eventType string, err error, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.auditMetrics.RecordAppend(eventType, err, duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteText writes every registered metric in the Prometheus text exposition
// format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
