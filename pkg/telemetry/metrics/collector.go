package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"privacyviz/redactor/pkg/config"
)

// Collector owns the Prometheus metrics of the redactor. It satisfies
// retention.Metrics and filter.Metrics, so the job and the read filter
// can record through it directly.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	jobMetrics    *JobMetrics
	filterMetrics *FilterMetrics
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "privacyviz",
//		Subsystem: "redactor",
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

	return &Collector{
		config:        cfg,
		registry:      registry,
		jobMetrics:    NewJobMetrics(cfg, registry),
		filterMetrics: NewFilterMetrics(cfg, registry),
	}
}

// Registry returns the registry the collector registers with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRun records a finished job run.
//
// Parameters:
//   - status: "success" or "error"
//   - duration: wall time of the run
func (c *Collector) RecordRun(status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.jobMetrics.RecordRun(status, duration)
}

// RecordDeletion records one redacted interval and the number of records
// deleted (or counted, in a dry run) for it.
func (c *Collector) RecordDeletion(dataType, mode string, deleted int64) {
	if !c.config.Enabled {
		return
	}
	c.jobMetrics.RecordDeletion(dataType, mode, deleted)
}

// RecordPolicyError records a policy the job could not apply.
//
// Parameters:
//   - kind: "parse" for a malformed policy, "missing" for a mode without a
//     policy object, "no_email" for a member document without an email
func (c *Collector) RecordPolicyError(kind string) {
	if !c.config.Enabled {
		return
	}
	c.jobMetrics.RecordPolicyError(kind)
}

// RecordFiltered records one filtered read.
func (c *Collector) RecordFiltered(dataType, mode string, kept, hidden int) {
	if !c.config.Enabled {
		return
	}
	c.filterMetrics.RecordFiltered(dataType, mode, kept, hidden)
}
