package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"privacyviz/redactor/pkg/config"
)

// JobMetrics tracks the retroactive redaction job.
//
// Metrics:
//   - privacyviz_redactor_runs_total: Job runs by status
//   - privacyviz_redactor_run_duration_seconds: Job run duration
//   - privacyviz_redactor_last_success_timestamp_seconds: Finish time of the last successful run
//   - privacyviz_redactor_intervals_total: Redacted intervals by data type and mode
//   - privacyviz_redactor_records_deleted_total: Deleted records by data type and mode
//   - privacyviz_redactor_policy_errors_total: Unusable policies by kind
type JobMetrics struct {
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	lastSuccess     prometheus.Gauge
	intervalsTotal  *prometheus.CounterVec
	deletedTotal    *prometheus.CounterVec
	policyErrsTotal *prometheus.CounterVec
}

// NewJobMetrics creates and registers job metrics with the provided registry.
func NewJobMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *JobMetrics {
	jm := &JobMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_total",
				Help:      "Total number of redaction job runs",
			},
			[]string{"status"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of redaction job runs in seconds",
				// A run over the whole member base takes seconds to tens of minutes
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
			},
		),

		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful redaction run",
			},
		),

		intervalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "intervals_total",
				Help:      "Total number of redacted intervals",
			},
			[]string{"data_type", "mode"},
		),

		deletedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "records_deleted_total",
				Help:      "Total number of event records deleted by the redaction job",
			},
			[]string{"data_type", "mode"},
		),

		policyErrsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policy_errors_total",
				Help:      "Total number of policies the redaction job could not apply",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		jm.runsTotal,
		jm.runDuration,
		jm.lastSuccess,
		jm.intervalsTotal,
		jm.deletedTotal,
		jm.policyErrsTotal,
	)

	return jm
}

// RecordRun records a finished run.
func (jm *JobMetrics) RecordRun(status string, duration time.Duration) {
	jm.runsTotal.WithLabelValues(status).Inc()
	jm.runDuration.Observe(duration.Seconds())
	if status == "success" {
		jm.lastSuccess.SetToCurrentTime()
	}
}

// RecordDeletion records one redacted interval.
func (jm *JobMetrics) RecordDeletion(dataType, mode string, deleted int64) {
	jm.intervalsTotal.WithLabelValues(dataType, mode).Inc()
	if deleted > 0 {
		jm.deletedTotal.WithLabelValues(dataType, mode).Add(float64(deleted))
	}
}

// RecordPolicyError records an unusable policy.
func (jm *JobMetrics) RecordPolicyError(kind string) {
	jm.policyErrsTotal.WithLabelValues(kind).Inc()
}
