package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"privacyviz/redactor/pkg/config"
)

// FilterMetrics tracks the read-time filter.
//
// Metrics:
//   - privacyviz_redactor_filtered_records_total: Records passed through the filter by data type, mode and outcome
type FilterMetrics struct {
	recordsTotal *prometheus.CounterVec
}

// NewFilterMetrics creates and registers filter metrics with the provided registry.
func NewFilterMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *FilterMetrics {
	fm := &FilterMetrics{
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "filtered_records_total",
				Help:      "Total number of records passed through the read filter",
			},
			[]string{"data_type", "mode", "outcome"},
		),
	}

	registry.MustRegister(fm.recordsTotal)

	return fm
}

// RecordFiltered records the outcome of one filtered read.
func (fm *FilterMetrics) RecordFiltered(dataType, mode string, kept, hidden int) {
	fm.recordsTotal.WithLabelValues(dataType, mode, "kept").Add(float64(kept))
	fm.recordsTotal.WithLabelValues(dataType, mode, "hidden").Add(float64(hidden))
}
