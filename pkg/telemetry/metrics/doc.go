// Package metrics provides Prometheus metrics for the redactor.
//
// A Collector is handed to the retention job and to the read filter:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	job := retention.NewJob(users, events, eval, jobCfg).WithMetrics(collector)
//	f := filter.New(eval).WithMetrics(collector)
//
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// # Metrics
//
//   - runs_total{status}
//   - run_duration_seconds
//   - last_success_timestamp_seconds
//   - intervals_total{data_type,mode}
//   - records_deleted_total{data_type,mode}
//   - policy_errors_total{kind}
//   - filtered_records_total{data_type,mode,outcome}
//
// All names carry the configured namespace and subsystem prefix
// (privacyviz_redactor_ by default). Recording is a no-op when metrics are
// disabled.
package metrics
