// Package telemetry groups the observability packages of the redactor.
//
//   - logging: slog setup with email and credential masking
//   - metrics: Prometheus metrics for the retention job and the read filter
//   - health: liveness and readiness probes for `redactor serve`
//   - tracing: OpenTelemetry spans for retention job runs
package telemetry
