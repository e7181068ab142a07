// Package tracing exports OpenTelemetry spans for retention job runs.
//
// A run produces one "redaction.run" span with a child "redaction.pair"
// span per (user, data type) pair in time or location mode. Spans carry the
// run ID, data type, mode and deletion counts; user emails are never
// attached.
//
// When tracing is disabled New returns a Tracer backed by a no-op provider,
// so callers can start spans unconditionally.
package tracing
