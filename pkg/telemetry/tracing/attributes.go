package tracing

import "go.opentelemetry.io/otel/attribute"

// Span names.
const (
	SpanRun  = "redaction.run"
	SpanPair = "redaction.pair"
)

// Attribute keys.
const (
	AttrRunID        = attribute.Key("redaction.run_id")
	AttrDryRun       = attribute.Key("redaction.dry_run")
	AttrUsers        = attribute.Key("redaction.users")
	AttrPairs        = attribute.Key("redaction.pairs")
	AttrFailures     = attribute.Key("redaction.failures")
	AttrTotalDeleted = attribute.Key("redaction.total_deleted")
	AttrDataType     = attribute.Key("redaction.data_type")
	AttrMode         = attribute.Key("redaction.mode")
	AttrIntervals    = attribute.Key("redaction.intervals")
	AttrDeleted      = attribute.Key("redaction.deleted")
)
