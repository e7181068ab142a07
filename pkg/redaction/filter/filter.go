// Package filter hides redacted records from reads that happen before the
// retention job has deleted them.
package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"privacyviz/redactor/pkg/redaction"
	"privacyviz/redactor/pkg/redaction/evaluator"
)

// Metrics receives filter measurements. A nil Metrics disables them.
type Metrics interface {
	RecordFiltered(dataType, mode string, kept, hidden int)
}

// Filter applies a user's policy to a batch of event records.
type Filter struct {
	evaluator *evaluator.Evaluator
	metrics   Metrics
	logger    *slog.Logger
}

// New creates a Filter.
func New(eval *evaluator.Evaluator) *Filter {
	return &Filter{
		evaluator: eval,
		logger:    slog.Default().With("component", "redaction.filter"),
	}
}

// WithMetrics sets the metrics sink and returns the filter.
func (f *Filter) WithMetrics(m Metrics) *Filter {
	f.metrics = m
	return f
}

// Apply returns the records of dataType that the user's policy leaves
// visible, in their original order. records must be ordered by timestamp
// and lie within window.
//
// A missing policy hides nothing. A malformed policy is returned as a
// *redaction.PolicyParseError.
func (f *Filter) Apply(ctx context.Context, user *redaction.User, dataType string, records []*redaction.EventRecord, window redaction.Window) ([]*redaction.EventRecord, error) {
	eval, err := f.evaluator.Evaluate(ctx, user, dataType, window)

	var missing *redaction.MissingPolicyError
	if errors.As(err, &missing) {
		f.logger.Debug("no policy object for mode",
			"email", user.Email,
			"data_type", dataType,
			"mode", missing.Mode,
		)
		return records, nil
	}
	if err != nil {
		return nil, err
	}

	var kept []*redaction.EventRecord
	switch eval.Mode() {
	case redaction.ModeOn:
		kept = records
	case redaction.ModeOff:
		kept = []*redaction.EventRecord{}
	case redaction.ModeTime:
		kept = excludeAny(records, eval.Intervals, eval.ApplyTS)
	case redaction.ModeLocation:
		kept = narrow(records, eval.Intervals, eval.ApplyTS)
	default:
		return nil, fmt.Errorf("unhandled mode %q", eval.Mode())
	}

	if f.metrics != nil {
		f.metrics.RecordFiltered(dataType, string(eval.Mode()), len(kept), len(records)-len(kept))
	}

	return kept, nil
}

// excludeAny keeps the records outside every interval, bounds included:
// a record on a window's start or end is hidden. Records before applyTS
// are always kept.
func excludeAny(records []*redaction.EventRecord, intervals []redaction.Interval, applyTS int64) []*redaction.EventRecord {
	kept := make([]*redaction.EventRecord, 0, len(records))
	for _, r := range records {
		if !hidden(r.Timestamp, intervals, applyTS) {
			kept = append(kept, r)
		}
	}
	return kept
}

func hidden(ts int64, intervals []redaction.Interval, applyTS int64) bool {
	if ts < applyTS {
		return false
	}
	for _, iv := range intervals {
		if iv.Contains(ts) {
			return true
		}
	}
	return false
}

// narrow walks the intervals in order. Each interval decides the records up
// to its end; the rest carry over to the next interval, and whatever is
// left after the last one is kept. Intervals must be ordered and
// non-overlapping.
func narrow(records []*redaction.EventRecord, intervals []redaction.Interval, applyTS int64) []*redaction.EventRecord {
	kept := make([]*redaction.EventRecord, 0, len(records))
	rest := records

	for _, iv := range intervals {
		i := 0
		for ; i < len(rest) && rest[i].Timestamp <= iv.EndTS; i++ {
			r := rest[i]
			if r.Timestamp < applyTS || !iv.Covers(r.Timestamp) {
				kept = append(kept, r)
			}
		}
		rest = rest[i:]
	}

	return append(kept, rest...)
}
