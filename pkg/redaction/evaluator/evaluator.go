// Package evaluator turns one user's policy for one data type into
// redaction intervals.
//
// Time policies yield one window per local day, starting at the day of the
// policy's ApplyTS and ending with the last day that starts before the
// evaluation window closes. Location policies yield the dwell intervals of
// the user's trace inside the evaluation window.
//
// The ApplyTS floor is not applied here. Intervals reaching before it are
// returned as computed; the job and the live filter enforce the floor per
// record.
package evaluator

import (
	"context"
	"log/slog"
	"time"

	"privacyviz/redactor/pkg/redaction"
	"privacyviz/redactor/pkg/redaction/dwell"
	"privacyviz/redactor/pkg/redaction/wallclock"
)

// DefaultOffsetHours is the timezone offset of the deployment (KST).
const DefaultOffsetHours = 9

// Config contains configuration for the Evaluator.
type Config struct {
	// OffsetHours is the fixed offset of users' local time from UTC.
	OffsetHours int

	// Gap is the dwell continuity threshold.
	Gap time.Duration

	// Now returns the current time in epoch milliseconds. Nil means the
	// system clock.
	Now func() int64
}

// DefaultConfig returns the default evaluator configuration.
func DefaultConfig() *Config {
	return &Config{
		OffsetHours: DefaultOffsetHours,
		Gap:         dwell.DefaultGap,
	}
}

// Evaluation is the outcome of evaluating one (user, data type) pair.
type Evaluation struct {
	Email     string
	DataType  string
	Policy    redaction.Policy
	ApplyTS   int64
	Intervals []redaction.Interval
}

// Mode returns the mode of the evaluated policy.
func (e *Evaluation) Mode() redaction.Mode {
	if e.Policy == nil {
		return redaction.ModeOn
	}
	return e.Policy.Mode()
}

// Evaluator computes redaction intervals.
type Evaluator struct {
	locations redaction.LocationStore
	extractor *dwell.Extractor
	config    *Config
	logger    *slog.Logger
}

// New creates an Evaluator reading location traces from locations.
func New(locations redaction.LocationStore, config *Config) *Evaluator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Now == nil {
		config.Now = redaction.NowMillis
	}
	return &Evaluator{
		locations: locations,
		extractor: dwell.New(config.Gap),
		config:    config,
		logger:    slog.Default().With("component", "redaction.evaluator"),
	}
}

// OffsetHours returns the configured timezone offset.
func (e *Evaluator) OffsetHours() int {
	return e.config.OffsetHours
}

// Now returns the evaluator's current time in epoch milliseconds.
func (e *Evaluator) Now() int64 {
	return e.config.Now()
}

// Evaluate resolves the policy of dataType for user and computes its
// intervals within window. A zero window.To means now.
//
// Policy errors (*redaction.PolicyParseError, *redaction.MissingPolicyError)
// are returned as is; store errors are returned wrapped in a
// *redaction.StorageError by the store.
func (e *Evaluator) Evaluate(ctx context.Context, user *redaction.User, dataType string, window redaction.Window) (*Evaluation, error) {
	policy, err := user.Policy(dataType)
	if err != nil {
		return nil, err
	}

	if window.To == 0 {
		window.To = e.config.Now()
	}

	eval := &Evaluation{
		Email:    user.Email,
		DataType: dataType,
		Policy:   policy,
		ApplyTS:  redaction.ApplyTS(policy),
	}

	switch p := policy.(type) {
	case *redaction.TimePolicy:
		eval.Intervals = e.timeIntervals(p, window)
	case *redaction.LocationPolicy:
		intervals, err := e.locationIntervals(ctx, user.Email, p, window)
		if err != nil {
			return nil, err
		}
		eval.Intervals = intervals
	}

	e.logger.Debug("policy evaluated",
		"email", user.Email,
		"data_type", dataType,
		"mode", policy.Mode(),
		"intervals", len(eval.Intervals),
	)

	return eval, nil
}

// timeIntervals emits one window per local day from the ApplyTS day up to
// the last day starting before window.To. Days whose window closes at or
// before window.From are skipped.
func (e *Evaluator) timeIntervals(p *redaction.TimePolicy, window redaction.Window) []redaction.Interval {
	offset := e.config.OffsetHours

	anchor := wallclock.DayAnchor(p.ApplyTS, offset)
	if window.From > 0 {
		// Start one day early so a window crossing midnight into the
		// requested range is still produced.
		if first := wallclock.DayAnchor(window.From, offset) - wallclock.DayMillis; first > anchor {
			anchor = first
		}
	}

	var out []redaction.Interval
	for ; anchor < window.To; anchor += wallclock.DayMillis {
		start, end := wallclock.Window(p.Start, p.End, anchor, offset)
		if end <= window.From {
			continue
		}
		out = append(out, redaction.Interval{StartTS: start, EndTS: end})
	}
	return out
}

// locationIntervals reads the trace strictly inside the window, clipped
// below by ApplyTS, and extracts dwell intervals from it.
func (e *Evaluator) locationIntervals(ctx context.Context, email string, p *redaction.LocationPolicy, window redaction.Window) ([]redaction.Interval, error) {
	if p.ApplyTS > window.From {
		window.From = p.ApplyTS
	}

	samples, err := e.locations.Samples(ctx, email, window)
	if err != nil {
		return nil, err
	}

	return e.extractor.Extract(samples, p.Fence), nil
}
