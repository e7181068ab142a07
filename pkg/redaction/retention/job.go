package retention

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"privacyviz/redactor/pkg/redaction"
	"privacyviz/redactor/pkg/redaction/evaluator"
	"privacyviz/redactor/pkg/telemetry/tracing"
)

// Config contains configuration for the redaction job.
type Config struct {
	// Concurrency is the number of users processed in parallel.
	// Default: 1 (sequential)
	Concurrency int

	// DryRun counts matching records instead of deleting them.
	DryRun bool

	// Schedule is a cron expression for the Scheduler.
	// Example: "12 2 * * *" (daily at 02:12)
	Schedule string

	// Timezone is the IANA zone the schedule is interpreted in.
	Timezone string
}

// DefaultConfig returns the default job configuration.
func DefaultConfig() *Config {
	return &Config{
		Concurrency: 1,
		Schedule:    "12 2 * * *",
		Timezone:    "Asia/Seoul",
	}
}

var errNoEmail = errors.New("member document has no email")

// Metrics receives job measurements. A nil Metrics disables them.
type Metrics interface {
	RecordRun(status string, duration time.Duration)
	RecordDeletion(dataType, mode string, deleted int64)
	RecordPolicyError(kind string)
}

// Job applies every user's time and location policies retroactively to the
// event store.
type Job struct {
	users     redaction.UserStore
	events    redaction.EventStore
	evaluator *evaluator.Evaluator
	config    *Config
	metrics   Metrics
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewJob creates a new redaction job.
func NewJob(users redaction.UserStore, events redaction.EventStore, eval *evaluator.Evaluator, config *Config) *Job {
	if config == nil {
		config = DefaultConfig()
	}
	return &Job{
		users:     users,
		events:    events,
		evaluator: eval,
		config:    config,
		tracer:    noop.NewTracerProvider().Tracer("redaction.retention"),
		logger:    slog.Default().With("component", "redaction.retention"),
	}
}

// WithMetrics sets the metrics sink and returns the job.
func (j *Job) WithMetrics(m Metrics) *Job {
	j.metrics = m
	return j
}

// WithTracer sets the tracer that receives run and pair spans and returns
// the job.
func (j *Job) WithTracer(t trace.Tracer) *Job {
	if t != nil {
		j.tracer = t
	}
	return j
}

// Run performs one pass over all users.
//
// A malformed policy is recorded in the report and the run continues; a
// missing policy produces no deletions. Any other error ends the run and is
// returned as a *redaction.RunError together with the partial report.
// Deletes already issued stand; running again resumes.
func (j *Job) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.New().String(),
		DryRun:    j.config.DryRun,
		StartedAt: time.Now(),
	}
	logger := j.logger.With("run_id", report.RunID)

	ctx, span := j.tracer.Start(ctx, tracing.SpanRun, trace.WithAttributes(
		tracing.AttrRunID.String(report.RunID),
		tracing.AttrDryRun.Bool(j.config.DryRun),
	))

	logger.Info("redaction run started", "dry_run", j.config.DryRun)

	err := j.run(ctx, logger, report)
	report.FinishedAt = time.Now()

	span.SetAttributes(
		tracing.AttrUsers.Int(report.Users),
		tracing.AttrPairs.Int(report.Pairs),
		tracing.AttrFailures.Int(len(report.Failures)),
		tracing.AttrTotalDeleted.Int64(report.TotalDeleted),
	)
	tracing.EndSpan(span, err)

	if err != nil {
		j.recordRun("error", report.Duration())
		logger.Error("redaction run aborted",
			"error", err,
			"total_deleted", report.TotalDeleted,
		)
		return report, redaction.NewRunError(report.RunID, err)
	}

	j.recordRun("success", report.Duration())
	logger.Info("redaction run completed",
		"users", report.Users,
		"pairs", report.Pairs,
		"intervals", len(report.Deletions),
		"failures", len(report.Failures),
		"total_deleted", report.TotalDeleted,
		"duration", report.Duration(),
	)

	return report, nil
}

func (j *Job) run(ctx context.Context, logger *slog.Logger, report *Report) error {
	users, err := j.users.ListUsers(ctx)
	if err != nil {
		return err
	}

	now := j.evaluator.Now()
	results := make([]*userReport, len(users))

	concurrency := j.config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, user := range users {
		i, user := i, user // per-iteration copy (go < 1.22 loop semantics)
		g.Go(func() error {
			r, err := j.processUser(gctx, logger, user, now)
			results[i] = r
			return err
		})
	}

	err = g.Wait()

	for _, r := range results {
		if r != nil {
			report.merge(r)
		}
	}

	return err
}

// processUser handles every redacting pair of one user in data type order.
func (j *Job) processUser(ctx context.Context, logger *slog.Logger, user *redaction.User, now int64) (*userReport, error) {
	r := &userReport{}

	// Deletes are scoped by email; a document without one cannot be
	// redacted safely.
	if user.Email == "" {
		logger.Warn("skipping member document without email")
		j.recordPolicyError("no_email")
		r.failures = append(r.failures, Failure{Error: errNoEmail.Error()})
		return r, nil
	}

	for _, dataType := range user.DataTypes() {
		if err := ctx.Err(); err != nil {
			return r, err
		}

		mode := user.Status[dataType]
		if mode == redaction.ModeOn || mode == redaction.ModeOff {
			continue
		}
		r.pairs++

		if err := j.processPair(ctx, logger, user, dataType, now, r); err != nil {
			return r, err
		}
	}

	return r, nil
}

func (j *Job) processPair(ctx context.Context, logger *slog.Logger, user *redaction.User, dataType string, now int64, r *userReport) (err error) {
	ctx, span := j.tracer.Start(ctx, tracing.SpanPair, trace.WithAttributes(
		tracing.AttrDataType.String(dataType),
		tracing.AttrMode.String(string(user.Status[dataType])),
	))
	var deletedTotal int64
	defer func() {
		span.SetAttributes(tracing.AttrDeleted.Int64(deletedTotal))
		tracing.EndSpan(span, err)
	}()

	eval, err := j.evaluator.Evaluate(ctx, user, dataType, redaction.Window{To: now})

	var (
		parseErr   *redaction.PolicyParseError
		missingErr *redaction.MissingPolicyError
	)
	switch {
	case errors.As(err, &parseErr):
		logger.Warn("skipping malformed policy",
			"email", user.Email,
			"data_type", dataType,
			"error", err,
		)
		j.recordPolicyError("parse")
		span.AddEvent("policy.malformed", trace.WithAttributes(attribute.String("cause", parseErr.Cause.Error())))
		r.failures = append(r.failures, Failure{
			Email:    user.Email,
			DataType: dataType,
			Error:    err.Error(),
		})
		return nil
	case errors.As(err, &missingErr):
		logger.Debug("no policy object for mode",
			"email", user.Email,
			"data_type", dataType,
			"mode", missingErr.Mode,
		)
		j.recordPolicyError("missing")
		span.AddEvent("policy.missing")
		return nil
	case err != nil:
		return err
	}

	span.SetAttributes(tracing.AttrIntervals.Int(len(eval.Intervals)))

	for _, iv := range eval.Intervals {
		deleted, err := j.apply(ctx, user.Email, dataType, iv, eval.ApplyTS)
		if err != nil {
			return err
		}
		deletedTotal += deleted

		r.deletions = append(r.deletions, Deletion{
			Email:    user.Email,
			DataType: dataType,
			Mode:     eval.Mode(),
			Interval: iv,
			Deleted:  deleted,
		})
		j.recordDeletion(dataType, string(eval.Mode()), deleted)

		if deleted > 0 {
			logger.Info("records redacted",
				"email", user.Email,
				"data_type", dataType,
				"start_ts", iv.StartTS,
				"end_ts", iv.EndTS,
				"deleted", deleted,
				"dry_run", j.config.DryRun,
			)
		}
	}

	return nil
}

// apply deletes (or counts) the records of one interval at or after the
// policy's ApplyTS.
func (j *Job) apply(ctx context.Context, email, dataType string, iv redaction.Interval, applyTS int64) (int64, error) {
	clipped, ok := iv.AtOrAfter(applyTS)
	if !ok {
		return 0, nil
	}

	query := redaction.NewEventQuery(email, dataType, clipped)
	if j.config.DryRun {
		return j.events.Count(ctx, query)
	}
	return j.events.Delete(ctx, query)
}

func (j *Job) recordRun(status string, d time.Duration) {
	if j.metrics != nil {
		j.metrics.RecordRun(status, d)
	}
}

func (j *Job) recordDeletion(dataType, mode string, deleted int64) {
	if j.metrics != nil {
		j.metrics.RecordDeletion(dataType, mode, deleted)
	}
}

func (j *Job) recordPolicyError(kind string) {
	if j.metrics != nil {
		j.metrics.RecordPolicyError(kind)
	}
}
