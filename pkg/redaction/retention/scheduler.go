package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the job on a cron schedule. A run that is still going when
// the next one is due causes that next one to be skipped.
type Scheduler struct {
	job     *Job
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool

	lastReport *Report
	lastErr    error
}

// NewScheduler creates a scheduler for job using job's Schedule and
// Timezone.
func NewScheduler(job *Job) (*Scheduler, error) {
	loc := time.UTC
	if tz := job.config.Timezone; tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid schedule timezone %q: %w", tz, err)
		}
	}

	logger := slog.Default().With("component", "redaction.scheduler")

	return &Scheduler{
		job: job,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(
				cron.Recover(cronLogger{logger}),
				cron.SkipIfStillRunning(cronLogger{logger}),
			),
		),
		logger: logger,
	}, nil
}

// Start begins scheduled runs. The scheduler stops when ctx is cancelled.
//
// Common cron expressions:
//   - "12 2 * * *"   - Daily at 02:12
//   - "0 */6 * * *"  - Every 6 hours
//
// If Schedule is empty, the scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.job.config.Schedule
	if schedule == "" {
		s.logger.Info("redaction schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.runJob(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule redaction: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("redaction scheduler started",
		"schedule", schedule,
		"timezone", s.cron.Location().String(),
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runJob(ctx context.Context) {
	s.logger.Info("starting scheduled redaction")

	report, err := s.job.Run(ctx)

	s.mu.Lock()
	s.lastReport, s.lastErr = report, err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled redaction failed", "error", err)
		return
	}

	s.logger.Info("scheduled redaction completed",
		"run_id", report.RunID,
		"total_deleted", report.TotalDeleted,
	)
}

// Stop stops the scheduler and waits for a running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cron == nil || !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	// runJob takes the lock when it finishes, so wait unlocked.
	<-s.cron.Stop().Done()
	s.logger.Info("redaction scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled run time.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}

// LastResult returns the report and error of the most recent scheduled run.
func (s *Scheduler) LastResult() (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastReport, s.lastErr
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
