package health

import (
	"context"
	"fmt"

	"privacyviz/redactor/pkg/redaction/retention"
)

// Pinger is implemented by storage backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck reports a backend as unhealthy when it cannot be reached.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// RunResulter is implemented by *retention.Scheduler.
type RunResulter interface {
	LastResult() (*retention.Report, error)
}

// LastRunCheck reports the scheduler as unhealthy while its most recent
// run has failed. A scheduler that has not run yet is healthy.
func LastRunCheck(s RunResulter) CheckFunc {
	return func(ctx context.Context) error {
		report, err := s.LastResult()
		if err == nil {
			return nil
		}
		if report != nil {
			return fmt.Errorf("last run %s failed after %d deletions: %w", report.RunID, report.TotalDeleted, err)
		}
		return fmt.Errorf("last run failed: %w", err)
	}
}
