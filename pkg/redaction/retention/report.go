package retention

import (
	"time"

	"privacyviz/redactor/pkg/redaction"
)

// Report summarises one run of the job.
type Report struct {
	RunID      string    `json:"run_id"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Users is the number of users examined.
	Users int `json:"users"`
	// Pairs is the number of (user, data type) pairs in time or location
	// mode.
	Pairs int `json:"pairs"`

	// Deletions holds one entry per evaluated interval, in processing order.
	Deletions []Deletion `json:"deletions"`
	// Failures holds the pairs skipped because of a malformed policy.
	Failures []Failure `json:"failures,omitempty"`

	// TotalDeleted is the sum of Deletions[i].Deleted. In a dry run it is
	// the number of records that would have been deleted.
	TotalDeleted int64 `json:"total_deleted"`
}

// Deletion is the outcome of one interval.
type Deletion struct {
	Email    string             `json:"email"`
	DataType string             `json:"data_type"`
	Mode     redaction.Mode     `json:"mode"`
	Interval redaction.Interval `json:"interval"`
	Deleted  int64              `json:"deleted"`
}

// Failure records a pair whose policy could not be evaluated.
type Failure struct {
	Email    string `json:"email"`
	DataType string `json:"data_type"`
	Error    string `json:"error"`
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// DeletedFor returns the number of records deleted for one pair.
func (r *Report) DeletedFor(email, dataType string) int64 {
	var n int64
	for _, d := range r.Deletions {
		if d.Email == email && d.DataType == dataType {
			n += d.Deleted
		}
	}
	return n
}

// userReport collects the results of one user so that parallel runs can be
// merged in user order.
type userReport struct {
	pairs     int
	deletions []Deletion
	failures  []Failure
}

func (r *Report) merge(u *userReport) {
	r.Users++
	r.Pairs += u.pairs
	r.Deletions = append(r.Deletions, u.deletions...)
	r.Failures = append(r.Failures, u.failures...)
	for _, d := range u.deletions {
		r.TotalDeleted += d.Deleted
	}
}
