package retention

import (
	"context"
	"testing"
	"time"

	"privacyviz/redactor/pkg/redaction"
)

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		timezone    string
		wantRunning bool
		wantError   bool
	}{
		{
			name:        "default daily schedule in Seoul",
			schedule:    "12 2 * * *",
			timezone:    "Asia/Seoul",
			wantRunning: true,
		},
		{
			name:        "hourly schedule in UTC",
			schedule:    "0 * * * *",
			wantRunning: true,
		},
		{
			name:        "empty schedule - no error, not running",
			schedule:    "",
			wantRunning: false,
		},
		{
			name:      "invalid schedule",
			schedule:  "invalid cron",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, t0)
			job := NewJob(f.store, f.store, f.eval, &Config{Schedule: tt.schedule, Timezone: tt.timezone})

			scheduler, err := NewScheduler(job)
			if err != nil {
				t.Fatalf("NewScheduler() error = %v", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err = scheduler.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Errorf("Start() error = %v, wantError %v", err, tt.wantError)
			}

			if scheduler.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", scheduler.IsRunning(), tt.wantRunning)
			}

			if tt.wantRunning {
				next := scheduler.NextRun()
				if next == nil {
					t.Fatal("NextRun() returned nil for running scheduler")
				}
				if !next.After(time.Now()) {
					t.Errorf("NextRun() = %v, want a future time", next)
				}
			}

			scheduler.Stop()
			if scheduler.IsRunning() {
				t.Error("IsRunning() = true after Stop()")
			}
		})
	}
}

func TestScheduler_NextRunInTimezone(t *testing.T) {
	f := newFixture(t, t0)
	job := NewJob(f.store, f.store, f.eval, DefaultConfig())

	scheduler, err := NewScheduler(job)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer scheduler.Stop()

	seoul, _ := time.LoadLocation("Asia/Seoul")
	next := scheduler.NextRun().In(seoul)
	if next.Hour() != 2 || next.Minute() != 12 {
		t.Errorf("NextRun() = %v, want 02:12 Asia/Seoul", next)
	}
}

func TestScheduler_InvalidTimezone(t *testing.T) {
	f := newFixture(t, t0)
	job := NewJob(f.store, f.store, f.eval, &Config{Schedule: "12 2 * * *", Timezone: "Mars/Olympus"})

	if _, err := NewScheduler(job); err == nil {
		t.Error("NewScheduler() error = nil for unknown timezone")
	}
}

func TestScheduler_RunJobStoresResult(t *testing.T) {
	f := newFixture(t, t0+2*day)
	f.put(t, timeUser("alice@example.com"))
	f.events(t, rec("alice@example.com", "WIFI", anchor+23*hour))

	scheduler, err := NewScheduler(NewJob(f.store, f.store, f.eval, DefaultConfig()))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	scheduler.runJob(context.Background())

	report, err := scheduler.LastResult()
	if err != nil {
		t.Fatalf("LastResult() error = %v", err)
	}
	if report == nil || report.TotalDeleted != 1 {
		t.Errorf("LastResult() report = %+v, want 1 deletion", report)
	}
	if got := f.remaining(t, "alice@example.com", "wifi"); len(got) != 0 {
		t.Errorf("remaining = %v, want none", got)
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	f := newFixture(t, t0)
	scheduler, err := NewScheduler(NewJob(f.store, f.store, f.eval, DefaultConfig()))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	cancel()

	deadline := time.Now().Add(time.Second)
	for scheduler.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler still running after context cancellation")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestReport_Duration(t *testing.T) {
	start := time.Now()
	r := &Report{StartedAt: start, FinishedAt: start.Add(3 * time.Second)}
	if r.Duration() != 3*time.Second {
		t.Errorf("Duration() = %v, want 3s", r.Duration())
	}

	r.merge(&userReport{
		pairs: 2,
		deletions: []Deletion{
			{Email: "a@b.c", DataType: "wifi", Mode: redaction.ModeTime, Deleted: 2},
			{Email: "a@b.c", DataType: "wifi", Mode: redaction.ModeTime, Deleted: 3},
		},
	})
	if r.TotalDeleted != 5 || r.Users != 1 || r.Pairs != 2 {
		t.Errorf("merged report = %+v", r)
	}
}
