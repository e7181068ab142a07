package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*Config)
		wantFields []string
	}{
		{
			name:   "defaults are valid",
			modify: func(*Config) {},
		},
		{
			name:   "memory backend",
			modify: func(c *Config) { c.Storage.Backend = "memory" },
		},
		{
			name: "offset out of range",
			modify: func(c *Config) {
				c.Redaction.TimezoneOffsetHours = 15
			},
			wantFields: []string{"redaction.timezone_offset_hours"},
		},
		{
			name: "non-positive gap and concurrency",
			modify: func(c *Config) {
				c.Redaction.DwellGapThreshold = -1
				c.Redaction.Concurrency = 0
			},
			wantFields: []string{"redaction.dwell_gap_threshold", "redaction.concurrency"},
		},
		{
			name: "bad schedule",
			modify: func(c *Config) {
				c.Schedule.Cron = "every day"
				c.Schedule.Timezone = "Mars/Olympus"
			},
			wantFields: []string{"schedule.cron", "schedule.timezone"},
		},
		{
			name:       "unknown backend",
			modify:     func(c *Config) { c.Storage.Backend = "redis" },
			wantFields: []string{"storage.backend"},
		},
		{
			name:       "unknown sqlite driver",
			modify:     func(c *Config) { c.Storage.SQLite.Driver = "postgres" },
			wantFields: []string{"storage.sqlite.driver"},
		},
		{
			name: "bad mongo uris",
			modify: func(c *Config) {
				c.Storage.Backend = "mongo"
				c.Storage.Mongo.MemberURI = "http://localhost"
				c.Storage.Mongo.EventURI = "localhost:27017"
			},
			wantFields: []string{"storage.mongo.member_uri", "storage.mongo.event_uri"},
		},
		{
			name: "mongo uri as secret reference",
			modify: func(c *Config) {
				c.Storage.Backend = "mongo"
				c.Storage.Mongo.MemberURI = "${secret:mongo-member-uri}"
			},
		},
		{
			name: "mongo settings ignored for sqlite backend",
			modify: func(c *Config) {
				c.Storage.Mongo.MemberURI = "http://localhost"
			},
		},
		{
			name:       "watch without policy file",
			modify:     func(c *Config) { c.Storage.PolicyFile.Watch = true },
			wantFields: []string{"storage.policy_file.watch"},
		},
		{
			name: "bad logging",
			modify: func(c *Config) {
				c.Telemetry.Logging.Level = "verbose"
				c.Telemetry.Logging.Format = "xml"
			},
			wantFields: []string{"telemetry.logging.level", "telemetry.logging.format"},
		},
		{
			name: "bad metrics endpoint",
			modify: func(c *Config) {
				c.Telemetry.Metrics.ListenAddress = "9090"
				c.Telemetry.Metrics.Path = "metrics"
			},
			wantFields: []string{"telemetry.metrics.listen_address", "telemetry.metrics.path"},
		},
		{
			name: "metrics endpoint ignored when disabled",
			modify: func(c *Config) {
				c.Telemetry.Metrics.Enabled = false
				c.Telemetry.Metrics.Path = "metrics"
			},
		},
		{
			name: "tracing enabled with defaults",
			modify: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
			},
		},
		{
			name: "bad tracing settings",
			modify: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Endpoint = "collector"
				c.Telemetry.Tracing.Sampler = "sometimes"
				c.Telemetry.Tracing.Timeout = -time.Second
			},
			wantFields: []string{"telemetry.tracing.endpoint", "telemetry.tracing.sampler", "telemetry.tracing.timeout"},
		},
		{
			name: "ratio out of range",
			modify: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Sampler = "ratio"
				c.Telemetry.Tracing.SampleRatio = 1.5
			},
			wantFields: []string{"telemetry.tracing.sample_ratio"},
		},
		{
			name: "tracing ignored when disabled",
			modify: func(c *Config) {
				c.Telemetry.Tracing.Sampler = "sometimes"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			verr, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			var got []string
			for _, fe := range verr.Errors {
				got = append(got, fe.Field)
			}
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("expected fields %v, got %v", tt.wantFields, got)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  ValidationError
		want string
	}{
		{
			name: "empty",
			err:  ValidationError{},
			want: "configuration validation failed",
		},
		{
			name: "single",
			err:  ValidationError{Errors: []FieldError{{Field: "schedule.cron", Message: "bad"}}},
			want: "configuration validation failed: schedule.cron: bad",
		},
		{
			name: "multiple",
			err: ValidationError{Errors: []FieldError{
				{Field: "a", Message: "x"},
				{Field: "b", Message: "y"},
			}},
			want: "configuration validation failed with 2 errors:\n  - a: x\n  - b: y\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
