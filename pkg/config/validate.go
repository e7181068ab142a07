package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"privacyviz/redactor/pkg/security/secrets"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "schedule.cron").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateRedaction(&cfg.Redaction)...)
	errs = append(errs, validateSchedule(&cfg.Schedule)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateRedaction(cfg *RedactionConfig) []FieldError {
	var errs []FieldError

	if cfg.TimezoneOffsetHours < -12 || cfg.TimezoneOffsetHours > 14 {
		errs = append(errs, FieldError{
			Field:   "redaction.timezone_offset_hours",
			Message: fmt.Sprintf("offset must be between -12 and 14, got %d", cfg.TimezoneOffsetHours),
		})
	}
	if cfg.DwellGapThreshold <= 0 {
		errs = append(errs, FieldError{
			Field:   "redaction.dwell_gap_threshold",
			Message: "gap threshold must be positive",
		})
	}
	if cfg.Concurrency < 1 {
		errs = append(errs, FieldError{
			Field:   "redaction.concurrency",
			Message: "concurrency must be at least 1",
		})
	}

	return errs
}

func validateSchedule(cfg *ScheduleConfig) []FieldError {
	var errs []FieldError

	if _, err := cron.ParseStandard(cfg.Cron); err != nil {
		errs = append(errs, FieldError{
			Field:   "schedule.cron",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		errs = append(errs, FieldError{
			Field:   "schedule.timezone",
			Message: fmt.Sprintf("unknown timezone %q", cfg.Timezone),
		})
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		errs = append(errs, validateSQLite(&cfg.SQLite)...)
	case "mongo":
		errs = append(errs, validateMongo(&cfg.Mongo)...)
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("backend must be one of: mongo, sqlite, memory (got %q)", cfg.Backend),
		})
	}

	if cfg.PolicyFile.Watch && cfg.PolicyFile.Path == "" {
		errs = append(errs, FieldError{
			Field:   "storage.policy_file.watch",
			Message: "watch requires a policy file path",
		})
	}

	return errs
}

func validateSQLite(cfg *SQLiteConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.path",
			Message: "path is required",
		})
	}
	if cfg.Driver != "sqlite" && cfg.Driver != "sqlite3" {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.driver",
			Message: fmt.Sprintf("driver must be one of: sqlite, sqlite3 (got %q)", cfg.Driver),
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.busy_timeout",
			Message: "busy timeout must be non-negative",
		})
	}
	if cfg.MaxOpenConns < 1 {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.max_open_conns",
			Message: "max open connections must be at least 1",
		})
	}

	return errs
}

func validateMongo(cfg *MongoConfig) []FieldError {
	var errs []FieldError

	if !isMongoURI(cfg.MemberURI) {
		errs = append(errs, FieldError{
			Field:   "storage.mongo.member_uri",
			Message: "URI must start with mongodb:// or mongodb+srv://",
		})
	}
	if cfg.EventURI != "" && !isMongoURI(cfg.EventURI) {
		errs = append(errs, FieldError{
			Field:   "storage.mongo.event_uri",
			Message: "URI must start with mongodb:// or mongodb+srv://",
		})
	}
	if cfg.ConnectTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "storage.mongo.connect_timeout",
			Message: "connect timeout must be positive",
		})
	}

	return errs
}

// isMongoURI accepts secret references, which are checked once resolved.
func isMongoURI(uri string) bool {
	if secrets.HasReference(uri) {
		return true
	}
	return strings.HasPrefix(uri, "mongodb://") || strings.HasPrefix(uri, "mongodb+srv://")
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level),
		})
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "text" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("format must be one of: json, text (got %q)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: fmt.Sprintf("invalid listen address %q: %v", cfg.Metrics.ListenAddress, err),
			})
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "path must start with /",
			})
		}
	}

	if cfg.Tracing.Enabled {
		errs = append(errs, validateTracing(&cfg.Tracing)...)
	}

	return errs
}

func validateTracing(cfg *TracingConfig) []FieldError {
	var errs []FieldError

	if _, _, err := net.SplitHostPort(cfg.Endpoint); err != nil {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: fmt.Sprintf("invalid endpoint %q: %v", cfg.Endpoint, err),
		})
	}
	switch cfg.Sampler {
	case "always", "never":
	case "ratio":
		if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: fmt.Sprintf("sample ratio must be between 0 and 1, got %g", cfg.SampleRatio),
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("sampler must be one of: always, never, ratio (got %q)", cfg.Sampler),
		})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.timeout",
			Message: "timeout must be positive",
		})
	}

	return errs
}
