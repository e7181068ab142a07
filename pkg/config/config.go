package config

import "time"

// Config is the root configuration structure for the redactor.
type Config struct {
	// Redaction contains the parameters of policy evaluation and of the
	// retroactive job.
	Redaction RedactionConfig `yaml:"redaction"`

	// Schedule controls when `redactor serve` triggers the job.
	Schedule ScheduleConfig `yaml:"schedule"`

	// Storage selects and configures the store backend.
	Storage StorageConfig `yaml:"storage"`

	// Secrets configures resolution of ${secret:name} references.
	Secrets SecretsConfig `yaml:"secrets"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RedactionConfig contains policy evaluation settings.
type RedactionConfig struct {
	// TimezoneOffsetHours is the fixed offset of users' local time from UTC.
	// Default: 9 (KST)
	TimezoneOffsetHours int `yaml:"timezone_offset_hours"`

	// DwellGapThreshold is the longest gap between two location fixes that
	// still counts as continuous presence.
	// Default: 11m
	DwellGapThreshold time.Duration `yaml:"dwell_gap_threshold"`

	// Concurrency is the number of users the job processes in parallel.
	// Default: 1
	Concurrency int `yaml:"concurrency"`

	// DryRun makes the job count instead of delete.
	// Default: false
	DryRun bool `yaml:"dry_run"`
}

// ScheduleConfig contains the job schedule.
type ScheduleConfig struct {
	// Enabled controls whether `redactor serve` schedules the job.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Cron is a standard five-field cron expression.
	// Default: "12 2 * * *"
	Cron string `yaml:"cron"`

	// Timezone is the IANA zone the cron expression is read in.
	// Default: "Asia/Seoul"
	Timezone string `yaml:"timezone"`
}

// StorageConfig selects the store backend.
type StorageConfig struct {
	// Backend is one of "mongo", "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Mongo configures the MongoDB backend.
	Mongo MongoConfig `yaml:"mongo"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// PolicyFile, when set, replaces the backend as the source of user
	// policies.
	PolicyFile PolicyFileConfig `yaml:"policy_file"`
}

// MongoConfig contains MongoDB connection settings.
type MongoConfig struct {
	// MemberURI is the connection URI of the member database.
	MemberURI string `yaml:"member_uri"`

	// MemberDatabase holds membership documents and location samples.
	MemberDatabase string `yaml:"member_database"`

	// MemberCollection holds membership documents.
	// Default: "members"
	MemberCollection string `yaml:"member_collection"`

	// LocationCollection holds location samples.
	// Default: "locations"
	LocationCollection string `yaml:"location_collection"`

	// EventURI is the connection URI of the logger database. Empty means
	// MemberURI.
	EventURI string `yaml:"event_uri"`

	// EventDatabase holds the event log.
	EventDatabase string `yaml:"event_database"`

	// EventCollection holds event records.
	// Default: "datum"
	EventCollection string `yaml:"event_collection"`

	// ConnectTimeout bounds connecting and pinging.
	// Default: 10s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// SQLiteConfig contains SQLite settings.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/redactor.db"
	Path string `yaml:"path"`

	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// WALMode enables Write-Ahead Logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`
}

// PolicyFileConfig configures a YAML policy file as user store.
type PolicyFileConfig struct {
	// Path is the policy file. Empty disables it.
	Path string `yaml:"path"`

	// Watch reloads the file when it changes.
	// Default: false
	Watch bool `yaml:"watch"`
}

// SecretsConfig configures where secret references are looked up.
type SecretsConfig struct {
	// EnvPrefix is prepended to environment variable names.
	// Default: "PRIVACYVIZ_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// Dir holds one file per secret. Empty disables file lookup.
	Dir string `yaml:"dir"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactEmails masks email addresses in log attributes.
	// Default: true
	RedactEmails bool `yaml:"redact_emails"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is where `redactor serve` exposes metrics.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "privacyviz"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "redactor"
	Subsystem string `yaml:"subsystem"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether job runs are traced.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Sampler selects the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces kept by the "ratio" sampler.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "privacyviz-redactor"
	ServiceName string `yaml:"service_name"`
}
