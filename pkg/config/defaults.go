package config

import "time"

// Default values for configuration fields.
const (
	// Redaction defaults
	DefaultTimezoneOffsetHours = 9
	DefaultDwellGapThreshold   = 11 * time.Minute
	DefaultConcurrency         = 1

	// Schedule defaults
	DefaultScheduleEnabled  = true
	DefaultScheduleCron     = "12 2 * * *"
	DefaultScheduleTimezone = "Asia/Seoul"

	// Storage defaults
	DefaultStorageBackend          = "sqlite"
	DefaultMongoURI                = "mongodb://localhost:27017"
	DefaultMongoMemberDatabase     = "privacyviz"
	DefaultMongoMemberCollection   = "members"
	DefaultMongoLocationCollection = "locations"
	DefaultMongoEventDatabase      = "abclogger"
	DefaultMongoEventCollection    = "datum"
	DefaultMongoConnectTimeout     = 10 * time.Second
	DefaultSQLitePath              = "data/redactor.db"
	DefaultSQLiteDriver            = "sqlite"
	DefaultSQLiteWALMode           = true
	DefaultSQLiteBusyTimeout       = 5 * time.Second
	DefaultSQLiteMaxOpenConns      = 10

	// Secrets defaults
	DefaultSecretsEnvPrefix = "PRIVACYVIZ_SECRET_"

	// Telemetry defaults
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "json"
	DefaultLogRedactEmails      = true
	DefaultMetricsEnabled       = true
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "privacyviz"
	DefaultMetricsSubsystem     = "redactor"
	DefaultTracingEnabled       = false
	DefaultTracingEndpoint      = "localhost:4317"
	DefaultTracingInsecure      = true
	DefaultTracingTimeout       = 10 * time.Second
	DefaultTracingSampler       = "always"
	DefaultTracingSampleRatio   = 1.0
	DefaultTracingServiceName   = "privacyviz-redactor"
)

// DefaultConfig returns a configuration with every field at its default.
// Files are decoded on top of it, so booleans and the timezone offset keep
// their defaults unless set explicitly.
func DefaultConfig() *Config {
	cfg := &Config{
		Redaction: RedactionConfig{
			TimezoneOffsetHours: DefaultTimezoneOffsetHours,
		},
		Schedule: ScheduleConfig{
			Enabled: DefaultScheduleEnabled,
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				WALMode: DefaultSQLiteWALMode,
			},
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				RedactEmails: DefaultLogRedactEmails,
			},
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
			Tracing: TracingConfig{
				Enabled:     DefaultTracingEnabled,
				Insecure:    DefaultTracingInsecure,
				SampleRatio: DefaultTracingSampleRatio,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Redaction defaults
	if cfg.Redaction.DwellGapThreshold == 0 {
		cfg.Redaction.DwellGapThreshold = DefaultDwellGapThreshold
	}
	if cfg.Redaction.Concurrency == 0 {
		cfg.Redaction.Concurrency = DefaultConcurrency
	}

	// Schedule defaults
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = DefaultScheduleCron
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = DefaultScheduleTimezone
	}

	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	applyMongoDefaults(&cfg.Storage.Mongo)
	applySQLiteDefaults(&cfg.Storage.SQLite)

	// Secrets defaults
	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	applyTracingDefaults(&cfg.Telemetry.Tracing)
}

func applyTracingDefaults(cfg *TracingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTracingTimeout
	}
	if cfg.Sampler == "" {
		cfg.Sampler = DefaultTracingSampler
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultTracingServiceName
	}
}

func applyMongoDefaults(cfg *MongoConfig) {
	if cfg.MemberURI == "" {
		cfg.MemberURI = DefaultMongoURI
	}
	if cfg.MemberDatabase == "" {
		cfg.MemberDatabase = DefaultMongoMemberDatabase
	}
	if cfg.MemberCollection == "" {
		cfg.MemberCollection = DefaultMongoMemberCollection
	}
	if cfg.LocationCollection == "" {
		cfg.LocationCollection = DefaultMongoLocationCollection
	}
	if cfg.EventDatabase == "" {
		cfg.EventDatabase = DefaultMongoEventDatabase
	}
	if cfg.EventCollection == "" {
		cfg.EventCollection = DefaultMongoEventCollection
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultMongoConnectTimeout
	}
}

func applySQLiteDefaults(cfg *SQLiteConfig) {
	if cfg.Path == "" {
		cfg.Path = DefaultSQLitePath
	}
	if cfg.Driver == "" {
		cfg.Driver = DefaultSQLiteDriver
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
}
