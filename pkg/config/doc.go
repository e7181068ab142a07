// Package config provides configuration management for the redactor.
//
// Configuration is read from a YAML file and can be overridden with
// environment variables:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("redactor.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention PRIVACYVIZ_SECTION_FIELD.
// For example:
//
//   - PRIVACYVIZ_STORAGE_BACKEND overrides storage.backend
//   - PRIVACYVIZ_STORAGE_MONGO_MEMBER_URI overrides storage.mongo.member_uri
//   - PRIVACYVIZ_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// Validation errors carry field paths:
//
//	configuration validation failed with 2 errors:
//	  - schedule.timezone: unknown timezone "Mars/Olympus"
//	  - storage.backend: backend must be one of: mongo, sqlite, memory (got "redis")
//
// # Example Configuration
//
//	redaction:
//	  timezone_offset_hours: 9
//	  dwell_gap_threshold: 11m
//	  concurrency: 4
//
//	schedule:
//	  cron: "12 2 * * *"
//	  timezone: "Asia/Seoul"
//
//	storage:
//	  backend: "mongo"
//	  mongo:
//	    member_uri: "mongodb://localhost:27017"
//	    member_database: "privacyviz"
//	    event_database: "abclogger"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
