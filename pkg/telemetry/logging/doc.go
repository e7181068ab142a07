// Package logging configures structured logging for the redactor.
//
// Components log through loggers derived from slog.Default(); Setup
// installs a handler built from configuration as that default:
//
//	logger, err := logging.Setup(logging.ConfigFrom(cfg.Telemetry.Logging))
//
// # Redaction
//
// When RedactEmails is enabled, email addresses and connection URI
// credentials are masked in every string attribute, error and message:
//
//   - alice@example.com becomes a***@example.com
//   - mongodb://user:pass@db:27017 becomes mongodb://***@db:27017
//
// Attributes whose key names a secret (password, token) are replaced
// entirely.
package logging
