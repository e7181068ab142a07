package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"privacyviz/redactor/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid JSON config",
			config: Config{Level: "info", Format: "json", RedactEmails: true},
		},
		{
			name:   "valid text config",
			config: Config{Level: "debug", Format: "text"},
		},
		{
			name:   "empty values use defaults",
			config: Config{},
		},
		{
			name:    "invalid log level",
			config:  Config{Level: "invalid", Format: "json"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "info", Format: "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("records redacted", "data_type", "wifi", "deleted", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "records redacted" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["data_type"] != "wifi" {
		t.Errorf("data_type = %v", entry["data_type"])
	}
	if entry["deleted"] != float64(3) {
		t.Errorf("deleted = %v", entry["deleted"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "warn", Format: "text", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below warn were logged: %s", out)
	}
	if !strings.Contains(out, "warn message") {
		t.Errorf("warn message missing: %s", out)
	}
}

func TestLogger_RedactsEmails(t *testing.T) {
	tests := []struct {
		name      string
		redact    bool
		wantEmail string
	}{
		{name: "redaction enabled", redact: true, wantEmail: "a***@example.com"},
		{name: "redaction disabled", redact: false, wantEmail: "alice@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger, err := New(Config{Format: "json", RedactEmails: tt.redact, Writer: buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			logger.With("component", "test").Info("records redacted", "email", "alice@example.com")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("output is not JSON: %v", err)
			}
			if entry["email"] != tt.wantEmail {
				t.Errorf("email = %v, want %v", entry["email"], tt.wantEmail)
			}
		})
	}
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	if _, err := Setup(Config{Format: "text", Writer: buf}); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	slog.Default().With("component", "redaction.retention").Info("redaction run started")
	if !strings.Contains(buf.String(), "component=redaction.retention") {
		t.Errorf("default logger not installed: %q", buf.String())
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.LoggingConfig{
		Level:        "debug",
		Format:       "text",
		AddSource:    true,
		RedactEmails: true,
	})

	if cfg.Level != "debug" || cfg.Format != "text" || !cfg.AddSource || !cfg.RedactEmails {
		t.Errorf("ConfigFrom() = %+v", cfg)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
