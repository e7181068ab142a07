package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"privacyviz/redactor/pkg/cli"
	"privacyviz/redactor/pkg/config"
	"privacyviz/redactor/pkg/redaction"
	"privacyviz/redactor/pkg/redaction/storage"
	"privacyviz/redactor/pkg/security/secrets"
)

func TestParseLocalDate(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		offset  int
		want    int64
		wantErr bool
	}{
		{
			name:   "KST midnight",
			date:   "2023-05-01",
			offset: 9,
			want:   1682866800000, // 2023-04-30T15:00:00Z
		},
		{
			name:   "UTC midnight",
			date:   "2023-05-01",
			offset: 0,
			want:   1682899200000,
		},
		{
			name:    "wrong layout",
			date:    "01/05/2023",
			offset:  9,
			wantErr: true,
		},
		{
			name:    "empty",
			offset:  9,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLocalDate(tt.date, tt.offset)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLocalDate(%q) error = %v, wantErr %v", tt.date, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseLocalDate(%q) = %d, want %d", tt.date, got, tt.want)
			}
		})
	}
}

func TestParseDayOffset(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "06:30", want: 6*3600000 + 30*60000},
		{in: "23:59", want: 23*3600000 + 59*60000},
		{in: "24:00", want: 24 * 3600000},
		{in: "24:01", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "-1:00", wantErr: true},
		{in: "1200", wantErr: true},
		{in: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDayOffset(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDayOffset(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseDayOffset(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := openStorage(ctx, config.StorageConfig{Backend: "memory"}, secrets.NewResolver())
		if err != nil {
			t.Fatalf("openStorage() error = %v", err)
		}
		defer s.Close()
		if _, ok := s.(*storage.MemoryStorage); !ok {
			t.Errorf("openStorage() = %T, want *storage.MemoryStorage", s)
		}
	})

	t.Run("sqlite creates directory", func(t *testing.T) {
		cfg := config.DefaultConfig().Storage
		cfg.SQLite.Path = filepath.Join(t.TempDir(), "nested", "redactor.db")

		s, err := openStorage(ctx, cfg, secrets.NewResolver())
		if err != nil {
			t.Fatalf("openStorage() error = %v", err)
		}
		defer s.Close()
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		if _, err := openStorage(ctx, config.StorageConfig{Backend: "redis"}, secrets.NewResolver()); err == nil {
			t.Error("openStorage(redis) returned nil error")
		}
	})
}

func TestOpenStorage_UnresolvedMongoSecret(t *testing.T) {
	cfg := config.DefaultConfig().Storage
	cfg.Backend = "mongo"
	cfg.Mongo.MemberURI = "${secret:redactor-test-missing-uri}"

	_, err := openStorage(context.Background(), cfg, secrets.NewResolver(secrets.NewEnvProvider("REDACTOR_TEST_")))
	if err == nil || !strings.Contains(err.Error(), "redactor-test-missing-uri") {
		t.Errorf("openStorage() error = %v, want unresolved secret error", err)
	}
}

func TestNewSecretResolver(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "mongo-member-uri"), []byte("mongodb://file:27017\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := newSecretResolver(config.SecretsConfig{EnvPrefix: "REDACTOR_TEST_", Dir: dir})
	if err != nil {
		t.Fatalf("newSecretResolver() error = %v", err)
	}
	got, err := r.Resolve(context.Background(), "${secret:mongo-member-uri}")
	if err != nil || got != "mongodb://file:27017" {
		t.Errorf("Resolve() = %q, %v, want the file value", got, err)
	}

	if _, err := newSecretResolver(config.SecretsConfig{Dir: filepath.Join(dir, "missing")}); err == nil {
		t.Error("newSecretResolver() with missing dir returned nil error")
	}
}

func TestNewApp_PolicyFileUsers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	content := `users:
  - email: alice@example.com
    status:
      wifi: "off"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Storage.Backend = "memory"
	cfg.Telemetry.Metrics.Enabled = false
	cfg.Storage.PolicyFile.Path = path

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.close()

	u, err := a.users().GetUser(context.Background(), "alice@example.com")
	if err != nil || u == nil {
		t.Fatalf("GetUser() = %v, %v, want the file's user", u, err)
	}
	if u.Status["wifi"] != redaction.ModeOff {
		t.Errorf("Status[wifi] = %q, want off", u.Status["wifi"])
	}

	// The backend holds no users; the policy file replaces it.
	if users, _ := a.store.ListUsers(context.Background()); len(users) != 0 {
		t.Errorf("backend users = %d, want 0", len(users))
	}
}

func TestImportJSONLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.jsonl")

	var b strings.Builder
	for i := 1; i <= importBatchSize+3; i++ {
		fmt.Fprintf(&b, `{"subject":{"email":"alice@example.com"},"datumType":"WIFI","timestamp":%d}`+"\n", 1682899200000+int64(i))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	store := storage.NewMemoryStorage()
	var progress bytes.Buffer
	var batches int

	n, err := importJSONLines(ctx, path, cli.NewProgressReporter(&progress, "events"),
		func(ctx context.Context, batch []*redaction.EventRecord) error {
			batches++
			return store.AppendEvents(ctx, batch)
		})
	if err != nil {
		t.Fatalf("importJSONLines() error = %v", err)
	}
	if n != importBatchSize+3 {
		t.Errorf("importJSONLines() = %d, want %d", n, importBatchSize+3)
	}
	if batches != 2 {
		t.Errorf("batches = %d, want 2", batches)
	}
	if store.Size() != n {
		t.Errorf("store size = %d, want %d", store.Size(), n)
	}
	if progress.Len() == 0 {
		t.Error("no progress written")
	}
}

func TestImportJSONLines_BadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.jsonl")
	content := `{"email":"alice@example.com","timestamp":1,"latitude":37.5,"longitude":127.0}
{"email":
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	var stored int
	_, err := importJSONLines(context.Background(), path, cli.NewProgressReporter(&bytes.Buffer{}, "locations"),
		func(ctx context.Context, batch []redaction.LocationSample) error {
			stored += len(batch)
			return nil
		})
	if err == nil || !strings.Contains(err.Error(), "document 2") {
		t.Errorf("importJSONLines() error = %v, want error naming document 2", err)
	}
	if stored != 0 {
		t.Errorf("stored = %d, want 0 before the failing batch is flushed", stored)
	}
}
