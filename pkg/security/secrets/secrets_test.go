package secrets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSecret(t *testing.T, dir, name, value string, perm os.FileMode) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(value), perm); err != nil {
		t.Fatal(err)
	}
}

func TestEnvProvider_GetSecret(t *testing.T) {
	t.Setenv("TEST_SECRET_MONGO_MEMBER_URI", "mongodb://user:pw@db:27017")

	p := NewEnvProvider("TEST_SECRET_")

	value, err := p.GetSecret(context.Background(), "mongo-member-uri")
	if err != nil {
		t.Fatalf("GetSecret() error = %v", err)
	}
	if value != "mongodb://user:pw@db:27017" {
		t.Errorf("GetSecret() = %q", value)
	}

	if _, err := p.GetSecret(context.Background(), "missing"); err == nil {
		t.Error("GetSecret(missing) returned nil error")
	}
	if p.Provider() != "env" {
		t.Errorf("Provider() = %q, want env", p.Provider())
	}
}

func TestFileProvider_GetSecret(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "mongo-member-uri", "mongodb://db:27017\n", 0o600)
	writeSecret(t, dir, "read-only", "value", 0o400)
	writeSecret(t, dir, "insecure", "value", 0o644)
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o700); err != nil {
		t.Fatal(err)
	}

	p, err := NewFileProvider(dir)
	if err != nil {
		t.Fatalf("NewFileProvider() error = %v", err)
	}

	tests := []struct {
		name    string
		want    string
		wantErr string
	}{
		{name: "mongo-member-uri", want: "mongodb://db:27017"},
		{name: "read-only", want: "value"},
		{name: "insecure", wantErr: "insecure permissions"},
		{name: "missing", wantErr: "not found"},
		{name: "subdir", wantErr: "not a regular file"},
		{name: "../escape", wantErr: "outside"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.GetSecret(context.Background(), tt.name)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("GetSecret(%q) error = %v, want containing %q", tt.name, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetSecret(%q) error = %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("GetSecret(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestNewFileProvider_Errors(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "file", "x", 0o600)

	if _, err := NewFileProvider(filepath.Join(dir, "missing")); err == nil {
		t.Error("NewFileProvider(missing) returned nil error")
	}
	if _, err := NewFileProvider(filepath.Join(dir, "file")); err == nil {
		t.Error("NewFileProvider(file) returned nil error")
	}
}

func TestResolver_Order(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "shared", "from-file", 0o600)
	writeSecret(t, dir, "file-only", "file-value", 0o600)
	t.Setenv("TEST_SECRET_SHARED", "from-env")

	fp, err := NewFileProvider(dir)
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver(NewEnvProvider("TEST_SECRET_"), fp)

	if got, _ := r.GetSecret(context.Background(), "shared"); got != "from-env" {
		t.Errorf("GetSecret(shared) = %q, want from-env", got)
	}
	if got, _ := r.GetSecret(context.Background(), "file-only"); got != "file-value" {
		t.Errorf("GetSecret(file-only) = %q, want file-value", got)
	}
	if _, err := r.GetSecret(context.Background(), "nowhere"); err == nil {
		t.Error("GetSecret(nowhere) returned nil error")
	}
	if _, err := NewResolver().GetSecret(context.Background(), "x"); err == nil {
		t.Error("GetSecret() without providers returned nil error")
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Setenv("TEST_SECRET_DB_USER", "redactor")
	t.Setenv("TEST_SECRET_DB_PASSWORD", "hunter2")
	r := NewResolver(NewEnvProvider("TEST_SECRET_"))

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "no references",
			input: "mongodb://localhost:27017",
			want:  "mongodb://localhost:27017",
		},
		{
			name:  "two references",
			input: "mongodb://${secret:db-user}:${secret:db-password}@db:27017",
			want:  "mongodb://redactor:hunter2@db:27017",
		},
		{
			name:    "unresolved reference kept",
			input:   "mongodb://${secret:db-user}:${secret:missing}@db",
			want:    "mongodb://redactor:${secret:missing}@db",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasReference(t *testing.T) {
	if !HasReference("${secret:mongo-member-uri}") {
		t.Error("HasReference() = false for a reference")
	}
	if HasReference("mongodb://localhost") {
		t.Error("HasReference() = true for a literal")
	}
}
