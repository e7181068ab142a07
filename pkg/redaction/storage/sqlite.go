package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
	_ "modernc.org/sqlite"          // registers "sqlite"

	"privacyviz/redactor/pkg/redaction"
)

const (
	// DriverCGO selects github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"
	// DriverPure selects modernc.org/sqlite.
	DriverPure = "sqlite"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver is the database/sql driver name, DriverCGO or DriverPure.
	// Default: DriverPure
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/redactor.db",
		Driver:       DriverPure,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database and creates the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverPure
	}
	if config.Driver != DriverCGO && config.Driver != DriverPure {
		return nil, redaction.NewStorageError("sqlite", "open",
			fmt.Errorf("unknown driver %q", config.Driver))
	}

	logger := slog.Default().With("component", "redaction.storage.sqlite")

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, redaction.NewStorageError("sqlite", "open", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return redaction.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	if s.config.BusyTimeout > 0 {
		pragma := fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())
		if _, err := s.db.Exec(pragma); err != nil {
			return redaction.NewStorageError("sqlite", "set_busy_timeout", err)
		}
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return redaction.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return redaction.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return redaction.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return redaction.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// ListUsers returns every user ordered by email.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]*redaction.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document FROM users ORDER BY email`)
	if err != nil {
		return nil, redaction.NewStorageError("sqlite", "list_users", err)
	}
	defer rows.Close()

	var users []*redaction.User
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, redaction.NewStorageError("sqlite", "scan_user", err)
		}
		user, err := decodeUser(doc)
		if err != nil {
			return nil, redaction.NewStorageError("sqlite", "decode_user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, redaction.NewStorageError("sqlite", "list_users", err)
	}

	return users, nil
}

// GetUser returns the user, or nil if none exists.
func (s *SQLiteStorage) GetUser(ctx context.Context, email string) (*redaction.User, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM users WHERE email = ?`, email).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, redaction.NewStorageError("sqlite", "get_user", err)
	}

	user, err := decodeUser(doc)
	if err != nil {
		return nil, redaction.NewStorageError("sqlite", "decode_user", err)
	}
	return user, nil
}

// PutUser creates or replaces the user's document.
func (s *SQLiteStorage) PutUser(ctx context.Context, user *redaction.User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return redaction.NewStorageError("sqlite", "encode_user", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (email, document) VALUES (?, ?)
		 ON CONFLICT(email) DO UPDATE SET document = excluded.document`,
		user.Email, string(doc))
	if err != nil {
		return redaction.NewStorageError("sqlite", "put_user", err)
	}
	return nil
}

// Samples returns the user's samples strictly inside the window.
func (s *SQLiteStorage) Samples(ctx context.Context, email string, window redaction.Window) ([]redaction.LocationSample, error) {
	where := []string{"email = ?"}
	args := []interface{}{email}
	if window.From != 0 {
		where = append(where, "timestamp > ?")
		args = append(args, window.From)
	}
	if window.To != 0 {
		where = append(where, "timestamp < ?")
		args = append(args, window.To)
	}

	query := `SELECT email, timestamp, latitude, longitude FROM location_samples WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, redaction.NewStorageError("sqlite", "samples", err)
	}
	defer rows.Close()

	var samples []redaction.LocationSample
	for rows.Next() {
		var sample redaction.LocationSample
		if err := rows.Scan(&sample.Email, &sample.Timestamp, &sample.Latitude, &sample.Longitude); err != nil {
			return nil, redaction.NewStorageError("sqlite", "scan_sample", err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, redaction.NewStorageError("sqlite", "samples", err)
	}

	return samples, nil
}

// AppendSamples inserts samples in one transaction.
func (s *SQLiteStorage) AppendSamples(ctx context.Context, samples []redaction.LocationSample) error {
	return s.inTx(ctx, "append_samples", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO location_samples (email, timestamp, latitude, longitude) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, sample := range samples {
			if _, err := stmt.ExecContext(ctx, sample.Email, sample.Timestamp, sample.Latitude, sample.Longitude); err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendEvents inserts records in one transaction.
func (s *SQLiteStorage) AppendEvents(ctx context.Context, records []*redaction.EventRecord) error {
	return s.inTx(ctx, "append_events", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO events (id, email, datum_type, timestamp, payload) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			if r.ID == "" {
				r.ID = uuid.New().String()
			}

			var payload interface{}
			if len(r.Payload) > 0 {
				b, err := json.Marshal(r.Payload)
				if err != nil {
					return fmt.Errorf("encode payload of %s: %w", r.ID, err)
				}
				payload = string(b)
			}

			if _, err := stmt.ExecContext(ctx, r.ID, r.Subject.Email, r.DatumType, r.Timestamp, payload); err != nil {
				return err
			}
		}
		return nil
	})
}

// Query returns the matching records ordered by timestamp.
func (s *SQLiteStorage) Query(ctx context.Context, query *redaction.EventQuery) ([]*redaction.EventRecord, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := `SELECT id, email, datum_type, timestamp, payload FROM events` +
		whereClause + ` ORDER BY timestamp ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, redaction.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	var records []*redaction.EventRecord
	for rows.Next() {
		var (
			r       redaction.EventRecord
			payload sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Subject.Email, &r.DatumType, &r.Timestamp, &payload); err != nil {
			return nil, redaction.NewStorageError("sqlite", "scan_event", err)
		}
		if payload.Valid && payload.String != "" {
			if err := json.Unmarshal([]byte(payload.String), &r.Payload); err != nil {
				return nil, redaction.NewStorageError("sqlite", "decode_payload", err)
			}
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, redaction.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Count returns the number of matching records.
func (s *SQLiteStorage) Count(ctx context.Context, query *redaction.EventQuery) (int64, error) {
	if err := query.CheckScoped(); err != nil {
		return 0, redaction.NewStorageError("sqlite", "count", err)
	}
	whereClause, args := buildWhereClause(query)

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+whereClause, args...).Scan(&count)
	if err != nil {
		return 0, redaction.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes the matching records.
func (s *SQLiteStorage) Delete(ctx context.Context, query *redaction.EventQuery) (int64, error) {
	if err := query.CheckScoped(); err != nil {
		return 0, redaction.NewStorageError("sqlite", "delete", err)
	}
	whereClause, args := buildWhereClause(query)

	result, err := s.db.ExecContext(ctx, `DELETE FROM events`+whereClause, args...)
	if err != nil {
		return 0, redaction.NewStorageError("sqlite", "delete", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, redaction.NewStorageError("sqlite", "rows_affected", err)
	}

	s.logger.Debug("events deleted",
		"datum_type", query.DatumType,
		"after", query.After,
		"before", query.Before,
		"count", deleted,
	)

	return deleted, nil
}

// Ping checks the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return redaction.NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return redaction.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

func (s *SQLiteStorage) inTx(ctx context.Context, operation string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return redaction.NewStorageError("sqlite", operation, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return redaction.NewStorageError("sqlite", operation, err)
	}
	if err := tx.Commit(); err != nil {
		return redaction.NewStorageError("sqlite", operation, err)
	}
	return nil
}

// buildWhereClause builds a SQL WHERE clause from an event query.
func buildWhereClause(query *redaction.EventQuery) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if query.Email != "" {
		conditions = append(conditions, "email = ?")
		args = append(args, query.Email)
	}
	if query.DatumType != "" {
		conditions = append(conditions, "datum_type = ?")
		args = append(args, query.DatumType)
	}
	if query.After != 0 {
		conditions = append(conditions, "timestamp > ?")
		args = append(args, query.After)
	}
	if query.Before != 0 {
		conditions = append(conditions, "timestamp < ?")
		args = append(args, query.Before)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func decodeUser(doc string) (*redaction.User, error) {
	var user redaction.User
	if err := json.Unmarshal([]byte(doc), &user); err != nil {
		return nil, err
	}
	return &user, nil
}
