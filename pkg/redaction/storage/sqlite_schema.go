package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the redactor database schema.
const Schema = `
-- Membership documents, stored whole as JSON
CREATE TABLE IF NOT EXISTS users (
    email TEXT PRIMARY KEY,
    document TEXT NOT NULL
);

-- Location traces
CREATE TABLE IF NOT EXISTS location_samples (
    email TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_location_samples_email_ts ON location_samples(email, timestamp);

-- Event log
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    datum_type TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    payload TEXT
);

CREATE INDEX IF NOT EXISTS idx_events_subject ON events(email, datum_type, timestamp);

-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?);`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;`
