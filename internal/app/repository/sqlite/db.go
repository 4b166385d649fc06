package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"voicepipe/internal/app/repository"
)

// DB is the SQLite-backed store, used for local deployments and tests.
type DB struct {
	db *sql.DB
}

var _ repository.Store = (*DB)(nil)

// Open opens (and creates if necessary) a SQLite database at path. Use
// ":memory:" for tests.
func Open(path string) (*DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?cache=shared&mode=rwc", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &DB{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) init() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *DB) Close() error {
	return s.db.Close()
}

// Recordings returns the recording DAO.
func (s *DB) Recordings() repository.RecordingDAO { return (*recordingDAO)(s) }

// Transcripts returns the transcript DAO.
func (s *DB) Transcripts() repository.TranscriptDAO { return (*transcriptDAO)(s) }

// Analyses returns the analysis DAO.
func (s *DB) Analyses() repository.AnalysisDAO { return (*analysisDAO)(s) }

// SyncLogs returns the sync log DAO.
func (s *DB) SyncLogs() repository.SyncLogDAO { return (*syncLogDAO)(s) }

// Users returns the user DAO.
func (s *DB) Users() repository.UserDAO { return (*userDAO)(s) }

const schema = `
CREATE TABLE IF NOT EXISTS recordings (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	storage_path  TEXT NOT NULL,
	duration      REAL NOT NULL DEFAULT 0,
	file_size     INTEGER NOT NULL DEFAULT 0,
	mime_type     TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'completed',
	error_message TEXT NOT NULL DEFAULT '',
	metadata      TEXT NOT NULL DEFAULT '{}',
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS transcripts (
	id                 TEXT PRIMARY KEY,
	recording_id       TEXT NOT NULL REFERENCES recordings(id),
	text               TEXT NOT NULL,
	language           TEXT NOT NULL DEFAULT '',
	confidence         REAL NOT NULL DEFAULT 0,
	word_count         INTEGER NOT NULL DEFAULT 0,
	processing_time_ms INTEGER NOT NULL DEFAULT 0,
	cost_estimate      REAL NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcripts_recording ON transcripts(recording_id);

CREATE TABLE IF NOT EXISTS analysis_results (
	id                 TEXT PRIMARY KEY,
	transcript_id      TEXT NOT NULL REFERENCES transcripts(id),
	recording_id       TEXT NOT NULL REFERENCES recordings(id),
	contacts           TEXT NOT NULL DEFAULT '[]',
	companies          TEXT NOT NULL DEFAULT '[]',
	action_items       TEXT NOT NULL DEFAULT '[]',
	buying_signals     TEXT NOT NULL DEFAULT '[]',
	overall_sentiment  TEXT NOT NULL DEFAULT 'neutral',
	sentiment_score    REAL NOT NULL DEFAULT 0,
	summary            TEXT NOT NULL DEFAULT '',
	key_points         TEXT NOT NULL DEFAULT '[]',
	next_steps         TEXT NOT NULL DEFAULT '',
	confidence_score   REAL NOT NULL DEFAULT 0,
	processing_time_ms INTEGER NOT NULL DEFAULT 0,
	cost_estimate      REAL NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_logs (
	id              TEXT PRIMARY KEY,
	recording_id    TEXT NOT NULL,
	analysis_id     TEXT NOT NULL,
	user_id         TEXT NOT NULL,
	provider        TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	contacts_synced INTEGER NOT NULL DEFAULT 0,
	tasks_synced    INTEGER NOT NULL DEFAULT 0,
	remote_ids      TEXT NOT NULL DEFAULT '[]',
	error_message   TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sync_logs_recording ON sync_logs(recording_id);

CREATE TABLE IF NOT EXISTS users (
	id                TEXT PRIMARY KEY,
	email             TEXT NOT NULL DEFAULT '',
	name              TEXT NOT NULL DEFAULT '',
	api_token         TEXT NOT NULL DEFAULT '',
	crm_provider      TEXT NOT NULL DEFAULT '',
	crm_connected     INTEGER NOT NULL DEFAULT 0,
	crm_access_token  TEXT NOT NULL DEFAULT '',
	crm_refresh_token TEXT NOT NULL DEFAULT '',
	crm_instance_url  TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_api_token ON users(api_token);
`

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal json column: %w", err)
	}
	return string(b), nil
}

func unmarshalJSON(data string, v any) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("unmarshal json column: %w", err)
	}
	return nil
}
