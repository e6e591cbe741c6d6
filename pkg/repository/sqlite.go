package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/flowscribe/workflow-core/pkg/model"
)

// sqliteSchema mirrors migrations/0001_init.up.sql with SQLite-compatible
// types: JSONB becomes TEXT, TIMESTAMPTZ becomes TEXT (RFC 3339), now()
// becomes CURRENT_TIMESTAMP. Kept as a literal schema rather than a second
// golang-migrate source since modernc.org/sqlite has no golang-migrate
// database driver in the examined pack.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	workflow_name TEXT NOT NULL,
	data          TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	created_at    TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_sessions_workflow_name ON sessions (workflow_name);

CREATE TABLE IF NOT EXISTS workflows (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS config_entries (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS playback_log_entries (
	id           TEXT PRIMARY KEY,
	workflow_id  TEXT NOT NULL,
	site_pattern TEXT NOT NULL,
	data         TEXT NOT NULL,
	ended_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_playback_log_workflow ON playback_log_entries (workflow_id);
CREATE INDEX IF NOT EXISTS idx_playback_log_site_pattern ON playback_log_entries (site_pattern);
`

// SQLiteRepository is the embedded-deployment Repository backend: a single
// database/sql connection over modernc.org/sqlite (pure Go, no cgo), used
// the same way nevindra-oasis and tombee-conductor reach for it in the
// retrieved pack.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens dsn (a file path, or ":memory:") and ensures the
// schema exists.
func NewSQLiteRepository(ctx context.Context, dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: avoid concurrent-writer lock errors
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: create sqlite schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ping satisfies pkg/server's Pinger interface for the health check.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, session model.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("repository: marshal session: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, workflow_name, data, started_at) VALUES (?, ?, ?, ?)`,
		session.ID, session.WorkflowName, payload, session.StartedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("repository: insert session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSession(ctx context.Context, id string) (model.Session, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, fmt.Errorf("repository: get session: %w", err)
	}
	return decodeSession(payload)
}

func (r *SQLiteRepository) ListSessions(ctx context.Context, workflowName string) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM sessions WHERE workflow_name = ? ORDER BY started_at DESC`, workflowName)
	if err != nil {
		return nil, fmt.Errorf("repository: list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("repository: scan session: %w", err)
		}
		sess, err := decodeSession(payload)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("repository: delete session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateWorkflow(ctx context.Context, id string, def model.WorkflowDefinition) error {
	payload, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("repository: marshal workflow: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO workflows (id, data) VALUES (?, ?)`, id, payload)
	if err != nil {
		return fmt.Errorf("repository: insert workflow: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetWorkflow(ctx context.Context, id string) (model.WorkflowDefinition, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM workflows WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.WorkflowDefinition{}, ErrNotFound
		}
		return model.WorkflowDefinition{}, fmt.Errorf("repository: get workflow: %w", err)
	}
	return decodeWorkflow(payload)
}

func (r *SQLiteRepository) ListWorkflows(ctx context.Context) ([]model.WorkflowDefinition, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM workflows ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: list workflows: %w", err)
	}
	defer rows.Close()

	var defs []model.WorkflowDefinition
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("repository: scan workflow: %w", err)
		}
		def, err := decodeWorkflow(payload)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func (r *SQLiteRepository) UpdateWorkflow(ctx context.Context, id string, def model.WorkflowDefinition) error {
	payload, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("repository: marshal workflow: %w", err)
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE workflows SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, payload, id)
	if err != nil {
		return fmt.Errorf("repository: update workflow: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: update workflow rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteWorkflow(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("repository: delete workflow: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO config_entries (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("repository: set config: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM config_entries WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("repository: get config: %w", err)
	}
	return value, nil
}

func (r *SQLiteRepository) AppendPlaybackLog(ctx context.Context, entry model.PlaybackLogEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("repository: marshal playback log: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO playback_log_entries (id, workflow_id, site_pattern, data, ended_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.WorkflowID, entry.SitePattern, payload, entry.EndedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("repository: insert playback log: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListPlaybackLogsByWorkflow(ctx context.Context, workflowID string) ([]model.PlaybackLogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM playback_log_entries WHERE workflow_id = ? ORDER BY ended_at DESC`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("repository: list playback logs: %w", err)
	}
	defer rows.Close()

	var entries []model.PlaybackLogEntry
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("repository: scan playback log: %w", err)
		}
		var entry model.PlaybackLogEntry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, fmt.Errorf("repository: decode playback log: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *SQLiteRepository) ListInsightsBySitePattern(ctx context.Context, sitePattern string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM playback_log_entries WHERE site_pattern = ? ORDER BY ended_at DESC LIMIT ?`,
		sitePattern, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: list insights: %w", err)
	}
	defer rows.Close()

	var insights []string
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("repository: scan insight: %w", err)
		}
		var entry model.PlaybackLogEntry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, fmt.Errorf("repository: decode insight: %w", err)
		}
		insights = append(insights, entry.Summary)
	}
	return insights, rows.Err()
}
