package repository

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowscribe/workflow-core/pkg/model"
)

//go:embed migrations
var migrationsFS embed.FS

// PostgresRepository is the production Repository backend: a pgx
// connection pool plus hand-written SQL over JSONB-encoded payload
// columns (ent is not used here — see DESIGN.md for why).
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository opens a pool against dsn and applies pending
// migrations before returning.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: ping postgres: %w", err)
	}
	if err := applyMigrations(dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: migrate: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

// applyMigrations runs every embedded migration against dsn, mirroring the
// teacher's embed.FS + golang-migrate/iofs wiring in pkg/database/client.go.
func applyMigrations(dsn string) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	defer sourceDriver.Close()

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dsn)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Ping satisfies pkg/server's Pinger interface for the health check.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) CreateSession(ctx context.Context, session model.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("repository: marshal session: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO sessions (id, workflow_name, data, started_at) VALUES ($1, $2, $3, $4)`,
		session.ID, session.WorkflowName, payload, session.StartedAt)
	if err != nil {
		return fmt.Errorf("repository: insert session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetSession(ctx context.Context, id string) (model.Session, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM sessions WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, fmt.Errorf("repository: get session: %w", err)
	}
	return decodeSession(payload)
}

func (r *PostgresRepository) ListSessions(ctx context.Context, workflowName string) ([]model.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT data FROM sessions WHERE workflow_name = $1 ORDER BY started_at DESC`, workflowName)
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

func (r *PostgresRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: delete session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateWorkflow(ctx context.Context, id string, def model.WorkflowDefinition) error {
	payload, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("repository: marshal workflow: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO workflows (id, data) VALUES ($1, $2)`, id, payload)
	if err != nil {
		return fmt.Errorf("repository: insert workflow: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetWorkflow(ctx context.Context, id string) (model.WorkflowDefinition, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM workflows WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return model.WorkflowDefinition{}, ErrNotFound
		}
		return model.WorkflowDefinition{}, fmt.Errorf("repository: get workflow: %w", err)
	}
	return decodeWorkflow(payload)
}

func (r *PostgresRepository) ListWorkflows(ctx context.Context) ([]model.WorkflowDefinition, error) {
	rows, err := r.pool.Query(ctx, `SELECT data FROM workflows ORDER BY updated_at DESC`)
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

func (r *PostgresRepository) UpdateWorkflow(ctx context.Context, id string, def model.WorkflowDefinition) error {
	payload, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("repository: marshal workflow: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE workflows SET data = $2, updated_at = now() WHERE id = $1`, id, payload)
	if err != nil {
		return fmt.Errorf("repository: update workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteWorkflow(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: delete workflow: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO config_entries (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		return fmt.Errorf("repository: set config: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM config_entries WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("repository: get config: %w", err)
	}
	return value, nil
}

func (r *PostgresRepository) AppendPlaybackLog(ctx context.Context, entry model.PlaybackLogEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("repository: marshal playback log: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO playback_log_entries (id, workflow_id, site_pattern, data, ended_at) VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.WorkflowID, entry.SitePattern, payload, entry.EndedAt)
	if err != nil {
		return fmt.Errorf("repository: insert playback log: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListPlaybackLogsByWorkflow(ctx context.Context, workflowID string) ([]model.PlaybackLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT data FROM playback_log_entries WHERE workflow_id = $1 ORDER BY ended_at DESC`, workflowID)
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

func (r *PostgresRepository) ListInsightsBySitePattern(ctx context.Context, sitePattern string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx,
		`SELECT data FROM playback_log_entries WHERE site_pattern = $1 ORDER BY ended_at DESC LIMIT $2`,
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

func decodeSession(payload []byte) (model.Session, error) {
	var sess model.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return model.Session{}, fmt.Errorf("repository: decode session: %w", err)
	}
	return sess, nil
}

func decodeWorkflow(payload []byte) (model.WorkflowDefinition, error) {
	var def model.WorkflowDefinition
	if err := json.Unmarshal(payload, &def); err != nil {
		return model.WorkflowDefinition{}, fmt.Errorf("repository: decode workflow: %w", err)
	}
	return def, nil
}
