// Package repository persists recorded Sessions, assembled
// WorkflowDefinitions, runtime Config, and PlaybackLogEntry history (spec
// §6 "Repository").
package repository

import (
	"context"
	"errors"

	"github.com/flowscribe/workflow-core/pkg/model"
)

// ErrNotFound is returned by any Get* method when no record matches.
var ErrNotFound = errors.New("repository: not found")

// Repository is the abstract persistence surface spec §6 describes.
// Sessions and playback logs list newest-first by persisted timestamp.
type Repository interface {
	CreateSession(ctx context.Context, session model.Session) error
	GetSession(ctx context.Context, id string) (model.Session, error)
	ListSessions(ctx context.Context, workflowName string) ([]model.Session, error)
	DeleteSession(ctx context.Context, id string) error

	CreateWorkflow(ctx context.Context, id string, def model.WorkflowDefinition) error
	GetWorkflow(ctx context.Context, id string) (model.WorkflowDefinition, error)
	ListWorkflows(ctx context.Context) ([]model.WorkflowDefinition, error)
	UpdateWorkflow(ctx context.Context, id string, def model.WorkflowDefinition) error
	DeleteWorkflow(ctx context.Context, id string) error

	SetConfig(ctx context.Context, key, value string) error
	GetConfig(ctx context.Context, key string) (string, error)

	AppendPlaybackLog(ctx context.Context, entry model.PlaybackLogEntry) error
	ListPlaybackLogsByWorkflow(ctx context.Context, workflowID string) ([]model.PlaybackLogEntry, error)

	// ListInsightsBySitePattern returns the `limit` most recent playback log
	// summaries for the given site pattern, newest first (spec §6: "most
	// recent N, default 10").
	ListInsightsBySitePattern(ctx context.Context, sitePattern string, limit int) ([]string, error)

	Close() error
}
