package repository

import (
	"context"
	"fmt"

	"github.com/flowscribe/workflow-core/pkg/config"
)

// Open constructs the Repository backend selected by cfg.Driver.
func Open(ctx context.Context, cfg *config.RepositoryConfig) (Repository, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgresRepository(ctx, cfg.DSN)
	case "sqlite", "":
		return NewSQLiteRepository(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("repository: unknown driver %q", cfg.Driver)
	}
}
