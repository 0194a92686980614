package store

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/maintenance/internal/config"
)

// OpenBackend creates the backend selected by cfg.Storage.Backend.
func OpenBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	key := cfg.StorageKey()

	switch cfg.Storage.Backend {
	case config.BackendFile, "":
		return NewFileBackend(cfg.Storage.ResolveDataDir(), key)
	case config.BackendSQLite:
		return OpenSQLite(ctx, cfg.Storage.ResolveSQLitePath(), key)
	case config.BackendPostgres:
		return OpenPostgres(ctx, cfg.Storage.PostgresURL, key)
	case config.BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
