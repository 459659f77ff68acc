package docstore

import (
	"context"
	"fmt"

	"github.com/bassista/chefs_best_friend/internal/config"
)

// NewBackendFromConfig creates the configured backend, instrumented with metrics.
func NewBackendFromConfig(ctx context.Context, cfg config.StoreConfig) (*InstrumentedBackend, error) {
	var (
		backend Backend
		err     error
	)

	switch cfg.Backend {
	case config.BackendMemory:
		backend = NewMemoryBackend()
	case config.BackendFile, "":
		backend, err = NewFileBackend(cfg.FilePath)
	case config.BackendSQLite:
		backend, err = NewSQLiteBackend(cfg.SQLitePath)
	case config.BackendFirestore:
		backend, err = NewFirestoreBackend(ctx, cfg.ProjectID, cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: %s, %s, %s, %s)",
			cfg.Backend, config.BackendMemory, config.BackendFile, config.BackendSQLite, config.BackendFirestore)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", cfg.Backend, err)
	}

	name := cfg.Backend
	if name == "" {
		name = config.BackendFile
	}
	return Instrument(name, backend), nil
}
