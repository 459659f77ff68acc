package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bassista/chefs_best_friend/internal/cache"
	"github.com/bassista/chefs_best_friend/internal/config"
	"github.com/bassista/chefs_best_friend/internal/docstore"
	"github.com/bassista/chefs_best_friend/internal/logger"
	"github.com/bassista/chefs_best_friend/internal/menu"
	"github.com/bassista/chefs_best_friend/internal/recipe"
	"github.com/bassista/chefs_best_friend/internal/repository"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config  *config.Config
	Backend docstore.Backend
	Repo    *repository.RecipeRepository
	Cache   *cache.Store
	Menus   *menu.Registry

	BaseCtx context.Context
	Cancel  context.CancelFunc

	refreshDone <-chan struct{}
	evictDone   <-chan struct{}
}

func New(cfg *config.Config, backend docstore.Backend, repo *repository.RecipeRepository, store *cache.Store, menus *menu.Registry) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if backend == nil {
		return nil, errors.New("backend is nil")
	}
	if repo == nil {
		return nil, errors.New("repo is nil")
	}
	if store == nil {
		return nil, errors.New("cache store is nil")
	}
	if menus == nil {
		return nil, errors.New("menu registry is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:  cfg,
		Backend: backend,
		Repo:    repo,
		Cache:   store,
		Menus:   menus,
		BaseCtx: ctx,
		Cancel:  cancel,
	}, nil
}

// Build wires the configured backend, cache, repository and menu registry.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	backend, err := docstore.NewBackendFromConfig(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	store := cache.NewStore()
	adapter := docstore.NewAdapter[recipe.Recipe](backend, cfg.Store.RequestTimeout)
	repo, err := repository.New(adapter, store, repository.Options{
		Collection:      cfg.Store.Collection,
		ListMaxAttempts: cfg.Store.ListMaxAttempts,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	a, err := New(cfg, backend, repo, store, menu.NewRegistry(cfg.Data.SessionIdleTTL))
	if err != nil {
		backend.Close()
		return nil, err
	}
	return a, nil
}

// Start migrates legacy documents when enabled and performs the initial load.
// A failed initial load is logged and published; the service still starts
// with an empty, stale cache.
func (a *App) Start(ctx context.Context) error {
	if a.Config.Store.MigrateLegacy {
		n, err := a.Repo.MigrateLegacy(ctx)
		if err != nil {
			return fmt.Errorf("migrate legacy recipes: %w", err)
		}
		logger.WithComponent("app").Infof("legacy migration done, %d recipe(s) migrated", n)
	}

	if err := a.Repo.LoadAll(ctx); err != nil {
		logger.WithComponent("app").Warnf("initial recipe load failed, serving empty cache: %v", err)
	}
	return nil
}

// StartWatchers starts the backend watcher (when supported), the periodic
// refresh scheduler and the idle menu session eviction. All stop on Shutdown.
func (a *App) StartWatchers() error {
	if w, ok := a.Backend.(docstore.Watcher); ok {
		err := w.Watch(a.BaseCtx, func() {
			logger.WithComponent("app").Info("store changed externally, reloading recipes")
			if err := a.Repo.LoadAll(a.BaseCtx); err != nil {
				logger.WithComponent("app").Errorf("reload after external change failed: %v", err)
			}
		})
		switch {
		case errors.Is(err, docstore.ErrWatchUnsupported):
			logger.WithComponent("app").Debug("backend does not support watching")
		case err != nil:
			return fmt.Errorf("start store watcher: %w", err)
		}
	}

	a.refreshDone = cache.StartRefreshScheduler(a.BaseCtx, a.Repo, a.Config.Data.RefreshInterval)
	a.evictDone = a.Menus.StartEviction(a.BaseCtx)
	return nil
}

// Shutdown stops background work and releases the backend.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
	if a.refreshDone != nil {
		<-a.refreshDone
	}
	if a.evictDone != nil {
		<-a.evictDone
	}
	if err := a.Repo.Close(); err != nil {
		logger.WithComponent("app").Errorf("close repository: %v", err)
	}
	if err := a.Backend.Close(); err != nil {
		logger.WithComponent("app").Errorf("close backend: %v", err)
	}
}
