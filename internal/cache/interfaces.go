package cache

import (
	"context"

	"github.com/bassista/chefs_best_friend/internal/recipe"
)

// ReadOnlyStore is the minimal cache API for read-only controllers.
type ReadOnlyStore interface {
	Snapshot() []recipe.Recipe
	Search(query string) []recipe.Recipe
	FindByID(id string) (recipe.Recipe, bool)
	Status() Status
}

// Observable is the subscription side of the cache, used by event streams.
type Observable interface {
	Subscribe(fn Subscriber) (unsubscribe func())
}

// Refresher reloads the cache from the backing store.
type Refresher interface {
	LoadAll(ctx context.Context) error
}

// AppStore is the cache contract the application container exposes.
type AppStore interface {
	ReadOnlyStore
	Observable
}

var _ AppStore = (*Store)(nil)
