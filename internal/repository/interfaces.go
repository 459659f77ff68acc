package repository

import (
	"context"

	"github.com/bassista/chefs_best_friend/internal/docstore"
	"github.com/bassista/chefs_best_friend/internal/recipe"
)

// DocumentStore is the typed document access the repository needs.
// *docstore.Adapter[recipe.Recipe] implements it.
type DocumentStore interface {
	Create(ctx context.Context, collection string, rec recipe.Recipe) (docstore.DocumentRef, error)
	Get(ctx context.Context, collection, id string) (recipe.Recipe, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]recipe.Recipe, error)
}

var _ DocumentStore = (*docstore.Adapter[recipe.Recipe])(nil)
