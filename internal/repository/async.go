package repository

import (
	"context"

	"github.com/bassista/chefs_best_friend/internal/docstore"
	"github.com/bassista/chefs_best_friend/internal/logger"
	"github.com/bassista/chefs_best_friend/internal/recipe"
)

// goTask runs op in the background. The task is cancelled when either ctx or
// the repository is done, and done is skipped once the repository is closed.
func goTask[T any](r *RecipeRepository, ctx context.Context, op func(context.Context) (T, error), done func(docstore.Result[T])) *docstore.Task {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(r.baseCtx, cancel)

	return docstore.Go(ctx, op, func(res docstore.Result[T]) {
		stop()
		cancel()
		if r.closed.Load() {
			logger.WithComponent("repository").Debug("dropping completion after close")
			return
		}
		if done != nil {
			done(res)
		}
	})
}

// LoadAllAsync runs LoadAll in the background.
func (r *RecipeRepository) LoadAllAsync(ctx context.Context, done func(docstore.Result[struct{}])) *docstore.Task {
	return goTask(r, ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.LoadAll(ctx)
	}, done)
}

// AddAsync runs Add in the background.
func (r *RecipeRepository) AddAsync(ctx context.Context, rec recipe.Recipe, done func(docstore.Result[recipe.Recipe])) *docstore.Task {
	return goTask(r, ctx, func(ctx context.Context) (recipe.Recipe, error) {
		return r.Add(ctx, rec)
	}, done)
}

// UpdateAsync runs Update in the background.
func (r *RecipeRepository) UpdateAsync(ctx context.Context, rec recipe.Recipe, done func(docstore.Result[recipe.Recipe])) *docstore.Task {
	return goTask(r, ctx, func(ctx context.Context) (recipe.Recipe, error) {
		return r.Update(ctx, rec)
	}, done)
}

// DeleteAsync runs Delete in the background.
func (r *RecipeRepository) DeleteAsync(ctx context.Context, rec recipe.Recipe, done func(docstore.Result[struct{}])) *docstore.Task {
	return goTask(r, ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.Delete(ctx, rec)
	}, done)
}
