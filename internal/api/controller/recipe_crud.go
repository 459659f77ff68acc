package controller

import (
	"context"

	"github.com/bassista/chefs_best_friend/internal/recipe"
	"github.com/bassista/chefs_best_friend/internal/repository"
)

// RecipeCrudService implements CrudService for recipes.
type RecipeCrudService struct {
	Repo *repository.RecipeRepository
}

func (s *RecipeCrudService) All(query string) []recipe.Recipe {
	if query == "" {
		return s.Repo.Recipes()
	}
	return s.Repo.Search(query)
}

func (s *RecipeCrudService) Get(ctx context.Context, id string) (recipe.Recipe, error) {
	return s.Repo.Get(ctx, id)
}

// Add ignores any client supplied id; the store assigns one.
func (s *RecipeCrudService) Add(ctx context.Context, item recipe.Recipe) (recipe.Recipe, error) {
	return s.Repo.Add(ctx, item.WithDocumentID(""))
}

func (s *RecipeCrudService) Update(ctx context.Context, id string, item recipe.Recipe) (recipe.Recipe, error) {
	return s.Repo.Update(ctx, item.WithDocumentID(id))
}

func (s *RecipeCrudService) Remove(ctx context.Context, id string) ([]recipe.Recipe, error) {
	if err := s.Repo.Delete(ctx, recipe.Recipe{ID: id}); err != nil {
		return nil, err
	}
	return s.Repo.Recipes(), nil
}

// RecipeCrudValidator implements CrudValidator for recipes.
type RecipeCrudValidator struct{}

func (RecipeCrudValidator) Validate(item recipe.Recipe) error {
	return item.Validate()
}
