package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/chefs_best_friend/internal/logger"
	"github.com/bassista/chefs_best_friend/internal/recipe"
	"github.com/bassista/chefs_best_friend/internal/repository"
)

// RecipeController exposes the recipe operations that do not fit the CRUD shape.
type RecipeController struct {
	*CrudController[recipe.Recipe]
	repo *repository.RecipeRepository
}

// NewRecipeController creates a RecipeController over repo.
func NewRecipeController(repo *repository.RecipeRepository) *RecipeController {
	return &RecipeController{
		CrudController: &CrudController[recipe.Recipe]{
			Service:   &RecipeCrudService{Repo: repo},
			Validator: RecipeCrudValidator{},
		},
		repo: repo,
	}
}

// DeleteByName removes every recipe carrying the name query parameter.
func (rc *RecipeController) DeleteByName(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name query parameter"})
		return
	}
	logger.WithRecipe("recipe-controller", "", name).Debug("delete by name requested")

	if err := rc.repo.DeleteByName(c.Request.Context(), name); err != nil {
		abortWithStoreError(c, err, "failed to delete recipes")
		return
	}
	c.JSON(http.StatusOK, rc.repo.Recipes())
}

// Reload re-reads the whole collection into the cache.
func (rc *RecipeController) Reload(c *gin.Context) {
	logger.WithComponent("recipe-controller").Debug("reload requested")
	if err := rc.repo.LoadAll(c.Request.Context()); err != nil {
		abortWithStoreError(c, err, "failed to reload recipes")
		return
	}
	c.JSON(http.StatusOK, rc.repo.Status())
}

// Status reports cache freshness.
func (rc *RecipeController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, rc.repo.Status())
}
