package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/chefs_best_friend/internal/api/controller"
	"github.com/bassista/chefs_best_friend/internal/api/middleware"
	"github.com/bassista/chefs_best_friend/internal/repository"
)

func NewRecipeRouter(timeout time.Duration, group *gin.RouterGroup, repo *repository.RecipeRepository) {
	g := group.Group("")
	g.Use(middleware.RequestTimeout(timeout))

	rc := controller.NewRecipeController(repo)

	g.DELETE("recipes", rc.DeleteByName)
	g.POST("recipes/reload", rc.Reload)
	g.GET("recipes/status", rc.Status)
	rc.RegisterCrudRoutes(g, "recipe")
}
