package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bassista/chefs_best_friend/internal/app"
)

func SetupRoutes(r *gin.Engine, appCtx *app.App) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
			"cache":   appCtx.Cache.Status(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	publicRouter := r.Group("")

	// All Public APIs
	timeout := appCtx.Config.Server.RequestTimeout

	NewRecipeRouter(timeout, publicRouter, appCtx.Repo)
	NewMenuRouter(timeout, publicRouter, appCtx.Menus, appCtx.Cache)
	NewConfigurationRouter(timeout, publicRouter, appCtx.Config)
	NewEventsRouter(0, publicRouter, appCtx.Cache)
}
