package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/chefs_best_friend/internal/api/controller"
	"github.com/bassista/chefs_best_friend/internal/api/middleware"
	"github.com/bassista/chefs_best_friend/internal/config"
)

// NewConfigurationRouter sets up configuration-related routes.
func NewConfigurationRouter(timeout time.Duration, group *gin.RouterGroup, cfg *config.Config) {
	cc := controller.NewConfigurationController(cfg)
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	group.GET("configuration", timeoutMiddleware, cc.GetConfiguration)
}
