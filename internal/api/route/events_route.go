package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/chefs_best_friend/internal/api/controller"
	"github.com/bassista/chefs_best_friend/internal/cache"
)

// NewEventsRouter registers the event stream. It has no request timeout.
func NewEventsRouter(keepAlive time.Duration, group *gin.RouterGroup, store cache.AppStore) {
	ec := controller.NewEventsController(store, keepAlive)

	group.GET("events", ec.Stream)
}
