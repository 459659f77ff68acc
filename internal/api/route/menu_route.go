package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/chefs_best_friend/internal/api/controller"
	"github.com/bassista/chefs_best_friend/internal/api/middleware"
	"github.com/bassista/chefs_best_friend/internal/cache"
	"github.com/bassista/chefs_best_friend/internal/menu"
)

func NewMenuRouter(timeout time.Duration, group *gin.RouterGroup, menus *menu.Registry, store cache.ReadOnlyStore) {
	g := group.Group("")
	g.Use(middleware.RequestTimeout(timeout))

	mc := controller.NewMenuController(menus, store)

	g.GET("menu", mc.GetMenu)
	g.GET("menu/ingredients", mc.Ingredients)
	g.POST("menu/:id", mc.Select)
	g.DELETE("menu/:name", mc.Deselect)
	g.DELETE("menu", mc.Clear)
}
