package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/chefs_best_friend/internal/cache"
	"github.com/bassista/chefs_best_friend/internal/logger"
	"github.com/bassista/chefs_best_friend/internal/menu"
	"github.com/bassista/chefs_best_friend/internal/recipe"
)

// SessionHeader carries the menu session id in both directions.
const SessionHeader = "X-Session-ID"

// MenuResponse is the body of every menu endpoint that returns the selection.
type MenuResponse struct {
	Session string          `json:"session"`
	Recipes []recipe.Recipe `json:"recipes"`
}

// MenuController manages the per-session recipe selection.
type MenuController struct {
	menus   *menu.Registry
	recipes cache.ReadOnlyStore
}

// NewMenuController creates a MenuController. Recipes are looked up in store.
func NewMenuController(menus *menu.Registry, store cache.ReadOnlyStore) *MenuController {
	return &MenuController{menus: menus, recipes: store}
}

// selection returns the caller's selection, creating the session when needed.
func (mc *MenuController) selection(c *gin.Context) (string, *menu.Selection) {
	session, sel := mc.menus.For(c.GetHeader(SessionHeader))
	c.Header(SessionHeader, session)
	return session, sel
}

// existing returns the caller's selection without creating a session. An
// unknown session reads as an empty selection.
func (mc *MenuController) existing(c *gin.Context) (string, *menu.Selection) {
	session := c.GetHeader(SessionHeader)
	sel, ok := mc.menus.Lookup(session)
	if !ok {
		return session, menu.NewSelection()
	}
	c.Header(SessionHeader, session)
	return session, sel
}

// GetMenu returns the selected recipes.
func (mc *MenuController) GetMenu(c *gin.Context) {
	session, sel := mc.existing(c)
	c.JSON(http.StatusOK, MenuResponse{Session: session, Recipes: sel.Selected()})
}

// Select adds the cached recipe with the id path parameter. Selecting a
// name twice is a no-op.
func (mc *MenuController) Select(c *gin.Context) {
	id := c.Param("id")
	r, ok := mc.recipes.FindByID(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	session, sel := mc.selection(c)
	if added := sel.AddSelected(r); added {
		logger.WithRecipe("menu-controller", r.ID, r.Name).WithField("session", session).Debug("recipe selected")
	}
	c.JSON(http.StatusOK, MenuResponse{Session: session, Recipes: sel.Selected()})
}

// Deselect removes the recipe with the name path parameter.
func (mc *MenuController) Deselect(c *gin.Context) {
	name := c.Param("name")
	session, sel := mc.existing(c)
	if !sel.RemoveSelected(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not in menu"})
		return
	}
	c.JSON(http.StatusOK, MenuResponse{Session: session, Recipes: sel.Selected()})
}

// Ingredients returns the shopping list of the current selection.
func (mc *MenuController) Ingredients(c *gin.Context) {
	_, sel := mc.existing(c)
	c.JSON(http.StatusOK, sel.Ingredients())
}

// Clear forgets the session and its selection.
func (mc *MenuController) Clear(c *gin.Context) {
	if session := c.GetHeader(SessionHeader); session != "" {
		mc.menus.Drop(session)
	}
	c.Status(http.StatusNoContent)
}
