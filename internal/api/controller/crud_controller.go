package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CrudService defines the minimal interface required for CRUD operations.
type CrudService[T any] interface {
	All(query string) []T
	Get(ctx context.Context, id string) (T, error)
	Add(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, id string, item T) (T, error)
	Remove(ctx context.Context, id string) ([]T, error)
}

// CrudValidator defines the interface for validating a resource.
type CrudValidator[T any] interface {
	Validate(item T) error
}

// CrudController provides generic CRUD handlers for resources.
type CrudController[T any] struct {
	Service   CrudService[T]
	Validator CrudValidator[T]
}

// RegisterCrudRoutes registers CRUD endpoints for a resource on the given router group.
func (cc *CrudController[T]) RegisterCrudRoutes(rg *gin.RouterGroup, resource string) {
	rg.GET("/"+resource+"s", cc.GetAll)
	rg.GET("/"+resource+"/:id", cc.GetOne)
	rg.POST("/"+resource, cc.Create)
	rg.PUT("/"+resource+"/:id", cc.Update)
	rg.DELETE("/"+resource+"/:id", cc.Delete)
}

// GetAll lists the resources, filtered by the optional q query parameter.
func (cc *CrudController[T]) GetAll(c *gin.Context) {
	c.JSON(http.StatusOK, cc.Service.All(c.Query("q")))
}

// GetOne reads a single resource by id.
func (cc *CrudController[T]) GetOne(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing resource id"})
		return
	}
	item, err := cc.Service.Get(c.Request.Context(), id)
	if err != nil {
		abortWithStoreError(c, err, "failed to read resource")
		return
	}
	c.JSON(http.StatusOK, item)
}

// Create handles POST requests and returns the stored resource.
func (cc *CrudController[T]) Create(c *gin.Context) {
	item, ok := cc.bind(c)
	if !ok {
		return
	}
	created, err := cc.Service.Add(c.Request.Context(), item)
	if err != nil {
		abortWithStoreError(c, err, "failed to create resource")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update handles PUT requests for the resource named by the id path parameter.
func (cc *CrudController[T]) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing resource id"})
		return
	}
	item, ok := cc.bind(c)
	if !ok {
		return
	}
	updated, err := cc.Service.Update(c.Request.Context(), id, item)
	if err != nil {
		abortWithStoreError(c, err, "failed to update resource")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete removes a resource by id and returns the remaining list.
func (cc *CrudController[T]) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing resource id"})
		return
	}
	items, err := cc.Service.Remove(c.Request.Context(), id)
	if err != nil {
		abortWithStoreError(c, err, "failed to delete resource")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (cc *CrudController[T]) bind(c *gin.Context) (T, bool) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return item, false
	}
	if cc.Validator != nil {
		if err := cc.Validator.Validate(item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return item, false
		}
	}
	return item, true
}
