package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/chefs_best_friend/internal/docstore"
	"github.com/bassista/chefs_best_friend/internal/repository"
)

// statusFor maps a store failure to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, docstore.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, docstore.ErrDeserializationFailed):
		return http.StatusBadGateway
	case errors.Is(err, docstore.ErrStoreUnavailable), errors.Is(err, repository.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWithStoreError records err on the context and writes the mapped status.
func abortWithStoreError(c *gin.Context, err error, msg string) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{
		"error": msg,
		"kind":  docstore.Kind(err),
	})
}
