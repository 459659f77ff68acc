package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/chefs_best_friend/internal/config"
	"github.com/bassista/chefs_best_friend/internal/recipe"
)

// ConfigurationResponse represents the configuration response structure for the API.
type ConfigurationResponse struct {
	Backend            string `json:"backend"`
	Collection         string `json:"collection"`
	RefreshIntervalSec int    `json:"refreshIntervalSec"`
	MinServingSize     int    `json:"minServingSize"`
	MaxServingSize     int    `json:"maxServingSize"`
}

// ConfigurationController handles configuration-related API endpoints.
type ConfigurationController struct {
	config *config.Config
}

// NewConfigurationController creates a new ConfigurationController.
func NewConfigurationController(cfg *config.Config) *ConfigurationController {
	return &ConfigurationController{
		config: cfg,
	}
}

// GetConfiguration returns the settings a client needs to render forms and poll.
func (cc *ConfigurationController) GetConfiguration(c *gin.Context) {
	c.JSON(http.StatusOK, ConfigurationResponse{
		Backend:            cc.config.Store.Backend,
		Collection:         cc.config.Store.Collection,
		RefreshIntervalSec: int(cc.config.Data.RefreshInterval.Seconds()),
		MinServingSize:     recipe.MinServingSize,
		MaxServingSize:     recipe.MaxServingSize,
	})
}
