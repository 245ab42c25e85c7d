package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/sourcing-service/internal/database"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Catalog  string `json:"catalog"`
	Database string `json:"database"`
}

// HealthCheck handles the health check endpoint
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status: "ok",
	}

	quoteMu.RLock()
	loaded := catalogDef != nil && len(optimizers) > 0
	quoteMu.RUnlock()
	if loaded {
		response.Catalog = "loaded"
	} else {
		response.Catalog = "missing"
		response.Status = "degraded"
	}

	// Check database connection
	if database.Pool() != nil {
		if err := database.Status(c.Request.Context()); err != nil {
			response.Database = "disconnected"
			response.Status = "degraded"
		} else {
			response.Database = "connected"
		}
	} else {
		response.Database = "not configured"
	}

	status := http.StatusOK
	if !loaded {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}
