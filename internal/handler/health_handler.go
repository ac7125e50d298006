package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docbench/internal/analyzer"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	registry *analyzer.Registry
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(registry *analyzer.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	if len(h.registry.Labels()) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "no analyzers configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
