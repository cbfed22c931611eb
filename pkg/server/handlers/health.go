package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lexigraph/lexigraph"
)

// Build information, settable at build time via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health and readiness probes.
type HealthHandler struct {
	engine *lexigraph.Engine
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(engine *lexigraph.Engine) *HealthHandler {
	return &HealthHandler{engine: engine}
}

// HealthCheck handles GET /health.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"service":    "lexigraph",
		"version":    Version,
		"commit":     GitCommit,
		"go_version": GoVersion,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck handles GET /ready. It verifies the store answers a cheap
// read within the probe deadline.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	_, err := h.engine.Documents(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"checks": gin.H{"store": gin.H{"status": "unhealthy", "error": err.Error()}},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": gin.H{"store": gin.H{"status": "healthy", "duration": time.Since(start).String()}},
	})
}
