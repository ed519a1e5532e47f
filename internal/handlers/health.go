package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mangosense/api/internal/models"
)

// Health reports dependency reachability. Degraded dependencies flip the
// status code so load balancers can pull the instance.
func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if err := h.db.Ping(ctx); err != nil {
		checks["postgres"] = "unreachable"
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if err := h.cache.Ping(ctx).Err(); err != nil {
		checks["redis"] = "unreachable"
		healthy = false
	} else {
		checks["redis"] = "ok"
	}

	loaded := 0
	for _, dt := range []models.DetectionType{models.DetectionTypeLeaf, models.DetectionTypeFruit} {
		if _, err := h.registry.Get(dt); err == nil {
			loaded++
		}
	}
	checks["models_loaded"] = loaded
	if loaded < 2 {
		healthy = false
	}

	status := http.StatusOK
	message := "Service healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		message = "Service degraded"
	}

	c.JSON(status, Envelope{
		Success:   healthy,
		Message:   message,
		Data:      checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
