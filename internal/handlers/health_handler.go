package handlers

import (
	"context"
	"net/http"
	"time"

	"carpool/internal/utils"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency the health check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks  map[string]Pinger
	version string
}

// NewHealthHandler pings each named dependency; nil entries are skipped.
func NewHealthHandler(version string, checks map[string]Pinger) *HealthHandler {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthHandler{checks: active, version: version}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	deps := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			deps[name] = "down"
			status = "degraded"
			continue
		}
		deps[name] = "up"
	}

	code, envelope := http.StatusOK, utils.StatusSuccess
	if status != "healthy" {
		code, envelope = http.StatusServiceUnavailable, utils.StatusError
	}
	c.JSON(code, utils.APIResponse{
		Status: envelope,
		Data: gin.H{
			"status":       status,
			"version":      h.version,
			"dependencies": deps,
		},
		Timestamp: time.Now(),
	})
}
