package handlers

import (
	"context"
	"net/http"
	"time"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/scheduler"
	"furniture-miniapp/internal/state"
	"furniture-miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
)

const healthPingTimeout = 3 * time.Second

type HealthHandler struct {
	client    *backend.Client
	registry  *state.Registry
	scheduler scheduler.Scheduler
	logger    *logger.Logger
}

// NewHealthHandler creates the health handler. registry and sched may be nil.
func NewHealthHandler(client *backend.Client, registry *state.Registry, sched scheduler.Scheduler, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		client:    client,
		registry:  registry,
		scheduler: sched,
		logger:    logger,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	status := "ok"
	statusCode := http.StatusOK

	backendInfo := gin.H{"driver": "none", "degraded": true}
	switch {
	case h.client == nil:
		status = "degraded"
	case h.client.Degraded():
		backendInfo = gin.H{"driver": h.client.Name(), "degraded": true}
		status = "degraded"
	default:
		backendInfo = gin.H{"driver": h.client.Name(), "degraded": false}
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		if err := h.client.Ping(ctx); err != nil {
			h.logger.Errorw("Backend health check failed", "error", err)
			backendInfo["error"] = err.Error()
			status = "error"
			statusCode = http.StatusServiceUnavailable
		}
	}

	response := gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "furniture-miniapp",
		"backend":   backendInfo,
	}
	if h.registry != nil {
		response["sessions"] = h.registry.Len()
	}
	if h.scheduler != nil {
		response["scheduler"] = gin.H{
			"running": h.scheduler.IsRunning(),
			"metrics": h.scheduler.GetMetrics().GetMetricsSummary(),
		}
	}

	c.JSON(statusCode, response)
}
