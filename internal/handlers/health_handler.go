package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"homeservices-marketplace/internal/jobs"
)

// HealthReporter exposes the store health snapshots.
type HealthReporter interface {
	Last() jobs.Snapshot
	Check(ctx context.Context) jobs.Snapshot
}

type HealthHandler struct {
	monitor HealthReporter
}

func NewHealthHandler(monitor HealthReporter) *HealthHandler {
	return &HealthHandler{monitor: monitor}
}

// Health reports the last store check, running one inline before the first.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	snap := h.monitor.Last()
	if snap.CheckedAt.IsZero() {
		snap = h.monitor.Check(c.Request.Context())
	}

	status, code := "ok", http.StatusOK
	if !snap.Healthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"sql":       snap.SQL,
		"documents": snap.Documents,
		"checkedAt": snap.CheckedAt.Format(time.RFC3339),
		"time":      time.Now().Format(time.RFC3339),
	})
}
