package handlers

import (
	"net/http"
	"time"
)

// HealthHandlers serves liveness probes.
type HealthHandlers struct {
	started time.Time
	clock   func() time.Time
}

// NewHealthHandlers constructs the health endpoint handler.
func NewHealthHandlers() *HealthHandlers {
	return &HealthHandlers{
		started: time.Now().UTC(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Healthz reports process health and uptime.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.started).Seconds(),
		"timestamp": now.Format(time.RFC3339),
	})
}
