package handlers

import (
	"net/http"
	"time"

	"github.com/papertide/storefront-api/internal/platform/httpx"
)

// HealthHandlers serves the liveness endpoint used by the frontend and monitors.
type HealthHandlers struct {
	clock func() time.Time
}

// NewHealthHandlers constructs health handlers; a nil clock defaults to time.Now.
func NewHealthHandlers(clock func() time.Time) *HealthHandlers {
	if clock == nil {
		clock = time.Now
	}
	return &HealthHandlers{clock: clock}
}

// Health responds with a simple status payload.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	})
}
