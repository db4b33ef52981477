package handler

import (
	"net/http"

	"bookora/internal/httputil"
)

// StoreStatus reports whether the remote document store is configured
type StoreStatus interface {
	IsConfigured() bool
}

// HealthHandler answers liveness checks
type HealthHandler struct {
	store  StoreStatus
	driver string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store StoreStatus, driver string) *HealthHandler {
	return &HealthHandler{store: store, driver: driver}
}

// HealthCheck reports the store driver and whether writes can succeed
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"store":      h.driver,
		"configured": h.store.IsConfigured(),
	})
}
