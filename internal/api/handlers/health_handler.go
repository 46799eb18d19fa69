// Package handlers contains the HTTP handlers for the REST API.
package handlers

import (
	"net/http"

	"norelock.dev/reelid/backend/internal/services/system"
	"norelock.dev/reelid/backend/internal/utils"
)

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	logger    *utils.Logger
	healthSvc *system.HealthService
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(healthSvc *system.HealthService, logger *utils.Logger) *HealthHandler {
	return &HealthHandler{
		logger:    logger.Named("health_handler"),
		healthSvc: healthSvc,
	}
}

// Check reports the full component breakdown.
//
// A degraded system still answers 200; only a down component turns the
// response into a 503. Running without a configured provider is a normal
// state, not an outage.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	health := h.healthSvc.GetHealth(r.Context())

	statusCode := http.StatusOK
	if health.Status == system.StatusDown {
		statusCode = http.StatusServiceUnavailable
	}

	utils.RespondWithJSON(w, statusCode, health)
}

// Ready answers load balancer readiness probes with a minimal body.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.healthSvc.IsReady(r.Context()) {
		utils.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
