// Package handlers contains the HTTP handlers for the REST API.
package handlers

import (
	"encoding/json"
	"net/http"

	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/services/identify"
	"norelock.dev/reelid/backend/internal/utils"
)

// ProviderHandler handles HTTP requests for identification provider management.
type ProviderHandler struct {
	registry *identify.Registry
	logger   *utils.Logger
}

// NewProviderHandler creates a new provider handler.
func NewProviderHandler(registry *identify.Registry, logger *utils.Logger) *ProviderHandler {
	return &ProviderHandler{
		registry: registry,
		logger:   logger.Named("provider_handler"),
	}
}

// ProviderListResponse represents the list of known providers.
type ProviderListResponse struct {
	Providers []models.ProviderInfo `json:"providers"`
	Active    string                `json:"active"`
}

// List handles requests to list the known providers and the active key.
func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, ProviderListResponse{
		Providers: h.registry.Providers(),
		Active:    h.registry.CurrentProvider(),
	})
}

// Configure handles requests to register a provider credential at runtime.
// The response reports whether the credential was accepted; an implausible
// credential is rejected without error.
func (h *ProviderHandler) Configure(w http.ResponseWriter, r *http.Request) {
	// Parse request body
	var req models.ProviderConfigureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate request
	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	configured := h.registry.Configure(req.Provider, req.Credential)
	if configured {
		h.logger.Info("Provider configured via API", "provider", req.Provider)
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"configured": configured,
	})
}

// SelectActive handles requests to switch the active provider.
func (h *ProviderHandler) SelectActive(w http.ResponseWriter, r *http.Request) {
	// Parse request body
	var req models.ProviderSelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate request
	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	if err := h.registry.SelectActive(req.Provider); err != nil {
		switch err {
		case models.ErrProviderNotConfigured:
			utils.RespondWithError(w, http.StatusNotFound, "Provider not configured")
		default:
			h.logger.Error("Failed to select provider", err, "provider", req.Provider)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to select provider")
		}
		return
	}

	h.logger.Info("Active provider switched", "provider", req.Provider)

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"active": req.Provider,
	})
}
