// Package handlers contains the HTTP handlers for the REST API.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/services/identify"
	"norelock.dev/reelid/backend/internal/services/system"
	"norelock.dev/reelid/backend/internal/storage"
	"norelock.dev/reelid/backend/internal/utils"
)

// multipartOverhead is the slack added to the body size limit to cover
// multipart framing around the file itself.
const multipartOverhead = 1 << 20

// IdentifyHandler handles identification requests.
type IdentifyHandler struct {
	identifySvc *identify.Service
	policy      storage.UploadPolicy
	metrics     *system.MetricsService
	logger      *utils.Logger
}

// NewIdentifyHandler creates a new identify handler.
func NewIdentifyHandler(
	identifySvc *identify.Service,
	policy storage.UploadPolicy,
	metrics *system.MetricsService,
	logger *utils.Logger,
) *IdentifyHandler {
	return &IdentifyHandler{
		identifySvc: identifySvc,
		policy:      policy,
		metrics:     metrics,
		logger:      logger.Named("identify_handler"),
	}
}

// Text handles free-text identification requests.
//
// The response is always 200: provider failures surface inside the envelope
// with source "fallback", not as HTTP errors.
func (h *IdentifyHandler) Text(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID == "" {
		return
	}

	// Parse request body
	var req models.IdentifyTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate request
	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	resp := h.identifySvc.IdentifyText(r.Context(), userID, req.Query)
	h.observe(models.RequestKindText, resp)

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// Actor handles actor-based identification requests.
func (h *IdentifyHandler) Actor(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID == "" {
		return
	}

	// Parse request body
	var req models.IdentifyActorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate request
	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	resp := h.identifySvc.IdentifyActor(r.Context(), userID, req.Name)
	h.observe(models.RequestKindActor, resp)

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// Image handles identification from an uploaded image.
func (h *IdentifyHandler) Image(w http.ResponseWriter, r *http.Request) {
	h.identifyUpload(w, r, models.RequestKindImage)
}

// Video handles identification from an uploaded video clip.
func (h *IdentifyHandler) Video(w http.ResponseWriter, r *http.Request) {
	h.identifyUpload(w, r, models.RequestKindVideo)
}

// identifyUpload handles the shared multipart upload flow for image and
// video identification.
func (h *IdentifyHandler) identifyUpload(w http.ResponseWriter, r *http.Request, kind models.RequestKind) {
	userID := GetUserIDFromContext(w, r)
	if userID == "" {
		return
	}

	// Cap the request body before parsing the multipart form
	maxSize := h.policy.MaxSize(kind)
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		utils.RespondWithError(w, http.StatusRequestEntityTooLarge, "File exceeds maximum upload size")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "A file upload named 'file' is required")
		return
	}
	defer file.Close()

	info := storage.FileInfo{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}

	resp, err := h.identifySvc.IdentifyUpload(r.Context(), userID, kind, file, info)
	if err != nil {
		switch err {
		case models.ErrFeatureDisabled:
			utils.RespondWithError(w, http.StatusForbidden, "This identification kind is disabled")
		case models.ErrEmptyUpload:
			utils.RespondWithError(w, http.StatusBadRequest, "Uploaded file is empty")
		case models.ErrFileTooLarge:
			utils.RespondWithError(w, http.StatusRequestEntityTooLarge, "File exceeds maximum upload size")
		case models.ErrUnsupportedFileType:
			utils.RespondWithError(w, http.StatusUnsupportedMediaType, "Unsupported file type")
		default:
			h.logger.Error("Failed to process upload", err, "kind", kind, "userId", userID)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to process upload")
		}
		return
	}

	h.metrics.ObserveUpload(string(kind), header.Size)
	h.observe(kind, resp)

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// observe records identification metrics for a completed request.
func (h *IdentifyHandler) observe(kind models.RequestKind, resp *models.IdentificationResponse) {
	duration := time.Duration(resp.ProcessingTimeMs) * time.Millisecond
	h.metrics.ObserveIdentification(string(kind), resp.Provider, string(resp.Source), duration, len(resp.Items))
}
