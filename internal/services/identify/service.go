package identify

import (
	"context"
	"io"
	"mime/multipart"

	"norelock.dev/reelid/backend/internal/config"
	"norelock.dev/reelid/backend/internal/db/file/repositories"
	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/storage"
	"norelock.dev/reelid/backend/internal/utils"
)

// Service coordinates identification requests end to end: it validates and
// stores uploads, dispatches to the provider registry, and records the
// outcome in the user's history and library.
type Service struct {
	registry    *Registry
	store       storage.Storage
	policy      storage.UploadPolicy
	historyRepo repositories.HistoryRepository
	movieRepo   repositories.MovieRepository
	cfg         *config.Config
	logger      *utils.Logger
}

// NewService creates a new identification service.
func NewService(
	registry *Registry,
	store storage.Storage,
	policy storage.UploadPolicy,
	historyRepo repositories.HistoryRepository,
	movieRepo repositories.MovieRepository,
	cfg *config.Config,
	logger *utils.Logger,
) *Service {
	return &Service{
		registry:    registry,
		store:       store,
		policy:      policy,
		historyRepo: historyRepo,
		movieRepo:   movieRepo,
		cfg:         cfg,
		logger:      logger.Named("identify_service"),
	}
}

// Registry exposes the provider registry for provider management endpoints.
func (s *Service) Registry() *Registry {
	return s.registry
}

// IdentifyText identifies content from a free-text description.
func (s *Service) IdentifyText(ctx context.Context, userID, query string) *models.IdentificationResponse {
	req := &models.IdentificationRequest{
		Kind:  models.RequestKindText,
		Query: query,
	}

	resp := s.registry.Identify(ctx, req)
	s.persistOutcome(ctx, userID, req, "", resp)
	return resp
}

// IdentifyActor identifies content an actor is known for.
func (s *Service) IdentifyActor(ctx context.Context, userID, name string) *models.IdentificationResponse {
	req := &models.IdentificationRequest{
		Kind:  models.RequestKindActor,
		Query: name,
	}

	resp := s.registry.Identify(ctx, req)
	s.persistOutcome(ctx, userID, req, "", resp)
	return resp
}

// IdentifyUpload identifies content from an uploaded image or video frame.
// The upload is validated against the size and type policy for its kind and
// stored to disk best-effort before the provider call.
func (s *Service) IdentifyUpload(ctx context.Context, userID string, kind models.RequestKind, f multipart.File, info storage.FileInfo) (*models.IdentificationResponse, error) {
	switch kind {
	case models.RequestKindImage:
		if !s.cfg.Features.EnableImageIdentification {
			return nil, models.ErrFeatureDisabled
		}
	case models.RequestKindVideo:
		if !s.cfg.Features.EnableVideoIdentification {
			return nil, models.ErrFeatureDisabled
		}
	default:
		return nil, models.ErrInvalidRequestKind
	}

	if err := s.policy.Validate(kind, info); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(f)
	if err != nil {
		s.logger.Error("Failed to read upload", err, "filename", info.Filename)
		return nil, models.NewInternalError(err, "Failed to read upload")
	}

	// Keep the stored copy even if identification fails, so the attempt can
	// be retraced from history.
	uploadRef := s.storeUpload(f, info)

	req := &models.IdentificationRequest{
		Kind:     kind,
		Content:  content,
		MimeType: info.ContentType,
	}

	resp := s.registry.Identify(ctx, req)
	s.persistOutcome(ctx, userID, req, uploadRef, resp)
	return resp, nil
}

// storeUpload writes the upload to storage and returns its reference. A
// failed write is logged and returns an empty reference; identification
// proceeds without it.
func (s *Service) storeUpload(f multipart.File, info storage.FileInfo) string {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		s.logger.Error("Failed to rewind upload", err, "filename", info.Filename)
		return ""
	}

	ref, err := s.store.SaveFile(f, info)
	if err != nil {
		// Continue anyway, not critical.
		s.logger.Error("Failed to store upload", err, "filename", info.Filename)
		return ""
	}
	return ref
}

// persistOutcome records the identification in the user's history and, for
// live results, saves the top match to their library. Both writes are
// best-effort; failures are logged and the response is returned regardless.
func (s *Service) persistOutcome(ctx context.Context, userID string, req *models.IdentificationRequest, uploadRef string, resp *models.IdentificationResponse) {
	if userID == "" {
		return
	}

	entry := &models.SearchHistoryEntry{
		UserID:      userID,
		Kind:        req.Kind,
		Query:       req.Query,
		UploadRef:   uploadRef,
		Provider:    resp.Provider,
		Source:      resp.Source,
		ResultCount: len(resp.Items),
	}
	if len(resp.Items) > 0 {
		entry.TopResultTitle = resp.Items[0].Title
	}
	if err := s.historyRepo.Add(ctx, entry); err != nil {
		// Continue anyway, not critical.
		s.logger.Error("Failed to record history entry", err, "userId", userID)
	}

	// Degraded and fallback results never enter the library.
	if resp.Source != models.SourceLive || len(resp.Items) == 0 {
		return
	}

	movie := &models.Movie{
		UserID:      userID,
		RequestKind: req.Kind,
		Source:      resp.Source,
		Match:       resp.Items[0],
	}
	if err := s.movieRepo.Save(ctx, movie); err != nil {
		// Continue anyway, not critical.
		s.logger.Error("Failed to save identified title", err, "userId", userID)
	}
}
