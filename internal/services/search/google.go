// Package search provides web search through the Google Custom Search API.
package search

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"norelock.dev/reelid/backend/internal/config"
	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/utils"
)

// Service performs web searches against a Google programmable search engine.
// When the feature is disabled or the credentials are missing, the service
// still constructs but reports itself as disabled and serves empty results.
type Service struct {
	engineID   string
	maxResults int64
	enabled    bool
	svc        *customsearch.Service
	logger     *utils.Logger
}

// NewService creates a web search service from configuration.
func NewService(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*Service, error) {
	s := &Service{
		engineID:   cfg.Search.GoogleEngineID,
		maxResults: int64(cfg.Search.MaxResults),
		logger:     logger.Named("search_service"),
	}

	if !cfg.Features.EnableWebSearch {
		s.logger.Info("Web search is disabled")
		return s, nil
	}
	if cfg.Search.GoogleAPIKey == "" || cfg.Search.GoogleEngineID == "" {
		s.logger.Warn("Web search enabled but Google API key or engine ID is missing")
		return s, nil
	}

	svc, err := customsearch.NewService(ctx, option.WithAPIKey(cfg.Search.GoogleAPIKey))
	if err != nil {
		s.logger.Error("Failed to create custom search service", err)
		return nil, fmt.Errorf("create custom search service: %w", err)
	}

	s.svc = svc
	s.enabled = true
	return s, nil
}

// Enabled reports whether web searches can be served.
func (s *Service) Enabled() bool {
	return s.enabled
}

// WebSearch runs the query against the search engine and returns the hits.
// The query is sanitized before it leaves the process. When the service is
// disabled the response carries Enabled false and no results, without error.
func (s *Service) WebSearch(ctx context.Context, query string) (*models.WebSearchResponse, error) {
	if !s.enabled {
		return &models.WebSearchResponse{
			Enabled: false,
			Query:   utils.SanitizeSearchQuery(query),
			Results: []models.WebSearchResult{},
		}, nil
	}

	query = utils.SanitizeSearchQuery(query)
	if query == "" {
		return nil, models.ErrInvalidInput
	}

	s.logger.Debug("Searching the web", "query", query)

	resp, err := s.svc.Cse.List().
		Cx(s.engineID).
		Q(query).
		Num(s.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		s.logger.Error("Failed to execute web search", err, "query", query)
		return nil, fmt.Errorf("execute web search: %w", err)
	}

	results := make([]models.WebSearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, models.WebSearchResult{
			Title:       item.Title,
			Link:        item.Link,
			Snippet:     item.Snippet,
			DisplayLink: item.DisplayLink,
		})
	}

	out := &models.WebSearchResponse{
		Enabled: true,
		Query:   query,
		Results: results,
	}
	if resp.SearchInformation != nil {
		out.TotalResults = resp.SearchInformation.TotalResults
	}
	return out, nil
}
