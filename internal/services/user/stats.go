// Package user implements account management and profile statistics.
package user

import (
	"context"

	"norelock.dev/reelid/backend/internal/db/file/repositories"
	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/utils"
)

// StatsService aggregates a user's identification activity for their profile.
type StatsService struct {
	historyRepo repositories.HistoryRepository
	movieRepo   repositories.MovieRepository
	logger      *utils.Logger
}

// NewStatsService creates a new user stats service.
func NewStatsService(historyRepo repositories.HistoryRepository, movieRepo repositories.MovieRepository, logger *utils.Logger) *StatsService {
	return &StatsService{
		historyRepo: historyRepo,
		movieRepo:   movieRepo,
		logger:      logger.Named("stats_service"),
	}
}

// GetUserStats computes the activity summary for a user. Counts that cannot
// be read default to zero so the profile page still renders.
func (s *StatsService) GetUserStats(ctx context.Context, user *models.User) models.UserStatsSummary {
	summary := models.UserStatsSummary{
		MemberSince: user.Profile.JoinDate,
	}

	identifications, err := s.historyRepo.CountByUser(ctx, user.ID)
	if err != nil {
		s.logger.Error("Failed to count identifications", err, "userId", user.ID)
		// Continue anyway, default to zero
	} else {
		summary.TotalIdentifications = identifications
	}

	saved, err := s.movieRepo.CountByUser(ctx, user.ID)
	if err != nil {
		s.logger.Error("Failed to count saved movies", err, "userId", user.ID)
		// Continue anyway, default to zero
	} else {
		summary.SavedMovies = saved
	}

	return summary
}
