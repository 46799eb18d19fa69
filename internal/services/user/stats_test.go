package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"norelock.dev/reelid/backend/internal/config"
	"norelock.dev/reelid/backend/internal/db/file"
	"norelock.dev/reelid/backend/internal/db/file/repositories"
	"norelock.dev/reelid/backend/internal/models"
)

type failingHistoryRepo struct {
	repositories.HistoryRepository
}

func (failingHistoryRepo) CountByUser(context.Context, string) (int64, error) {
	return 0, errors.New("boom")
}

type failingMovieRepo struct {
	repositories.MovieRepository
}

func (failingMovieRepo) CountByUser(context.Context, string) (int64, error) {
	return 0, errors.New("boom")
}

func statsUser(id string, joined time.Time) *models.User {
	return &models.User{
		BaseUser: models.BaseUser{
			ID:      id,
			Profile: models.UserProfile{JoinDate: joined},
		},
	}
}

func TestGetUserStats(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	cfg := config.CreateDefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	store, err := file.NewStore(cfg, testLogger())
	require.NoError(err)

	historyRepo, err := repositories.NewHistoryRepository(store, testLogger())
	require.NoError(err)
	movieRepo, err := repositories.NewMovieRepository(store, testLogger())
	require.NoError(err)

	for _, query := range []string{"dream heist", "space farm", "blue aliens"} {
		require.NoError(historyRepo.Add(ctx, &models.SearchHistoryEntry{
			UserID:      "u-1",
			Kind:        models.RequestKindText,
			Query:       query,
			Source:      models.SourceLive,
			ResultCount: 1,
		}))
	}
	require.NoError(historyRepo.Add(ctx, &models.SearchHistoryEntry{
		UserID: "u-2",
		Kind:   models.RequestKindText,
		Query:  "someone else",
		Source: models.SourceLive,
	}))

	for _, title := range []string{"Inception", "Interstellar"} {
		require.NoError(movieRepo.Save(ctx, &models.Movie{
			UserID:      "u-1",
			RequestKind: models.RequestKindText,
			Source:      models.SourceLive,
			Match:       models.ContentMatch{Title: title, Kind: models.ContentKindMovie},
		}))
	}

	joined := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := NewStatsService(historyRepo, movieRepo, testLogger())

	summary := svc.GetUserStats(ctx, statsUser("u-1", joined))
	require.EqualValues(3, summary.TotalIdentifications)
	require.EqualValues(2, summary.SavedMovies)
	require.Equal(joined, summary.MemberSince)
}

func TestGetUserStatsDefaultsToZeroOnErrors(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	joined := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := NewStatsService(failingHistoryRepo{}, failingMovieRepo{}, testLogger())

	summary := svc.GetUserStats(context.Background(), statsUser("u-1", joined))
	require.Zero(summary.TotalIdentifications)
	require.Zero(summary.SavedMovies)
	require.Equal(joined, summary.MemberSince)
}
