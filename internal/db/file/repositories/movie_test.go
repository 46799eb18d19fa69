package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"norelock.dev/reelid/backend/internal/models"
)

func newMovieRepo(t *testing.T) MovieRepository {
	t.Helper()

	repo, err := NewMovieRepository(newStore(t), testLogger())
	require.NoError(t, err)
	return repo
}

func savedMovie(userID, title string) *models.Movie {
	return &models.Movie{
		UserID:      userID,
		RequestKind: models.RequestKindText,
		Source:      models.SourceLive,
		Match:       models.ContentMatch{Title: title, Kind: models.ContentKindMovie},
	}
}

func TestMovieSaveAndFind(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	repo := newMovieRepo(t)

	movie := savedMovie("user-1", "Inception")
	require.NoError(repo.Save(ctx, movie))
	require.NotEmpty(movie.ID)
	require.False(movie.CreatedAt.IsZero())

	found, err := repo.FindByID(ctx, movie.ID)
	require.NoError(err)
	require.Equal("Inception", found.Match.Title)

	_, err = repo.FindByID(ctx, "nope")
	require.ErrorIs(err, models.ErrMovieNotFound)
}

func TestMovieFindByUserNewestFirst(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	repo := newMovieRepo(t)

	// Save order fixes the creation timestamps, so the listing reverses it.
	require.NoError(repo.Save(ctx, savedMovie("user-1", "First")))
	require.NoError(repo.Save(ctx, savedMovie("user-1", "Second")))
	require.NoError(repo.Save(ctx, savedMovie("user-1", "Third")))
	require.NoError(repo.Save(ctx, savedMovie("user-2", "Other")))

	movies, err := repo.FindByUser(ctx, "user-1", 0, 0)
	require.NoError(err)
	require.Len(movies, 3)
	require.Equal("Third", movies[0].Match.Title)
	require.Equal("Second", movies[1].Match.Title)
	require.Equal("First", movies[2].Match.Title)
}

func TestMoviePagination(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	repo := newMovieRepo(t)

	titles := []string{"A", "B", "C", "D", "E"}
	for _, title := range titles {
		require.NoError(repo.Save(ctx, savedMovie("user-1", title)))
	}

	page, err := repo.FindByUser(ctx, "user-1", 0, 2)
	require.NoError(err)
	require.Len(page, 2)
	require.Equal("E", page[0].Match.Title)
	require.Equal("D", page[1].Match.Title)

	page, err = repo.FindByUser(ctx, "user-1", 4, 2)
	require.NoError(err)
	require.Len(page, 1)
	require.Equal("A", page[0].Match.Title)

	page, err = repo.FindByUser(ctx, "user-1", 9, 2)
	require.NoError(err)
	require.Empty(page)
}

func TestMovieCountByUser(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	repo := newMovieRepo(t)

	require.NoError(repo.Save(ctx, savedMovie("user-1", "A")))
	require.NoError(repo.Save(ctx, savedMovie("user-2", "B")))

	count, err := repo.CountByUser(ctx, "user-1")
	require.NoError(err)
	require.Equal(int64(1), count)
}

func TestMovieDeleteEnforcesOwnership(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	repo := newMovieRepo(t)

	movie := savedMovie("user-1", "Inception")
	require.NoError(repo.Save(ctx, movie))

	require.ErrorIs(repo.Delete(ctx, movie.ID, "user-2"), models.ErrUnauthorizedAction)

	_, err := repo.FindByID(ctx, movie.ID)
	require.NoError(err)

	require.NoError(repo.Delete(ctx, movie.ID, "user-1"))
	_, err = repo.FindByID(ctx, movie.ID)
	require.ErrorIs(err, models.ErrMovieNotFound)

	require.ErrorIs(repo.Delete(ctx, movie.ID, "user-1"), models.ErrMovieNotFound)
}

func TestMovieDeleteByUser(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	repo := newMovieRepo(t)

	require.NoError(repo.Save(ctx, savedMovie("user-1", "A")))
	require.NoError(repo.Save(ctx, savedMovie("user-1", "B")))
	require.NoError(repo.Save(ctx, savedMovie("user-2", "C")))

	require.NoError(repo.DeleteByUser(ctx, "user-1"))

	count, err := repo.CountByUser(ctx, "user-1")
	require.NoError(err)
	require.Zero(count)

	count, err = repo.CountByUser(ctx, "user-2")
	require.NoError(err)
	require.Equal(int64(1), count)

	// Deleting for a user with no movies is a no-op.
	require.NoError(repo.DeleteByUser(ctx, "user-3"))
}

func TestMoviesSurviveRestart(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	store := newStore(t)

	first, err := NewMovieRepository(store, testLogger())
	require.NoError(err)

	movie := savedMovie("user-1", "Inception")
	require.NoError(first.Save(ctx, movie))

	second, err := NewMovieRepository(store, testLogger())
	require.NoError(err)

	restored, err := second.FindByID(ctx, movie.ID)
	require.NoError(err)
	require.Equal("Inception", restored.Match.Title)
}
