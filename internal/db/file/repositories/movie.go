// Package repositories contains file-backed repository implementations.
package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"norelock.dev/reelid/backend/internal/db/file"
	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/utils"
)

// Collection name
const (
	movieCollection = "movies"
)

// MovieRepository defines the interface for saved movie data access operations.
type MovieRepository interface {
	// Save stores an identified title in the user's library.
	Save(ctx context.Context, movie *models.Movie) error

	// FindByID finds a saved movie by its ID.
	FindByID(ctx context.Context, id string) (*models.Movie, error)

	// FindByUser finds a user's saved movies, newest first.
	FindByUser(ctx context.Context, userID string, skip, limit int) ([]*models.Movie, error)

	// CountByUser counts a user's saved movies.
	CountByUser(ctx context.Context, userID string) (int64, error)

	// Delete removes a saved movie owned by the given user.
	Delete(ctx context.Context, id, userID string) error

	// DeleteByUser removes all saved movies for a user.
	DeleteByUser(ctx context.Context, userID string) error
}

// movieRepository is the file-backed implementation of MovieRepository.
type movieRepository struct {
	path   string
	logger *utils.Logger
	mu     sync.RWMutex
	movies map[string]models.Movie // keyed by movie ID
}

// NewMovieRepository creates a new instance of MovieRepository.
func NewMovieRepository(store *file.Store, logger *utils.Logger) (MovieRepository, error) {
	r := &movieRepository{
		path:   store.Path(movieCollection),
		logger: logger.Named("movie_repository"),
		movies: make(map[string]models.Movie),
	}

	if err := file.ReadJSON(r.path, &r.movies); err != nil {
		r.logger.Error("Failed to load movies", err, "path", r.path)
		return nil, models.NewInternalError(err, "Failed to load movies")
	}

	return r, nil
}

// persist writes the movie map to disk. Callers must hold the write lock.
func (r *movieRepository) persist() error {
	if err := file.WriteJSON(r.path, r.movies); err != nil {
		r.logger.Error("Failed to persist movies", err, "path", r.path)
		return models.NewInternalError(err, "Failed to persist movies")
	}
	return nil
}

// Save stores an identified title in the user's library.
func (r *movieRepository) Save(ctx context.Context, movie *models.Movie) error {
	if movie.ID == "" {
		movie.ID = uuid.NewString()
	}

	movie.CreateNow()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.movies[movie.ID] = *movie

	if err := r.persist(); err != nil {
		delete(r.movies, movie.ID)
		return err
	}

	return nil
}

// FindByID finds a saved movie by its ID.
func (r *movieRepository) FindByID(ctx context.Context, id string) (*models.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	movie, ok := r.movies[id]
	if !ok {
		return nil, models.ErrMovieNotFound
	}

	return &movie, nil
}

// FindByUser finds a user's saved movies, newest first.
func (r *movieRepository) FindByUser(ctx context.Context, userID string, skip, limit int) ([]*models.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]*models.Movie, 0)
	for _, movie := range r.movies {
		if movie.UserID == userID {
			m := movie
			matches = append(matches, &m)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	if skip >= len(matches) {
		return []*models.Movie{}, nil
	}

	end := len(matches)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}

	return matches[skip:end], nil
}

// CountByUser counts a user's saved movies.
func (r *movieRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, movie := range r.movies {
		if movie.UserID == userID {
			count++
		}
	}

	return count, nil
}

// Delete removes a saved movie owned by the given user.
func (r *movieRepository) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	movie, ok := r.movies[id]
	if !ok {
		return models.ErrMovieNotFound
	}

	if movie.UserID != userID {
		return models.ErrUnauthorizedAction
	}

	delete(r.movies, id)

	if err := r.persist(); err != nil {
		r.movies[id] = movie
		return err
	}

	return nil
}

// DeleteByUser removes all saved movies for a user.
func (r *movieRepository) DeleteByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := make(map[string]models.Movie)
	for id, movie := range r.movies {
		if movie.UserID == userID {
			removed[id] = movie
			delete(r.movies, id)
		}
	}

	if len(removed) == 0 {
		return nil
	}

	if err := r.persist(); err != nil {
		for id, movie := range removed {
			r.movies[id] = movie
		}
		return err
	}

	return nil
}
