// Package repositories contains file-backed repository implementations.
package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"norelock.dev/reelid/backend/internal/db/file"
	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/utils"
)

const historyCollection = "history"

// HistoryRepository is the data access surface for per-user search history.
// Listings come back newest first. Delete enforces ownership, while
// DeleteOlderThan reaps across all users.
type HistoryRepository interface {
	Add(ctx context.Context, entry *models.SearchHistoryEntry) error
	FindByID(ctx context.Context, id string) (*models.SearchHistoryEntry, error)
	FindByUser(ctx context.Context, userID string, skip, limit int) ([]*models.SearchHistoryEntry, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id, userID string) error
	Clear(ctx context.Context, userID string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// historyRepository keeps all entries in memory and rewrites the backing
// JSON file on every mutation.
type historyRepository struct {
	path    string
	logger  *utils.Logger
	mu      sync.RWMutex
	entries map[string]models.SearchHistoryEntry // keyed by entry ID
}

// NewHistoryRepository loads the history collection from the store.
func NewHistoryRepository(store *file.Store, logger *utils.Logger) (HistoryRepository, error) {
	r := &historyRepository{
		path:    store.Path(historyCollection),
		logger:  logger.Named("history_repository"),
		entries: make(map[string]models.SearchHistoryEntry),
	}

	if err := file.ReadJSON(r.path, &r.entries); err != nil {
		r.logger.Error("Failed to load history", err, "path", r.path)
		return nil, models.NewInternalError(err, "Failed to load history")
	}

	return r, nil
}

// persist writes the entry map to disk. Callers must hold the write lock.
func (r *historyRepository) persist() error {
	if err := file.WriteJSON(r.path, r.entries); err != nil {
		r.logger.Error("Failed to persist history", err, "path", r.path)
		return models.NewInternalError(err, "Failed to persist history")
	}
	return nil
}

// removeWhere deletes every entry matching the predicate and persists the
// result, restoring the removed entries when the write fails. It returns how
// many entries were removed.
func (r *historyRepository) removeWhere(match func(models.SearchHistoryEntry) bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := make(map[string]models.SearchHistoryEntry)
	for id, entry := range r.entries {
		if match(entry) {
			removed[id] = entry
			delete(r.entries, id)
		}
	}

	if len(removed) == 0 {
		return 0, nil
	}

	if err := r.persist(); err != nil {
		for id, entry := range removed {
			r.entries[id] = entry
		}
		return 0, err
	}

	return len(removed), nil
}

func (r *historyRepository) Add(ctx context.Context, entry *models.SearchHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[entry.ID] = *entry

	if err := r.persist(); err != nil {
		delete(r.entries, entry.ID)
		return err
	}

	return nil
}

func (r *historyRepository) FindByID(ctx context.Context, id string) (*models.SearchHistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, models.ErrHistoryEntryNotFound
	}

	return &entry, nil
}

func (r *historyRepository) FindByUser(ctx context.Context, userID string, skip, limit int) ([]*models.SearchHistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]*models.SearchHistoryEntry, 0)
	for _, entry := range r.entries {
		if entry.UserID == userID {
			e := entry
			matches = append(matches, &e)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Timestamp.After(matches[j].Timestamp)
	})

	if skip >= len(matches) {
		return []*models.SearchHistoryEntry{}, nil
	}

	end := len(matches)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}

	return matches[skip:end], nil
}

func (r *historyRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, entry := range r.entries {
		if entry.UserID == userID {
			count++
		}
	}

	return count, nil
}

// Delete removes one entry after checking that the caller owns it.
func (r *historyRepository) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return models.ErrHistoryEntryNotFound
	}
	if entry.UserID != userID {
		return models.ErrUnauthorizedAction
	}

	delete(r.entries, id)

	if err := r.persist(); err != nil {
		r.entries[id] = entry
		return err
	}

	return nil
}

func (r *historyRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.removeWhere(func(e models.SearchHistoryEntry) bool {
		return e.UserID == userID
	})
	return err
}

func (r *historyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return r.removeWhere(func(e models.SearchHistoryEntry) bool {
		return e.Timestamp.Before(cutoff)
	})
}
