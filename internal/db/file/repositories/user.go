// Package repositories contains file-backed repository implementations.
package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"norelock.dev/reelid/backend/internal/db/file"
	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/utils"
)

const userCollection = "users"

// UserRepository is the data access surface for user accounts. Email and
// username lookups are case-insensitive, and both fields are unique across
// the store.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int64, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// userRepository keeps the full user map in memory and rewrites the backing
// JSON file on every mutation.
type userRepository struct {
	path   string
	logger *utils.Logger
	mu     sync.RWMutex
	users  map[string]models.User // keyed by user ID
}

// NewUserRepository loads the user collection from the store.
func NewUserRepository(store *file.Store, logger *utils.Logger) (UserRepository, error) {
	r := &userRepository{
		path:   store.Path(userCollection),
		logger: logger.Named("user_repository"),
		users:  make(map[string]models.User),
	}

	if err := file.ReadJSON(r.path, &r.users); err != nil {
		r.logger.Error("Failed to load users", err, "path", r.path)
		return nil, models.NewInternalError(err, "Failed to load users")
	}

	return r, nil
}

// persist writes the user map to disk. Callers must hold the write lock.
func (r *userRepository) persist() error {
	if err := file.WriteJSON(r.path, r.users); err != nil {
		r.logger.Error("Failed to persist users", err, "path", r.path)
		return models.NewInternalError(err, "Failed to persist users")
	}
	return nil
}

// conflict scans for another user holding the candidate's email or username.
// Callers must hold the lock.
func (r *userRepository) conflict(candidate *models.User) error {
	for id, existing := range r.users {
		if id == candidate.ID {
			continue
		}
		if strings.EqualFold(existing.Email, candidate.Email) {
			return models.ErrEmailAlreadyExists
		}
		if strings.EqualFold(existing.Username, candidate.Username) {
			return models.ErrUsernameAlreadyExists
		}
	}
	return nil
}

// mutate applies an in-place change to one stored user and persists it.
func (r *userRepository) mutate(id string, apply func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return models.ErrUserNotFound
	}

	apply(&user)
	user.UpdatedAt = time.Now()
	r.users[id] = user

	return r.persist()
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	now := time.Now()
	user.TimeCreate(now)

	if user.Profile.JoinDate.IsZero() {
		user.Profile.JoinDate = now
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.conflict(user); err != nil {
		return err
	}

	r.users[user.ID] = *user

	if err := r.persist(); err != nil {
		delete(r.users, user.ID)
		return err
	}

	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}

	return nil, models.ErrUserNotFound
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Username, username) {
			return &user, nil
		}
	}

	return nil, models.ErrUserNotFound
}

// Update replaces the stored record. A persist failure restores the previous
// in-memory record.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdateNow()

	r.mu.Lock()
	defer r.mu.Unlock()

	previous, ok := r.users[user.ID]
	if !ok {
		return models.ErrUserNotFound
	}

	if err := r.conflict(user); err != nil {
		return err
	}

	r.users[user.ID] = *user

	if err := r.persist(); err != nil {
		r.users[user.ID] = previous
		return err
	}

	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id string) error {
	return r.mutate(id, func(u *models.User) {
		u.LastLogin = time.Now()
	})
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, ok := r.users[id]
	if !ok {
		return models.ErrUserNotFound
	}

	delete(r.users, id)

	if err := r.persist(); err != nil {
		r.users[id] = previous
		return err
	}

	return nil
}

func (r *userRepository) CountUsers(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.users)), nil
}

func (r *userRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.mutate(id, func(u *models.User) {
		u.IsActive = active
	})
}
