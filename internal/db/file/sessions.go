// Package file provides file-backed JSON persistence.
package file

import (
	"context"
	"sync"
	"time"

	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/utils"
)

const (
	// sessionCollection is the collection name for persisted sessions
	sessionCollection = "sessions"

	// DefaultSessionExpiry is the default session expiration time
	DefaultSessionExpiry = 24 * time.Hour
)

// SessionData represents a user session
type SessionData struct {
	// UserID is the ID of the user
	UserID string `json:"userId"`

	// Username is the username of the user
	Username string `json:"username"`

	// Roles contains the user's roles
	Roles []string `json:"roles"`

	// IP is the user's IP address
	IP string `json:"ip"`

	// UserAgent is the user's browser/client information
	UserAgent string `json:"userAgent"`

	// CreatedAt is when the session was created
	CreatedAt time.Time `json:"createdAt"`

	// ExpiresAt is when the session expires
	ExpiresAt time.Time `json:"expiresAt"`

	// LastActivity is when the user was last active
	LastActivity time.Time `json:"lastActivity"`
}

// SessionManager handles file-backed storage for user sessions
type SessionManager struct {
	path     string
	expiry   time.Duration
	logger   *utils.Logger
	mu       sync.RWMutex
	sessions map[string]SessionData // keyed by the bearer token
}

// NewSessionManager creates a new session manager
func NewSessionManager(store *Store, expiry time.Duration) (*SessionManager, error) {
	if expiry <= 0 {
		expiry = DefaultSessionExpiry
	}

	m := &SessionManager{
		path:     store.Path(sessionCollection),
		expiry:   expiry,
		logger:   store.Logger().Named("session_manager"),
		sessions: make(map[string]SessionData),
	}

	if err := ReadJSON(m.path, &m.sessions); err != nil {
		m.logger.Error("Failed to load sessions", err, "path", m.path)
		return nil, err
	}

	return m, nil
}

// persist writes the session map to disk. Callers must hold the write lock.
func (m *SessionManager) persist() error {
	return WriteJSON(m.path, m.sessions)
}

// CreateSession creates a new session for a user. Any previous session for
// the same user is replaced.
func (m *SessionManager) CreateSession(ctx context.Context, user *models.User, token, ip, userAgent string) (*SessionData, error) {
	now := time.Now()

	session := SessionData{
		UserID:       user.ID,
		Username:     user.Username,
		Roles:        user.Roles,
		IP:           ip,
		UserAgent:    userAgent,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.expiry),
		LastActivity: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// One session per user
	for existingToken, existing := range m.sessions {
		if existing.UserID == user.ID {
			delete(m.sessions, existingToken)
		}
	}

	m.sessions[token] = session

	if err := m.persist(); err != nil {
		m.logger.Error("Failed to store session", err, "userId", user.ID)
		delete(m.sessions, token)
		return nil, err
	}

	m.logger.Info("Created session", "userId", user.ID, "token", utils.TruncateString(token, 8)+"...")
	return &session, nil
}

// GetSession retrieves a session by token. It returns nil without an error
// when the session does not exist or has expired.
func (m *SessionManager) GetSession(ctx context.Context, token string) (*SessionData, error) {
	m.mu.RLock()
	session, ok := m.sessions[token]
	m.mu.RUnlock()

	if !ok {
		m.logger.Debug("Session not found", "token", utils.TruncateString(token, 8)+"...")
		return nil, nil
	}

	if time.Now().After(session.ExpiresAt) {
		m.logger.Debug("Session expired", "userId", session.UserID, "token", utils.TruncateString(token, 8)+"...")
		_ = m.DestroySession(ctx, token)
		return nil, nil
	}

	return &session, nil
}

// RefreshSession extends a session's expiration time.
func (m *SessionManager) RefreshSession(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[token]
	if !ok {
		m.logger.Debug("Session not found for refresh", "token", utils.TruncateString(token, 8)+"...")
		return nil
	}

	now := time.Now()
	session.LastActivity = now
	session.ExpiresAt = now.Add(m.expiry)
	m.sessions[token] = session

	if err := m.persist(); err != nil {
		m.logger.Error("Failed to refresh session", err, "userId", session.UserID)
		return err
	}

	m.logger.Debug("Refreshed session", "userId", session.UserID, "token", utils.TruncateString(token, 8)+"...")
	return nil
}

// RotateSession replaces a session's token while keeping its identity data.
func (m *SessionManager) RotateSession(ctx context.Context, oldToken, newToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[oldToken]
	if !ok {
		return models.ErrSessionExpired
	}

	now := time.Now()
	session.LastActivity = now
	session.ExpiresAt = now.Add(m.expiry)

	delete(m.sessions, oldToken)
	m.sessions[newToken] = session

	if err := m.persist(); err != nil {
		m.logger.Error("Failed to rotate session", err, "userId", session.UserID)
		return err
	}

	m.logger.Debug("Rotated session", "userId", session.UserID)
	return nil
}

// DestroySession removes a session.
func (m *SessionManager) DestroySession(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[token]
	if !ok {
		return nil
	}

	delete(m.sessions, token)

	if err := m.persist(); err != nil {
		m.logger.Error("Failed to destroy session", err, "token", utils.TruncateString(token, 8)+"...")
		m.sessions[token] = session
		return err
	}

	m.logger.Info("Destroyed session", "userId", session.UserID, "token", utils.TruncateString(token, 8)+"...")
	return nil
}

// DestroyUserSessions removes all sessions for a user.
func (m *SessionManager) DestroyUserSessions(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := false
	for token, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, token)
			removed = true
		}
	}

	if !removed {
		return nil
	}

	if err := m.persist(); err != nil {
		m.logger.Error("Failed to destroy user sessions", err, "userId", userID)
		return err
	}

	m.logger.Info("Destroyed all sessions for user", "userId", userID)
	return nil
}

// GetActiveSessions gets the count of unexpired sessions.
func (m *SessionManager) GetActiveSessions(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	var count int64
	for _, session := range m.sessions {
		if now.Before(session.ExpiresAt) {
			count++
		}
	}

	return count, nil
}

// CleanupExpiredSessions removes expired sessions.
// This is typically called by a background task.
func (m *SessionManager) CleanupExpiredSessions(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cleanedCount := 0
	for token, session := range m.sessions {
		if now.After(session.ExpiresAt) {
			delete(m.sessions, token)
			cleanedCount++
		}
	}

	if cleanedCount == 0 {
		return 0, nil
	}

	if err := m.persist(); err != nil {
		m.logger.Error("Failed to persist session cleanup", err)
		return 0, err
	}

	m.logger.Info("Cleaned up expired sessions", "count", cleanedCount)
	return cleanedCount, nil
}
