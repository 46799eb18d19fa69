package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"norelock.dev/reelid/backend/internal/models"
)

func newSessionManager(t *testing.T, expiry time.Duration) *SessionManager {
	t.Helper()

	m, err := NewSessionManager(newTestStore(t), expiry)
	require.NoError(t, err)
	return m
}

func sessionUser(id string) *models.User {
	return &models.User{
		BaseUser: models.BaseUser{
			ID:       id,
			Username: "casey",
			Roles:    []string{"user"},
		},
	}
}

// expireSession backdates a stored session so expiry paths can be exercised
// without sleeping.
func expireSession(m *SessionManager, token string) {
	m.mu.Lock()
	session := m.sessions[token]
	session.ExpiresAt = time.Now().Add(-time.Minute)
	m.sessions[token] = session
	m.mu.Unlock()
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	m := newSessionManager(t, time.Hour)

	created, err := m.CreateSession(ctx, sessionUser("user-1"), "token-1", "203.0.113.9", "test-agent")
	require.NoError(err)
	require.Equal("user-1", created.UserID)
	require.Equal("casey", created.Username)
	require.Equal([]string{"user"}, created.Roles)
	require.Equal("203.0.113.9", created.IP)
	require.True(created.ExpiresAt.After(time.Now()))

	got, err := m.GetSession(ctx, "token-1")
	require.NoError(err)
	require.NotNil(got)
	require.Equal("user-1", got.UserID)

	require.NoError(m.DestroySession(ctx, "token-1"))

	got, err = m.GetSession(ctx, "token-1")
	require.NoError(err)
	require.Nil(got)
}

func TestSessionMissingTokenIsNotAnError(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	m := newSessionManager(t, time.Hour)

	got, err := m.GetSession(context.Background(), "never-issued")
	require.NoError(err)
	require.Nil(got)

	// Destroying an unknown token is a no-op.
	require.NoError(m.DestroySession(context.Background(), "never-issued"))
}

func TestSessionOnePerUser(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	m := newSessionManager(t, time.Hour)

	_, err := m.CreateSession(ctx, sessionUser("user-1"), "token-1", "", "")
	require.NoError(err)
	_, err = m.CreateSession(ctx, sessionUser("user-1"), "token-2", "", "")
	require.NoError(err)

	old, err := m.GetSession(ctx, "token-1")
	require.NoError(err)
	require.Nil(old)

	current, err := m.GetSession(ctx, "token-2")
	require.NoError(err)
	require.NotNil(current)
}

func TestSessionExpiryRemovesSession(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	m := newSessionManager(t, time.Hour)
	_, err := m.CreateSession(ctx, sessionUser("user-1"), "token-1", "", "")
	require.NoError(err)

	expireSession(m, "token-1")

	got, err := m.GetSession(ctx, "token-1")
	require.NoError(err)
	require.Nil(got)

	// The expired session is destroyed on read, not just hidden.
	m.mu.RLock()
	_, stillThere := m.sessions["token-1"]
	m.mu.RUnlock()
	require.False(stillThere)
}

func TestSessionRotate(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	m := newSessionManager(t, time.Hour)
	_, err := m.CreateSession(ctx, sessionUser("user-1"), "token-old", "", "")
	require.NoError(err)

	require.NoError(m.RotateSession(ctx, "token-old", "token-new"))

	old, err := m.GetSession(ctx, "token-old")
	require.NoError(err)
	require.Nil(old)

	rotated, err := m.GetSession(ctx, "token-new")
	require.NoError(err)
	require.NotNil(rotated)
	require.Equal("user-1", rotated.UserID)
}

func TestSessionRotateUnknownToken(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	m := newSessionManager(t, time.Hour)
	err := m.RotateSession(context.Background(), "never-issued", "token-new")
	require.ErrorIs(err, models.ErrSessionExpired)
}

func TestSessionRefreshExtendsExpiry(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	m := newSessionManager(t, time.Hour)
	created, err := m.CreateSession(ctx, sessionUser("user-1"), "token-1", "", "")
	require.NoError(err)

	require.NoError(m.RefreshSession(ctx, "token-1"))

	refreshed, err := m.GetSession(ctx, "token-1")
	require.NoError(err)
	require.NotNil(refreshed)
	require.False(refreshed.ExpiresAt.Before(created.ExpiresAt))

	// Refreshing an unknown token is a no-op.
	require.NoError(m.RefreshSession(ctx, "never-issued"))
}

func TestSessionDestroyUserSessions(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	m := newSessionManager(t, time.Hour)
	_, err := m.CreateSession(ctx, sessionUser("user-1"), "token-1", "", "")
	require.NoError(err)
	_, err = m.CreateSession(ctx, sessionUser("user-2"), "token-2", "", "")
	require.NoError(err)

	require.NoError(m.DestroyUserSessions(ctx, "user-1"))

	gone, err := m.GetSession(ctx, "token-1")
	require.NoError(err)
	require.Nil(gone)

	kept, err := m.GetSession(ctx, "token-2")
	require.NoError(err)
	require.NotNil(kept)

	// No sessions for the user is a no-op.
	require.NoError(m.DestroyUserSessions(ctx, "user-3"))
}

func TestSessionCleanupAndActiveCount(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	m := newSessionManager(t, time.Hour)
	_, err := m.CreateSession(ctx, sessionUser("user-1"), "token-1", "", "")
	require.NoError(err)
	_, err = m.CreateSession(ctx, sessionUser("user-2"), "token-2", "", "")
	require.NoError(err)

	expireSession(m, "token-1")

	active, err := m.GetActiveSessions(ctx)
	require.NoError(err)
	require.Equal(int64(1), active)

	cleaned, err := m.CleanupExpiredSessions(ctx)
	require.NoError(err)
	require.Equal(1, cleaned)

	cleaned, err = m.CleanupExpiredSessions(ctx)
	require.NoError(err)
	require.Zero(cleaned)
}

func TestSessionsSurviveRestart(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	store := newTestStore(t)

	first, err := NewSessionManager(store, time.Hour)
	require.NoError(err)
	_, err = first.CreateSession(ctx, sessionUser("user-1"), "token-1", "", "")
	require.NoError(err)

	second, err := NewSessionManager(store, time.Hour)
	require.NoError(err)

	restored, err := second.GetSession(ctx, "token-1")
	require.NoError(err)
	require.NotNil(restored)
	require.Equal("user-1", restored.UserID)
}

func TestSessionDefaultExpiry(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	m := newSessionManager(t, 0)
	require.Equal(DefaultSessionExpiry, m.expiry)
}
