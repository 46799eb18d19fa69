package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"norelock.dev/reelid/backend/internal/auth"
	"norelock.dev/reelid/backend/internal/config"
	"norelock.dev/reelid/backend/internal/db/file"
	"norelock.dev/reelid/backend/internal/models"
)

const authTestSecret = "middleware-test-secret-thats-long-enough"

// combinedProvider mirrors the provider wiring the server binary uses.
type combinedProvider struct {
	*auth.JWTProvider
	*auth.PasswordProvider
}

type authFixture struct {
	mw       *AuthMiddleware
	jwt      *auth.JWTProvider
	sessions *file.SessionManager
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	cfg := config.CreateDefaultConfig()
	cfg.Storage.DataDir = t.TempDir()

	store, err := file.NewStore(cfg, testLogger())
	require.NoError(t, err)

	sessions, err := file.NewSessionManager(store, time.Hour)
	require.NoError(t, err)

	jwtProvider := auth.NewJWTProvider(auth.JWTConfig{
		Secret:               authTestSecret,
		Issuer:               "reelid",
		Audience:             "reelid-users",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: time.Hour,
	}, testLogger())

	provider := &combinedProvider{
		JWTProvider:      jwtProvider,
		PasswordProvider: auth.NewPasswordProvider(bcrypt.MinCost, testLogger()),
	}

	return &authFixture{
		mw:       NewAuthMiddleware(provider, sessions, testLogger()),
		jwt:      jwtProvider,
		sessions: sessions,
	}
}

// issueToken mints a token and opens a session behind it, the way a login
// would.
func (f *authFixture) issueToken(t *testing.T, userID string, roles []string) string {
	t.Helper()

	token, err := f.jwt.GenerateToken(userID, "casey", roles)
	require.NoError(t, err)

	user := &models.User{
		BaseUser: models.BaseUser{ID: userID, Username: "casey", Roles: roles},
		Email:    "casey@example.com",
		IsActive: true,
	}
	_, err = f.sessions.CreateSession(context.Background(), user, token, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	return token
}

func protectedRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestRequireAuthSetsContext(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	f := newAuthFixture(t)
	token := f.issueToken(t, "u-1", []string{"user"})

	var gotUserID, gotUsername, gotRoles any
	handler := f.mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = r.Context().Value("userID")
		gotUsername = r.Context().Value("username")
		gotRoles = r.Context().Value("roles")
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, protectedRequest(token))

	require.Equal(http.StatusNoContent, w.Code)
	require.Equal("u-1", gotUserID)
	require.Equal("casey", gotUsername)
	require.Equal([]string{"user"}, gotRoles)
}

func TestRequireAuthRejections(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	f := newAuthFixture(t)
	handler := f.mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("rejected requests must not reach the next handler")
	}))

	// No credential at all.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, protectedRequest(""))
	require.Equal(http.StatusUnauthorized, w.Code)
	require.Contains(w.Body.String(), "no token provided")

	// A bearer value that is not a JWT.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, protectedRequest("not-a-jwt"))
	require.Equal(http.StatusUnauthorized, w.Code)
	require.Contains(w.Body.String(), "Invalid token")

	// A correctly signed token that has already expired.
	expiredMinter := auth.NewJWTProvider(auth.JWTConfig{
		Secret:               authTestSecret,
		Issuer:               "reelid",
		Audience:             "reelid-users",
		AccessTokenDuration:  -time.Minute,
		RefreshTokenDuration: time.Hour,
	}, testLogger())
	expired, err := expiredMinter.GenerateToken("u-1", "casey", []string{"user"})
	require.NoError(err)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, protectedRequest(expired))
	require.Equal(http.StatusUnauthorized, w.Code)
	require.Contains(w.Body.String(), "Token has expired")

	// A valid token with no session behind it, as after a logout.
	orphan, err := f.jwt.GenerateToken("u-2", "riley", []string{"user"})
	require.NoError(err)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, protectedRequest(orphan))
	require.Equal(http.StatusUnauthorized, w.Code)
	require.Contains(w.Body.String(), "Session expired or invalid")
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	f := newAuthFixture(t)
	adminToken := f.issueToken(t, "admin-1", []string{"user", "admin"})
	userToken := f.issueToken(t, "u-1", []string{"user"})

	called := false
	handler := f.mw.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, protectedRequest(adminToken))
	require.Equal(http.StatusNoContent, w.Code)
	require.True(called)

	called = false
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, protectedRequest(userToken))
	require.Equal(http.StatusForbidden, w.Code)
	require.Contains(w.Body.String(), "Insufficient permissions")
	require.False(called)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, protectedRequest(""))
	require.Equal(http.StatusUnauthorized, w.Code)
	require.False(called)
}
