// Package user implements account management and profile statistics.
package user

import (
	"context"
	"errors"

	"norelock.dev/reelid/backend/internal/auth"
	"norelock.dev/reelid/backend/internal/config"
	"norelock.dev/reelid/backend/internal/db/file"
	"norelock.dev/reelid/backend/internal/db/file/repositories"
	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/utils"
)

// Manager owns the account lifecycle, from registration through login,
// profile changes and logout.
type Manager struct {
	userRepo     repositories.UserRepository
	sessionMgr   *file.SessionManager
	authProvider auth.Provider
	cfg          *config.Config
	logger       *utils.Logger
}

// NewManager creates a new user manager.
func NewManager(
	userRepo repositories.UserRepository,
	sessionMgr *file.SessionManager,
	authProvider auth.Provider,
	cfg *config.Config,
	logger *utils.Logger,
) *Manager {
	return &Manager{
		userRepo:     userRepo,
		sessionMgr:   sessionMgr,
		authProvider: authProvider,
		cfg:          cfg,
		logger:       logger.Named("user_manager"),
	}
}

// ensureEmailFree returns ErrEmailAlreadyExists when the email is taken.
func (m *Manager) ensureEmailFree(ctx context.Context, email string) error {
	_, err := m.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return models.ErrEmailAlreadyExists
	case errors.Is(err, models.ErrUserNotFound):
		return nil
	default:
		m.logger.Error("Error checking email existence", err, "email", email)
		return err
	}
}

// ensureUsernameFree returns ErrUsernameAlreadyExists when the name is taken.
func (m *Manager) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := m.userRepo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return models.ErrUsernameAlreadyExists
	case errors.Is(err, models.ErrUserNotFound):
		return nil
	default:
		m.logger.Error("Error checking username existence", err, "username", username)
		return err
	}
}

// issueSession mints a token for the user and binds a session to it. A
// session store failure is logged but does not fail the login.
func (m *Manager) issueSession(ctx context.Context, user *models.User, ip, userAgent string) (string, error) {
	token, err := m.authProvider.GenerateToken(user.ID, user.Username, user.Roles)
	if err != nil {
		m.logger.Error("Failed to generate token", err, "userId", user.ID)
		return "", models.NewInternalError(err, "Failed to generate authentication token")
	}

	if _, err := m.sessionMgr.CreateSession(ctx, user, token, ip, userAgent); err != nil {
		m.logger.Error("Failed to create session", err, "userId", user.ID)
	}

	return token, nil
}

// loadUser fetches a user by ID, mapping repository failures to domain
// errors.
func (m *Manager) loadUser(ctx context.Context, id string) (*models.User, error) {
	user, err := m.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrUserNotFound
		}
		m.logger.Error("Failed to load user", err, "userId", id)
		return nil, models.NewInternalError(err, "Failed to retrieve user")
	}
	return user, nil
}

// Register creates a new user account and logs it in.
func (m *Manager) Register(ctx context.Context, req models.UserRegisterRequest, ip, userAgent string) (*models.User, string, error) {
	if !m.cfg.Features.EnableRegistration {
		return nil, "", models.ErrFeatureDisabled
	}

	email := utils.SanitizeEmail(req.Email)

	if err := m.ensureEmailFree(ctx, email); err != nil {
		return nil, "", err
	}
	if err := m.ensureUsernameFree(ctx, req.Username); err != nil {
		return nil, "", err
	}

	hashed, err := m.authProvider.HashPassword(req.Password)
	if err != nil {
		m.logger.Error("Failed to hash password", err)
		return nil, "", models.NewInternalError(err, "Failed to process password")
	}

	// The repository stamps the ID, timestamps and join date.
	user := &models.User{
		BaseUser: models.BaseUser{
			Username: req.Username,
			Profile: models.UserProfile{
				DisplayName: req.Username,
				AvatarURL:   defaultAvatarURL(req.Username),
				Language:    "en",
			},
			Roles: []string{"user"},
		},
		Email:        email,
		PasswordHash: hashed,
		IsActive:     true,
	}

	if err := m.userRepo.Create(ctx, user); err != nil {
		m.logger.Error("Failed to create user", err, "email", email)
		return nil, "", err
	}

	token, err := m.issueSession(ctx, user, ip, userAgent)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Login authenticates a user and returns a JWT token. A missing account and
// a wrong password both surface as ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, req models.UserLoginRequest, ip, userAgent string) (*models.User, string, error) {
	user, err := m.userRepo.FindByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, "", models.ErrInvalidCredentials
		}
		m.logger.Error("Failed to find user by email", err, "email", req.Email)
		return nil, "", err
	}

	if !user.IsActive {
		return nil, "", models.ErrAccountDisabled
	}
	if !m.authProvider.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, "", models.ErrInvalidCredentials
	}

	if err := m.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		m.logger.Error("Failed to update last login", err, "userId", user.ID)
	}

	token, err := m.issueSession(ctx, user, ip, userAgent)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Logout invalidates a user's sessions.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	if err := m.sessionMgr.DestroyUserSessions(ctx, userID); err != nil {
		m.logger.Error("Failed to destroy sessions", err, "userId", userID)
		return models.NewInternalError(err, "Failed to logout")
	}
	return nil
}

// RefreshToken exchanges a token for a fresh one and moves the session to it.
// The token must still belong to a live session, so a logged-out token cannot
// be refreshed even while its signature is valid.
func (m *Manager) RefreshToken(ctx context.Context, token string) (string, error) {
	session, err := m.sessionMgr.GetSession(ctx, token)
	if err != nil {
		m.logger.Error("Failed to look up session", err)
		return "", models.NewInternalError(err, "Failed to refresh token")
	}
	if session == nil {
		return "", models.ErrSessionExpired
	}

	newToken, err := m.authProvider.RefreshToken(token)
	if err != nil {
		return "", err
	}

	if err := m.sessionMgr.RotateSession(ctx, token, newToken); err != nil {
		m.logger.Error("Failed to rotate session", err, "userId", session.UserID)
		return "", err
	}

	return newToken, nil
}

// GetUserByID retrieves a user by their ID.
func (m *Manager) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return m.loadUser(ctx, id)
}

// UpdateUser applies a profile update. The username moves only when it is
// still free, and the profile's join date survives the replacement.
func (m *Manager) UpdateUser(ctx context.Context, userID string, req models.UserUpdateRequest) (*models.User, error) {
	user, err := m.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != "" && req.Username != user.Username {
		if err := m.ensureUsernameFree(ctx, req.Username); err != nil {
			return nil, err
		}
		user.Username = req.Username
	}

	if req.Profile != nil {
		joinDate := user.Profile.JoinDate
		user.Profile = *req.Profile
		user.Profile.JoinDate = joinDate

		// Free-text fields are stripped of markup, and only http(s) avatar
		// links are stored.
		user.Profile.DisplayName = utils.SanitizeString(user.Profile.DisplayName)
		user.Profile.Bio = utils.SanitizeString(user.Profile.Bio)
		if user.Profile.AvatarURL != "" {
			user.Profile.AvatarURL = utils.SanitizeURL(user.Profile.AvatarURL)
		}
	}

	if err := m.userRepo.Update(ctx, user); err != nil {
		m.logger.Error("Failed to update user", err, "userId", userID)
		return nil, err
	}

	return user, nil
}

// ChangePassword swaps the password after verifying the current one, then
// drops every live session belonging to the user.
func (m *Manager) ChangePassword(ctx context.Context, userID string, req models.UserPasswordChangeRequest) error {
	user, err := m.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	if !m.authProvider.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		return models.ErrInvalidCredentials
	}

	hashed, err := m.authProvider.HashPassword(req.NewPassword)
	if err != nil {
		m.logger.Error("Failed to hash new password", err, "userId", userID)
		return models.NewInternalError(err, "Failed to process password")
	}

	user.PasswordHash = hashed
	if err := m.userRepo.Update(ctx, user); err != nil {
		m.logger.Error("Failed to update password", err, "userId", userID)
		return err
	}

	if err := m.sessionMgr.DestroyUserSessions(ctx, userID); err != nil {
		m.logger.Error("Failed to invalidate sessions after password change", err, "userId", userID)
	}

	return nil
}

// GetUserCount gets the total number of registered users.
func (m *Manager) GetUserCount(ctx context.Context) (int64, error) {
	return m.userRepo.CountUsers(ctx)
}
