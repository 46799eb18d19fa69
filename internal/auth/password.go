// Package auth provides password hashing and JWT token handling.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"norelock.dev/reelid/backend/internal/utils"
)

// Password errors
var (
	ErrHashingPassword = errors.New("failed to hash password")
	ErrInvalidPassword = errors.New("invalid password")
)

// PasswordProvider hashes and verifies account passwords with bcrypt.
type PasswordProvider struct {
	cost   int
	logger *utils.Logger
}

// NewPasswordProvider creates a password provider. A cost outside the
// bcrypt range falls back to bcrypt.DefaultCost.
func NewPasswordProvider(cost int, logger *utils.Logger) *PasswordProvider {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordProvider{
		cost:   cost,
		logger: logger.Named("password_provider"),
	}
}

// HashPassword derives a salted bcrypt hash from a plaintext password.
func (p *PasswordProvider) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		p.logger.Error("Failed to hash password", err)
		return "", ErrHashingPassword
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash.
// Malformed hashes simply fail verification.
func (p *PasswordProvider) VerifyPassword(password, hash string) bool {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		p.logger.Debug("Password verification failed", "error", err)
		return false
	}
	return true
}
