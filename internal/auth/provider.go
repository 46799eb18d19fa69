// Package auth provides password hashing and JWT token handling.
package auth

import "context"

// Provider is the credential and token surface the user manager and the
// HTTP middleware depend on. Password hashing and token handling are
// implemented separately, so a full Provider is usually an aggregate of
// a PasswordProvider and a JWTProvider.
type Provider interface {
	// HashPassword derives a storable hash from a plaintext password.
	HashPassword(password string) (string, error)

	// VerifyPassword reports whether password matches hash.
	VerifyPassword(password, hash string) bool

	// GenerateToken issues a signed access token carrying the user's
	// identity and roles.
	GenerateToken(userID, username string, roles []string) (string, error)

	// ValidateToken checks a token's signature and timing and returns
	// its claims.
	ValidateToken(token string) (*Claims, error)

	// RefreshToken exchanges a still-valid token for a fresh one.
	RefreshToken(token string) (string, error)

	// GetUserIDFromToken pulls the account ID out of a valid token.
	GetUserIDFromToken(token string) (string, error)

	// GetUserRolesFromToken pulls the role list out of a valid token.
	GetUserRolesFromToken(token string) ([]string, error)

	// HasRole reports whether the token carries the given role.
	HasRole(ctx context.Context, token, role string) bool
}

// BaseClaims is the application identity embedded in every token.
type BaseClaims struct {
	// UserID is the account identifier.
	UserID string `json:"userId"`

	// Username is the account's display name at issue time.
	Username string `json:"username"`

	// Roles lists the roles granted to the account.
	Roles []string `json:"roles"`
}

// Claims is what token validation hands back: the application identity
// plus whatever registered claims the signer attached.
type Claims struct {
	BaseClaims

	// StandardClaims carries the registered JWT claims.
	StandardClaims any `json:"standardClaims"`
}
