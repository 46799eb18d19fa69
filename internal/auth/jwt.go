// Package auth provides password hashing and JWT token handling.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"norelock.dev/reelid/backend/internal/utils"
)

// Token errors
var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrExpiredToken    = errors.New("token has expired")
	ErrTokenGeneration = errors.New("failed to generate token")
	ErrInvalidClaims   = errors.New("invalid token claims")
)

// JWTConfig holds the signing parameters for issued tokens.
type JWTConfig struct {
	// Secret is the HMAC signing key.
	Secret string `yaml:"secret" validate:"required"`

	// Issuer names this service in the iss claim.
	Issuer string `yaml:"issuer" validate:"required"`

	// Audience names the intended consumer in the aud claim.
	Audience string `yaml:"audience" validate:"required"`

	// AccessTokenDuration bounds how long an access token stays valid.
	AccessTokenDuration time.Duration `yaml:"accessTokenDuration" validate:"required"`

	// RefreshTokenDuration bounds how long a refresh token stays valid.
	RefreshTokenDuration time.Duration `yaml:"refreshTokenDuration" validate:"required"`
}

// JWTClaims is the on-wire claim set: application identity plus the
// registered claims.
type JWTClaims struct {
	BaseClaims
	jwt.RegisteredClaims
}

// JWTProvider signs and validates HS256 tokens.
type JWTProvider struct {
	config    JWTConfig
	validator *jwt.Validator
	logger    *utils.Logger
}

// NewJWTProvider creates a token provider with a one second clock leeway.
func NewJWTProvider(config JWTConfig, logger *utils.Logger) *JWTProvider {
	return &JWTProvider{
		config:    config,
		validator: jwt.NewValidator(jwt.WithLeeway(time.Second)),
		logger:    logger.Named("jwt_provider"),
	}
}

// GenerateToken issues a signed access token for the given identity.
func (p *JWTProvider) GenerateToken(userID, username string, roles []string) (string, error) {
	now := time.Now()

	claims := JWTClaims{
		BaseClaims: BaseClaims{
			UserID:   userID,
			Username: username,
			Roles:    roles,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.config.Issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{p.config.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(p.config.AccessTokenDuration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        fmt.Sprintf("%d", now.UnixNano()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.config.Secret))
	if err != nil {
		p.logger.Error("Failed to sign JWT token", err, "userId", userID)
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return signed, nil
}

// ValidateToken parses and verifies a token. An expired but otherwise
// well-formed token returns its claims alongside ErrExpiredToken so the
// caller can decide whether a refresh is acceptable.
func (p *JWTProvider) ValidateToken(tokenString string) (*Claims, error) {
	var parsed JWTClaims
	token, err := jwt.ParseWithClaims(tokenString, &parsed, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.config.Secret), nil
	})

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &Claims{
			BaseClaims:     parsed.BaseClaims,
			StandardClaims: parsed.RegisteredClaims,
		}, ErrExpiredToken
	case err != nil:
		p.logger.Error("Failed to parse JWT token", err)
		return nil, ErrInvalidToken
	case token == nil || !token.Valid:
		return nil, ErrInvalidToken
	}

	if err := p.validator.Validate(&parsed); err != nil {
		p.logger.Error("Failed to validate JWT token", err)
		return nil, ErrInvalidToken
	}

	return &Claims{
		BaseClaims:     parsed.BaseClaims,
		StandardClaims: parsed.RegisteredClaims,
	}, nil
}

// RefreshToken reissues a token with a fresh expiry. Expired tokens are
// refused, the user has to log in again.
func (p *JWTProvider) RefreshToken(tokenString string) (string, error) {
	claims, err := p.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	if claims == nil {
		return "", ErrInvalidToken
	}

	return p.GenerateToken(claims.UserID, claims.Username, claims.Roles)
}

// GetUserIDFromToken returns the account ID carried by a valid token.
func (p *JWTProvider) GetUserIDFromToken(tokenString string) (string, error) {
	claims, err := p.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// GetUserRolesFromToken returns the roles carried by a valid token.
func (p *JWTProvider) GetUserRolesFromToken(tokenString string) ([]string, error) {
	claims, err := p.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.Roles, nil
}

// HasRole reports whether a valid token grants the given role.
func (p *JWTProvider) HasRole(ctx context.Context, tokenString, role string) bool {
	roles, err := p.GetUserRolesFromToken(tokenString)
	if err != nil {
		return false
	}
	return slices.Contains(roles, role)
}
