package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDomainErrorMessage(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	cause := errors.New("record vanished")

	withMessage := NewDomainError(cause, "lookup failed", http.StatusNotFound, "movie")
	require.Equal("lookup failed", withMessage.Error())
	require.Equal(cause, withMessage.Unwrap())
	require.ErrorIs(withMessage, cause)

	// An empty message inherits the cause's text.
	inherited := NewDomainError(cause, "", http.StatusNotFound, "movie")
	require.Equal("record vanished", inherited.Error())
}

func TestDomainErrorDetails(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	err := NewUserError(nil, "profile rejected", http.StatusBadRequest).
		AddDetail("field", "avatarUrl").
		WithDetails(map[string]any{"length": 2048})

	require.Equal("user", err.Domain)
	require.Equal("avatarUrl", err.Details["field"])
	require.Equal(2048, err.Details["length"])
}

func TestDomainErrorConstructors(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	cases := []struct {
		name       string
		err        *DomainError
		wantDomain string
		wantCode   int
	}{
		{"user", NewUserError(nil, "m", http.StatusConflict), "user", http.StatusConflict},
		{"auth", NewAuthError(nil, "m", http.StatusUnauthorized), "auth", http.StatusUnauthorized},
		{"identify", NewIdentifyError(nil, "m", http.StatusBadGateway), "identify", http.StatusBadGateway},
		{"movie", NewMovieError(nil, "m", http.StatusNotFound), "movie", http.StatusNotFound},
		{"history", NewHistoryError(nil, "m", http.StatusNotFound), "history", http.StatusNotFound},
		{"search", NewSearchError(nil, "m", http.StatusServiceUnavailable), "search", http.StatusServiceUnavailable},
		{"upload", NewUploadError(nil, "m", http.StatusRequestEntityTooLarge), "upload", http.StatusRequestEntityTooLarge},
		{"validation", NewValidationError(nil, "m"), "validation", http.StatusUnprocessableEntity},
		{"internal", NewInternalError(nil, ""), "system", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		require.Equal(tc.wantDomain, tc.err.Domain, "%s domain", tc.name)
		require.Equal(tc.wantCode, tc.err.Code, "%s code", tc.name)
	}

	require.Equal("An internal server error occurred", NewInternalError(nil, "").Message)
}

func TestNewErrorResponseFromDomainError(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	err := NewMovieError(ErrMovieNotFound, "movie not in library", http.StatusNotFound).
		AddDetail("movieId", "m-1")

	resp := NewErrorResponse(err)
	require.False(resp.Success)
	require.Equal(http.StatusNotFound, resp.Error.Code)
	require.Equal("movie not in library", resp.Error.Message)
	require.Equal("movie", resp.Error.Domain)
	require.Equal("m-1", resp.Error.Details["movieId"])
}

func TestNewErrorResponseFromPlainError(t *testing.T) {
	require := require.New(t)

	t.Setenv("REELID_ENV", "development")

	resp := NewErrorResponse(errors.New("boom"))
	require.False(resp.Success)
	require.Equal(http.StatusInternalServerError, resp.Error.Code)
	require.Equal("An unexpected error occurred", resp.Error.Message)
	require.Equal("boom", resp.Error.Details["originalError"])

	// Production responses keep the original message out of the payload.
	t.Setenv("REELID_ENV", "production")
	resp = NewErrorResponse(errors.New("boom"))
	require.Nil(resp.Error.Details)
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	cases := []struct {
		err      error
		expected int
	}{
		{ErrUserNotFound, http.StatusNotFound},
		{ErrMovieNotFound, http.StatusNotFound},
		{ErrHistoryEntryNotFound, http.StatusNotFound},
		{ErrProviderNotConfigured, http.StatusNotFound},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrInvalidToken, http.StatusUnauthorized},
		{ErrTokenExpired, http.StatusUnauthorized},
		{ErrSessionExpired, http.StatusUnauthorized},
		{ErrAccessDenied, http.StatusForbidden},
		{ErrUnauthorizedAction, http.StatusForbidden},
		{ErrAccountDisabled, http.StatusForbidden},
		{ErrUserAlreadyExists, http.StatusConflict},
		{ErrEmailAlreadyExists, http.StatusConflict},
		{ErrUsernameAlreadyExists, http.StatusConflict},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrInvalidRequestKind, http.StatusBadRequest},
		{ErrUnsupportedFileType, http.StatusBadRequest},
		{ErrEmptyUpload, http.StatusBadRequest},
		{ErrPasswordTooWeak, http.StatusBadRequest},
		{ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{ErrTooManyRequests, http.StatusTooManyRequests},
		{ErrServiceUnavailable, http.StatusServiceUnavailable},
		{ErrFeatureDisabled, http.StatusServiceUnavailable},
		{errors.New("anything else"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		require.Equal(tc.expected, MapErrorToHTTPStatus(tc.err), "MapErrorToHTTPStatus(%v)", tc.err)
	}

	// Wrapped sentinels resolve through errors.Is.
	require.Equal(http.StatusNotFound, MapErrorToHTTPStatus(fmt.Errorf("repo: %w", ErrUserNotFound)))

	// A DomainError's own code wins over the sentinel mapping.
	domain := NewMovieError(ErrMovieNotFound, "gone", http.StatusGone)
	require.Equal(http.StatusGone, MapErrorToHTTPStatus(domain))
}

func TestNewValidationErrorResponse(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	resp := NewValidationErrorResponse(map[string]string{"email": "email is required"})
	require.False(resp.Success)
	require.Equal(http.StatusUnprocessableEntity, resp.Error.Code)
	require.Equal("Validation failed", resp.Error.Message)
	require.Equal("email is required", resp.Error.Fields["email"])
}

func TestFormatValidationErrors(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	fields := FormatValidationErrors(errors.New("bad payload"), nil)
	require.Equal(map[string]string{"_error": "bad payload"}, fields)

	existing := map[string]string{"email": "taken"}
	fields = FormatValidationErrors(errors.New("ignored"), existing)
	require.Equal(map[string]string{"email": "taken"}, fields)
}
