// Package models defines the domain types and errors shared across the backend.
package models

import (
	"errors"
	"maps"
	"net/http"
	"os"
)

// Sentinel errors shared across the service layers.
var (
	// User errors
	ErrUserNotFound          = errors.New("user not found")
	ErrUserAlreadyExists     = errors.New("user already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailAlreadyExists    = errors.New("email already taken")
	ErrUsernameAlreadyExists = errors.New("username already taken")
	ErrAccountDisabled       = errors.New("account is disabled")
	ErrPasswordTooWeak       = errors.New("password does not meet security requirements")
	ErrInvalidUsername       = errors.New("invalid username format")
	ErrUnauthorizedAction    = errors.New("unauthorized action")
	ErrInvalidID             = errors.New("invalid ID format")

	// Identification errors
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrInvalidRequestKind    = errors.New("invalid identification request kind")
	ErrEmptyProviderReply    = errors.New("provider returned an empty reply")

	// Movie errors
	ErrMovieNotFound = errors.New("movie not found")

	// History errors
	ErrHistoryEntryNotFound = errors.New("history entry not found")

	// Upload errors
	ErrFileTooLarge        = errors.New("file exceeds maximum upload size")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyUpload         = errors.New("uploaded file is empty")

	// Validation errors
	ErrInvalidInput         = errors.New("invalid input")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidFormat        = errors.New("invalid format")

	// Authentication/authorization errors
	ErrAccessDenied    = errors.New("access denied")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrSessionExpired  = errors.New("session expired")
	ErrTooManyRequests = errors.New("too many requests")

	// System errors
	ErrInternalServer     = errors.New("internal server error")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
	ErrDatabaseError      = errors.New("database error")
	ErrNetworkError       = errors.New("network error")
	ErrFeatureDisabled    = errors.New("feature is disabled")
)

// sentinelHTTPStatus groups the sentinels by the status code they map to.
// Handlers that want different treatment, such as the 403 for disabled
// features on user facing routes, override the mapping locally.
var sentinelHTTPStatus = []struct {
	code      int
	sentinels []error
}{
	{http.StatusNotFound, []error{
		ErrUserNotFound, ErrMovieNotFound, ErrHistoryEntryNotFound, ErrProviderNotConfigured,
	}},
	{http.StatusUnauthorized, []error{
		ErrInvalidCredentials, ErrInvalidToken, ErrTokenExpired, ErrSessionExpired,
	}},
	{http.StatusForbidden, []error{
		ErrAccessDenied, ErrUnauthorizedAction, ErrAccountDisabled,
	}},
	{http.StatusConflict, []error{
		ErrUserAlreadyExists, ErrEmailAlreadyExists, ErrUsernameAlreadyExists,
	}},
	{http.StatusBadRequest, []error{
		ErrInvalidInput, ErrMissingRequiredField, ErrInvalidFormat, ErrPasswordTooWeak,
		ErrInvalidUsername, ErrInvalidRequestKind, ErrUnsupportedFileType, ErrEmptyUpload,
		ErrInvalidID,
	}},
	{http.StatusRequestEntityTooLarge, []error{ErrFileTooLarge}},
	{http.StatusTooManyRequests, []error{ErrTooManyRequests}},
	{http.StatusServiceUnavailable, []error{ErrServiceUnavailable, ErrFeatureDisabled}},
}

// DomainError ties an error to the part of the application it came from
// and the HTTP status it should surface as.
type DomainError struct {
	// Original is the wrapped cause
	Original error

	// Message is the client visible text
	Message string

	// Code is the HTTP status this error surfaces as
	Code int

	// Domain names the application area, such as "user" or "identify"
	Domain string

	// Details carries additional context for the response body
	Details map[string]any
}

// Error renders the message, falling back to the cause when no message
// was set.
func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Original.Error()
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	return e.Original
}

// NewDomainError wraps err for the given domain. An empty message is
// filled from the cause.
func NewDomainError(err error, message string, code int, domain string) *DomainError {
	if message == "" && err != nil {
		message = err.Error()
	}

	return &DomainError{
		Original: err,
		Message:  message,
		Code:     code,
		Domain:   domain,
		Details:  make(map[string]any),
	}
}

// WithDetails merges details into the error and returns it for chaining.
func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	maps.Copy(e.Details, details)
	return e
}

// AddDetail records a single detail and returns the error for chaining.
func (e *DomainError) AddDetail(key string, value any) *DomainError {
	e.Details[key] = value
	return e
}

// NewUserError creates a DomainError in the "user" domain.
func NewUserError(err error, message string, code int) *DomainError {
	return NewDomainError(err, message, code, "user")
}

// NewAuthError creates a DomainError in the "auth" domain.
func NewAuthError(err error, message string, code int) *DomainError {
	return NewDomainError(err, message, code, "auth")
}

// NewIdentifyError creates a DomainError in the "identify" domain.
func NewIdentifyError(err error, message string, code int) *DomainError {
	return NewDomainError(err, message, code, "identify")
}

// NewMovieError creates a DomainError in the "movie" domain.
func NewMovieError(err error, message string, code int) *DomainError {
	return NewDomainError(err, message, code, "movie")
}

// NewHistoryError creates a DomainError in the "history" domain.
func NewHistoryError(err error, message string, code int) *DomainError {
	return NewDomainError(err, message, code, "history")
}

// NewSearchError creates a DomainError in the "search" domain.
func NewSearchError(err error, message string, code int) *DomainError {
	return NewDomainError(err, message, code, "search")
}

// NewUploadError creates a DomainError in the "upload" domain.
func NewUploadError(err error, message string, code int) *DomainError {
	return NewDomainError(err, message, code, "upload")
}

// NewValidationError creates a 422 DomainError in the "validation" domain.
func NewValidationError(err error, message string) *DomainError {
	return NewDomainError(err, message, http.StatusUnprocessableEntity, "validation")
}

// NewInternalError creates a 500 DomainError in the "system" domain.
func NewInternalError(err error, message string) *DomainError {
	if message == "" {
		message = "An internal server error occurred"
	}
	return NewDomainError(err, message, http.StatusInternalServerError, "system")
}

// ErrorBody is the error object nested inside an ErrorResponse.
type ErrorBody struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Domain  string         `json:"domain,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the JSON envelope error responses are serialized into.
// Success is always false.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// NewErrorResponse builds the response envelope for err. Unknown errors
// are reported generically; outside production the original message is
// attached under details.
func NewErrorResponse(err error) ErrorResponse {
	response := ErrorResponse{Success: false}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		response.Error = ErrorBody{
			Code:    domainErr.Code,
			Message: domainErr.Message,
			Domain:  domainErr.Domain,
			Details: domainErr.Details,
		}
		return response
	}

	response.Error.Code = http.StatusInternalServerError
	response.Error.Message = "An unexpected error occurred"
	if os.Getenv("REELID_ENV") != "production" {
		response.Error.Details = map[string]any{
			"originalError": err.Error(),
		}
	}

	return response
}

// ValidationBody is the error object nested inside a ValidationErrorResponse.
// Fields maps each offending field name to what is wrong with it.
type ValidationBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

// ValidationErrorResponse is the JSON envelope for per-field validation
// failures. Success is always false.
type ValidationErrorResponse struct {
	Success bool           `json:"success"`
	Error   ValidationBody `json:"error"`
}

// NewValidationErrorResponse wraps fieldErrors in the standard envelope.
func NewValidationErrorResponse(fieldErrors map[string]string) ValidationErrorResponse {
	return ValidationErrorResponse{
		Success: false,
		Error: ValidationBody{
			Code:    http.StatusUnprocessableEntity,
			Message: "Validation failed",
			Fields:  fieldErrors,
		},
	}
}

// MapErrorToHTTPStatus resolves err to an HTTP status. DomainErrors carry
// their own code; sentinels use the grouped table; the rest is a 500.
func MapErrorToHTTPStatus(err error) int {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	for _, group := range sentinelHTTPStatus {
		for _, sentinel := range group.sentinels {
			if errors.Is(err, sentinel) {
				return group.code
			}
		}
	}

	return http.StatusInternalServerError
}

// FormatValidationErrors guarantees a non-nil field map, folding err into
// a "_error" entry when no field level messages exist.
func FormatValidationErrors(err error, fieldErrors map[string]string) map[string]string {
	if fieldErrors == nil {
		fieldErrors = make(map[string]string)
	}

	if err != nil && len(fieldErrors) == 0 {
		fieldErrors["_error"] = err.Error()
	}

	return fieldErrors
}
