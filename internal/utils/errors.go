// Package utils provides shared helpers for logging, validation and HTTP responses.
package utils

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
)

// Sentinel errors the service layers return and the HTTP layer maps to
// status codes.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrForbidden      = errors.New("forbidden access")
	ErrBadRequest     = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrConflict       = errors.New("resource conflict")
	ErrValidation     = errors.New("validation error")
	ErrRateLimited    = errors.New("rate limit exceeded")
)

// sentinelStatus maps each sentinel to the status code it stands for.
var sentinelStatus = []struct {
	err  error
	code int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrBadRequest, http.StatusBadRequest},
	{ErrConflict, http.StatusConflict},
	{ErrValidation, http.StatusUnprocessableEntity},
	{ErrRateLimited, http.StatusTooManyRequests},
}

// AppError is an error annotated with the HTTP status it should produce
// and optional structured detail for the response body.
type AppError struct {
	// Original is the wrapped cause, if any
	Original error
	// Message is the human readable text shown to the client
	Message string
	// Code is the HTTP status to respond with
	Code int
	// Details carries extra context serialized into the response
	Details map[string]any
}

// Error renders the message, appending the cause when one is wrapped.
func (e *AppError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Original)
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Original
}

// WithDetails merges details into the error and returns it for chaining.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	maps.Copy(e.Details, details)
	return e
}

// AddDetail records a single detail and returns the error for chaining.
func (e *AppError) AddDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewAppError wraps err with a message and an HTTP status code.
func NewAppError(err error, message string, code int) *AppError {
	return &AppError{
		Original: err,
		Message:  message,
		Code:     code,
		Details:  make(map[string]any),
	}
}

// statusError builds an AppError for code, substituting fallback when the
// caller passed no message.
func statusError(code int, fallback, message string, err error) *AppError {
	if message == "" {
		message = fallback
	}
	return NewAppError(err, message, code)
}

// NotFoundError creates a 404 error.
func NotFoundError(message string, err error) *AppError {
	return statusError(http.StatusNotFound, "Resource not found", message, err)
}

// UnauthorizedError creates a 401 error.
func UnauthorizedError(message string, err error) *AppError {
	return statusError(http.StatusUnauthorized, "Unauthorized access", message, err)
}

// BadRequestError creates a 400 error.
func BadRequestError(message string, err error) *AppError {
	return statusError(http.StatusBadRequest, "Invalid request", message, err)
}

// InternalServerError creates a 500 error.
func InternalServerError(message string, err error) *AppError {
	return statusError(http.StatusInternalServerError, "Internal server error", message, err)
}

// ConflictError creates a 409 error.
func ConflictError(message string, err error) *AppError {
	return statusError(http.StatusConflict, "Resource conflict", message, err)
}

// RateLimitError creates a 429 error.
func RateLimitError(message string, err error) *AppError {
	return statusError(http.StatusTooManyRequests, "Rate limit exceeded", message, err)
}

// IsNotFound reports whether err represents a missing resource, either as
// a 404 AppError or the ErrNotFound sentinel.
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == http.StatusNotFound
	}
	return errors.Is(err, ErrNotFound)
}

// StatusCode resolves err to an HTTP status. An AppError carries its own
// code; sentinels use the table; anything else is a 500.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	for _, entry := range sentinelStatus {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return http.StatusInternalServerError
}

// ErrorResponse flattens err into the map rendered as a JSON error body.
// Plain errors get no details key.
func ErrorResponse(err error) map[string]any {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		}
	}

	return map[string]any{
		"error": err.Error(),
		"code":  StatusCode(err),
	}
}
