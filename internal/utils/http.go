// Package utils provides shared helpers for logging, validation and HTTP responses.
package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// APIResponse is the envelope every JSON endpoint responds with.
type APIResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Error   any  `json:"error,omitempty"`
}

// ValidationErrorItem describes one field that failed validation.
type ValidationErrorItem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RespondWithJSON writes data as a JSON body with the given status code.
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		GetLogger().Error("Failed to encode JSON response", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
	}
}

// RespondWithError writes a failure envelope carrying a single message.
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithJSON(w, statusCode, APIResponse{
		Success: false,
		Error: map[string]string{
			"message": message,
		},
	})
}

// lowerFirst camelCases an exported Go field name for client consumption.
func lowerFirst(field string) string {
	if len(field) > 0 && field[0] >= 'A' && field[0] <= 'Z' {
		return string(field[0]-'A'+'a') + field[1:]
	}
	return field
}

// validationMessage renders a human readable message for one failed rule.
func validationMessage(field string, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " must be at least " + e.Param() + " characters long"
	case "max":
		return field + " must be at most " + e.Param() + " characters long"
	case "oneof":
		return field + " must be one of: " + e.Param()
	case "url":
		return field + " must be a valid URL"
	case "username":
		return field + " must be a valid username"
	case "password":
		return field + " must meet the password requirements"
	default:
		return field + " failed validation: " + e.Tag()
	}
}

// RespondWithValidationError writes a 400 whose error body lists every
// failed field. Non-validator errors collapse into a single "general" item.
func RespondWithValidationError(w http.ResponseWriter, err error) {
	var items []ValidationErrorItem

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, e := range fieldErrs {
			// Field() is the json tag name when one exists; camelCase
			// the Go field name when it does not.
			field := lowerFirst(e.Field())
			items = append(items, ValidationErrorItem{
				Field:   field,
				Message: validationMessage(field, e),
			})
		}
	} else {
		items = append(items, ValidationErrorItem{
			Field:   "general",
			Message: err.Error(),
		})
	}

	RespondWithJSON(w, http.StatusBadRequest, APIResponse{
		Success: false,
		Error: map[string]any{
			"message": "Validation failed",
			"errors":  items,
		},
	})
}

// ExtractBearerToken pulls the token out of an "Authorization: Bearer"
// header, with a caller-visible error message when it is missing or not
// in bearer form.
func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("no token provided")
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid token format")
	}

	return parts[1], nil
}
