// Package utils provides shared helpers for logging, validation and HTTP responses.
package utils

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance, configured once in init.
var validate *validator.Validate

// usernamePattern admits letters, numbers, underscores and hyphens.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// tagMessages maps validation tags to user facing messages. A %s
// placeholder is filled with the tag's parameter.
var tagMessages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email address",
	"min":      "Value must be greater than or equal to %s",
	"max":      "Value must be less than or equal to %s",
	"len":      "Length must be exactly %s",
	"oneof":    "Value must be one of: %s",
	"alphanum": "Must contain only alphanumeric characters",
	"username": "Username must contain only letters, numbers, underscores or hyphens",
	"password": "Password must be at least 8 characters and contain uppercase, lowercase, and numbers",
	"url":      "Must be a valid URL",
}

func init() {
	validate = validator.New()

	// Report fields by their json tag so error maps match request bodies.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("username", validateUsername)
	_ = validate.RegisterValidation("password", validatePassword)
}

// Validate checks a struct against its validate tags.
func Validate(s any) error {
	return validate.Struct(s)
}

// ValidateVar checks a single value against a tag expression.
func ValidateVar(field any, tag string) error {
	return validate.Var(field, tag)
}

// FormatValidationErrors turns validator errors into a field-to-message
// map suitable for a response body.
func FormatValidationErrors(err error) map[string]string {
	if err == nil {
		return nil
	}

	out := make(map[string]string)
	for _, fieldErr := range err.(validator.ValidationErrors) {
		message, ok := tagMessages[fieldErr.Tag()]
		if !ok {
			message = "Invalid value"
		}
		if param := fieldErr.Param(); param != "" && strings.Contains(message, "%s") {
			message = strings.Replace(message, "%s", param, 1)
		}
		out[fieldErr.Field()] = message
	}

	return out
}

// validateUsername implements the "username" tag.
func validateUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}

// validatePassword implements the "password" tag: at least 8 characters
// mixing uppercase, lowercase and digits.
func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case 'A' <= r && r <= 'Z':
			upper = true
		case 'a' <= r && r <= 'z':
			lower = true
		case '0' <= r && r <= '9':
			digit = true
		}
	}

	return upper && lower && digit
}

// GetValidator exposes the shared instance for callers that need to
// register request scoped rules.
func GetValidator() *validator.Validate {
	return validate
}
