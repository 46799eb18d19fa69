// Package config loads and validates the application configuration.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// clampTimeout pushes *value into [minTimeout, maxTimeout], recording a
// warning when it had to. A zero maxTimeout means no upper bound.
func clampTimeout(warnings []string, label string, value *time.Duration, minTimeout, maxTimeout time.Duration) []string {
	switch {
	case *value < minTimeout:
		warnings = append(warnings, fmt.Sprintf("Server %s timeout is too short (%v), setting to %v", label, *value, minTimeout))
		*value = minTimeout
	case maxTimeout > 0 && *value > maxTimeout:
		warnings = append(warnings, fmt.Sprintf("Server %s timeout is too long (%v), setting to %v", label, *value, maxTimeout))
		*value = maxTimeout
	}
	return warnings
}

// ValidateAndFixConfig sanity checks the loaded configuration, repairing
// what it safely can and returning a warning per finding. The server
// still starts on a warning; only validateConfig failures are fatal.
func ValidateAndFixConfig(config *Config) []string {
	var warnings []string

	// A missing JWT secret gets a generated one so development setups
	// work out of the box. Sessions then do not survive restarts.
	if config.Auth.JWTSecret == "" {
		warnings = append(warnings, "JWT secret is not set, generating a random one")
		if secret, err := generateRandomSecret(32); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to generate JWT secret: %v", err))
		} else {
			config.Auth.JWTSecret = secret
		}
	} else if len(config.Auth.JWTSecret) < 16 {
		warnings = append(warnings, "JWT secret is too short, should be at least 16 characters")
	}

	warnings = clampTimeout(warnings, "read", &config.Server.ReadTimeout, time.Second, 5*time.Minute)
	warnings = clampTimeout(warnings, "write", &config.Server.WriteTimeout, time.Second, 5*time.Minute)
	warnings = clampTimeout(warnings, "idle", &config.Server.IdleTimeout, time.Second, 0)

	for name, baseURL := range map[string]string{
		"openai": config.Providers.OpenAI.BaseURL,
		"gemini": config.Providers.Gemini.BaseURL,
	} {
		parsed, err := url.Parse(baseURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			warnings = append(warnings, fmt.Sprintf("Invalid %s base URL: %s", name, baseURL))
		}
	}

	// Credentials are checked for shape only, never called out to.
	if key := config.Providers.OpenAI.APIKey; key != "" && !IsPlausibleOpenAIKey(key) {
		warnings = append(warnings, "OpenAI API key does not look like an sk-... key")
	}
	if key := config.Providers.Gemini.APIKey; key != "" && !IsPlausibleGeminiKey(key) {
		warnings = append(warnings, "Gemini API key does not look like an AIza... key")
	}

	switch config.Providers.Active {
	case "openai":
		if config.Providers.OpenAI.APIKey == "" {
			warnings = append(warnings, "Active provider openai has no API key, identification will use the fallback path")
		}
	case "gemini":
		if config.Providers.Gemini.APIKey == "" {
			warnings = append(warnings, "Active provider gemini has no API key, identification will use the fallback path")
		}
	}

	if config.Features.EnableWebSearch {
		if config.Search.GoogleAPIKey == "" {
			warnings = append(warnings, "Web search is enabled but the Google API key is not set, search requests will be rejected")
		}
		if config.Search.GoogleEngineID == "" {
			warnings = append(warnings, "Web search is enabled but the Google engine ID is not set, search requests will be rejected")
		}
	}

	for _, dir := range []string{config.Storage.DataDir, config.Storage.UploadDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
				warnings = append(warnings, fmt.Sprintf("Storage directory %s does not exist and could not be created: %v", dir, mkErr))
			}
		}
	}

	switch strings.ToLower(config.Logging.Level) {
	case "debug", "info", "warn", "error", "dpanic", "panic", "fatal":
	default:
		warnings = append(warnings, fmt.Sprintf("Invalid logging level: %s, setting to 'info'", config.Logging.Level))
		config.Logging.Level = "info"
	}

	if format := strings.ToLower(config.Logging.Format); format != "json" && format != "console" {
		warnings = append(warnings, fmt.Sprintf("Invalid logging format: %s, setting to 'json'", config.Logging.Format))
		config.Logging.Format = "json"
	}

	for _, path := range config.Logging.OutputPaths {
		if path == "stdout" || path == "stderr" {
			continue
		}
		dir := filepath.Dir(path)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			warnings = append(warnings, fmt.Sprintf("Log output directory does not exist: %s", dir))
			continue
		}
		probe := filepath.Join(dir, ".test_write")
		if err := os.WriteFile(probe, []byte{}, 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("Log output directory is not writable: %s", dir))
		} else {
			os.Remove(probe)
		}
	}

	return warnings
}

// IsPlausibleOpenAIKey reports whether a credential has the shape of an
// OpenAI API key (sk- prefix, at least 20 characters).
func IsPlausibleOpenAIKey(key string) bool {
	return strings.HasPrefix(key, "sk-") && len(key) >= 20
}

// IsPlausibleGeminiKey reports whether a credential has the shape of a
// Google AI API key (AIza prefix, at least 30 characters).
func IsPlausibleGeminiKey(key string) bool {
	return strings.HasPrefix(key, "AIza") && len(key) >= 30
}

// generateRandomSecret returns length characters of URL-safe randomness.
func generateRandomSecret(length int) (string, error) {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(raw)[:length], nil
}

// GetLogLevel parses a configured level name, defaulting to info for
// anything zap does not recognize.
func GetLogLevel(level string) zapcore.Level {
	parsed, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}

// IsFeatureEnabled looks up a boolean feature flag by its field name.
// Unknown flags count as disabled.
func IsFeatureEnabled(config *Config, feature string) bool {
	field := reflect.ValueOf(config.Features).FieldByName(feature)
	if !field.IsValid() || field.Kind() != reflect.Bool {
		return false
	}
	return field.Bool()
}

// ConfigureLogger builds a zap logger from the logging section.
func ConfigureLogger(config *Config) (*zap.Logger, error) {
	logConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(GetLogLevel(config.Logging.Level)),
		Development: config.Environment == "development",
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         config.Logging.Format,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      config.Logging.OutputPaths,
		ErrorOutputPaths: config.Logging.ErrorOutputPaths,
	}

	if config.Logging.Format == "console" {
		logConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	return logConfig.Build()
}

// CreateDefaultConfig builds the configuration the server runs with when
// no file and no environment overrides are present.
func CreateDefaultConfig() *Config {
	config := &Config{Environment: "development"}

	srv := &config.Server
	srv.Port = 8080
	srv.Host = "0.0.0.0"
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.UseHTTPS = false

	store := &config.Storage
	store.DataDir = "./data"
	store.UploadDir = "./data/uploads"
	store.MaxImageSize = 10 << 20
	store.MaxVideoSize = 50 << 20
	store.AllowedImageTypes = []string{".jpg", ".jpeg", ".png", ".webp"}
	store.AllowedVideoTypes = []string{".mp4", ".mov", ".webm"}

	authn := &config.Auth
	if secret, err := generateRandomSecret(32); err == nil {
		authn.JWTSecret = secret
	}
	authn.AccessTokenExpiry = 15 * time.Minute
	authn.RefreshTokenExpiry = 7 * 24 * time.Hour
	authn.PasswordMinLength = 8
	authn.PasswordMaxLength = 72
	authn.BcryptCost = 12
	authn.AllowedOrigins = []string{"*"}

	providers := &config.Providers
	providers.Active = "openai"
	providers.RequestTimeout = 45 * time.Second
	providers.OpenAI.BaseURL = "https://api.openai.com/v1"
	providers.OpenAI.Model = "gpt-4o-mini"
	providers.OpenAI.VisionModel = "gpt-4o"
	providers.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	providers.Gemini.Model = "gemini-1.5-flash"

	config.Search.MaxResults = 10

	logging := &config.Logging
	logging.Level = "info"
	logging.Format = "json"
	logging.OutputPaths = []string{"stdout"}
	logging.ErrorOutputPaths = []string{"stderr"}

	features := &config.Features
	features.EnableRegistration = true
	features.EnableWebSearch = true
	features.EnableImageIdentification = true
	features.EnableVideoIdentification = true
	features.EnableAvailability = true

	return config
}
