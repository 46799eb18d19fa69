// Package config loads and validates the application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration tree. Values come from
// the YAML config files overlaid with REELID_* environment variables.
type Config struct {
	// Environment is the running environment (development, staging, production)
	Environment string `mapstructure:"environment"`

	// Server configuration
	Server struct {
		// Port the HTTP server listens on
		Port int `mapstructure:"port"`
		// Host the HTTP server binds to
		Host string `mapstructure:"host"`
		// ReadTimeout bounds reading an entire request
		ReadTimeout time.Duration `mapstructure:"read_timeout"`
		// WriteTimeout bounds writing a response
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		// IdleTimeout bounds waiting for the next keep-alive request
		IdleTimeout time.Duration `mapstructure:"idle_timeout"`
		// TrustedProxies lists proxy addresses whose headers are honored
		TrustedProxies []string `mapstructure:"trusted_proxies"`
		// UseHTTPS serves TLS directly instead of behind a terminator
		UseHTTPS bool `mapstructure:"use_https"`
		// CertFile is the TLS certificate path
		CertFile string `mapstructure:"cert_file"`
		// KeyFile is the TLS private key path
		KeyFile string `mapstructure:"key_file"`
	} `mapstructure:"server"`

	// Storage configuration
	Storage struct {
		// DataDir holds the JSON record files
		DataDir string `mapstructure:"data_dir"`
		// UploadDir holds uploaded media awaiting identification
		UploadDir string `mapstructure:"upload_dir"`
		// MaxImageSize caps image uploads, in bytes
		MaxImageSize int64 `mapstructure:"max_image_size"`
		// MaxVideoSize caps video uploads, in bytes
		MaxVideoSize int64 `mapstructure:"max_video_size"`
		// AllowedImageTypes lists accepted image extensions
		AllowedImageTypes []string `mapstructure:"allowed_image_types"`
		// AllowedVideoTypes lists accepted video extensions
		AllowedVideoTypes []string `mapstructure:"allowed_video_types"`
	} `mapstructure:"storage"`

	// Authentication configuration
	Auth struct {
		// JWTSecret signs issued tokens
		JWTSecret string `mapstructure:"jwt_secret"`
		// AccessTokenExpiry is how long access tokens live
		AccessTokenExpiry time.Duration `mapstructure:"access_token_expiry"`
		// RefreshTokenExpiry is how long refresh tokens live
		RefreshTokenExpiry time.Duration `mapstructure:"refresh_token_expiry"`
		// PasswordMinLength is the shortest accepted password
		PasswordMinLength int `mapstructure:"password_min_length"`
		// PasswordMaxLength is the longest accepted password
		PasswordMaxLength int `mapstructure:"password_max_length"`
		// BcryptCost is the bcrypt work factor
		BcryptCost int `mapstructure:"bcrypt_cost"`
		// AllowedOrigins lists CORS origins admitted by the API
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"auth"`

	// Providers configuration for AI identification backends
	Providers struct {
		// Active is the provider key selected at startup (openai or gemini)
		Active string `mapstructure:"active"`
		// RequestTimeout bounds a single provider API call
		RequestTimeout time.Duration `mapstructure:"request_timeout"`

		// OpenAI-compatible provider configuration
		OpenAI struct {
			// APIKey authenticates against the OpenAI API
			APIKey string `mapstructure:"api_key"`
			// BaseURL may point at any OpenAI-compatible endpoint
			BaseURL string `mapstructure:"base_url"`
			// Model is the chat completion model identifier
			Model string `mapstructure:"model"`
			// VisionModel analyzes images and video frames
			VisionModel string `mapstructure:"vision_model"`
		} `mapstructure:"openai"`

		// Gemini provider configuration
		Gemini struct {
			// APIKey authenticates against the Generative Language API
			APIKey string `mapstructure:"api_key"`
			// BaseURL is the Generative Language API base URL
			BaseURL string `mapstructure:"base_url"`
			// Model is the generateContent model identifier
			Model string `mapstructure:"model"`
		} `mapstructure:"gemini"`
	} `mapstructure:"providers"`

	// Search configuration for the companion web search
	Search struct {
		// GoogleAPIKey is the Google Custom Search API key
		GoogleAPIKey string `mapstructure:"google_api_key"`
		// GoogleEngineID is the Custom Search Engine identifier
		GoogleEngineID string `mapstructure:"google_engine_id"`
		// MaxResults caps results returned per search
		MaxResults int `mapstructure:"max_results"`
	} `mapstructure:"search"`

	// Logging configuration
	Logging struct {
		// Level is the minimum emitted level
		Level string `mapstructure:"level"`
		// Format is json or console
		Format string `mapstructure:"format"`
		// OutputPaths lists log destinations
		OutputPaths []string `mapstructure:"output_paths"`
		// ErrorOutputPaths lists destinations for internal logger errors
		ErrorOutputPaths []string `mapstructure:"error_output_paths"`
	} `mapstructure:"logging"`

	// Feature flags
	Features struct {
		// EnableRegistration accepts new account signups
		EnableRegistration bool `mapstructure:"enable_registration"`
		// EnableWebSearch serves the companion web search
		EnableWebSearch bool `mapstructure:"enable_web_search"`
		// EnableImageIdentification accepts image uploads
		EnableImageIdentification bool `mapstructure:"enable_image_identification"`
		// EnableVideoIdentification accepts video uploads
		EnableVideoIdentification bool `mapstructure:"enable_video_identification"`
		// EnableAvailability attaches platform availability to results
		EnableAvailability bool `mapstructure:"enable_availability"`
	} `mapstructure:"features"`
}

// LoadConfig assembles the configuration from, in order of precedence:
// REELID_* environment variables, an app.<env>.yaml overlay, the base
// app.yaml, and built-in defaults. The base file is taken from
// CONFIG_FILE when set, otherwise searched for in ./configs, ../configs
// and /etc/reelid.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("app")
	v.SetConfigType("yaml")

	if configFile := os.Getenv("CONFIG_FILE"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("/etc/reelid")
	}

	// Running purely on defaults and environment variables is fine, so a
	// missing base file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	env := os.Getenv("REELID_ENV")
	if env == "" {
		env = "development"
	}

	// Overlay the environment specific file when one exists.
	v.SetConfigName(fmt.Sprintf("app.%s", env))
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to merge environment config file: %w", err)
		}
	}

	v.SetEnvPrefix("REELID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The environment comes from REELID_ENV alone, files cannot move a
	// deployment between environments.
	config.Environment = env

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults registers the built-in defaults, the lowest precedence
// layer of the configuration.
func setDefaults(v *viper.Viper) {
	for key, value := range map[string]any{
		"server.port":          8080,
		"server.host":          "0.0.0.0",
		"server.read_timeout":  "15s",
		"server.write_timeout": "60s",
		"server.idle_timeout":  "60s",
		"server.use_https":     false,

		"storage.data_dir":            "./data",
		"storage.upload_dir":          "./data/uploads",
		"storage.max_image_size":      10 << 20,
		"storage.max_video_size":      50 << 20,
		"storage.allowed_image_types": []string{".jpg", ".jpeg", ".png", ".webp"},
		"storage.allowed_video_types": []string{".mp4", ".mov", ".webm"},

		"auth.access_token_expiry":  "15m",
		"auth.refresh_token_expiry": "168h",
		"auth.password_min_length":  8,
		"auth.password_max_length":  72,
		"auth.bcrypt_cost":          12,
		"auth.allowed_origins":      []string{"*"},

		"providers.active":              "openai",
		"providers.request_timeout":     "45s",
		"providers.openai.base_url":     "https://api.openai.com/v1",
		"providers.openai.model":        "gpt-4o-mini",
		"providers.openai.vision_model": "gpt-4o",
		"providers.gemini.base_url":     "https://generativelanguage.googleapis.com/v1beta",
		"providers.gemini.model":        "gemini-1.5-flash",

		"search.max_results": 10,

		"logging.level":              "info",
		"logging.format":             "json",
		"logging.output_paths":       []string{"stdout"},
		"logging.error_output_paths": []string{"stderr"},

		"features.enable_registration":         true,
		"features.enable_web_search":           true,
		"features.enable_image_identification": true,
		"features.enable_video_identification": true,
		"features.enable_availability":         true,
	} {
		v.SetDefault(key, value)
	}
}

// validateConfig rejects configurations the server cannot start with.
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return errors.New("server port must be between 1 and 65535")
	}

	if config.Auth.JWTSecret == "" {
		return errors.New("JWT secret must be set")
	}

	if config.Server.UseHTTPS {
		if config.Server.CertFile == "" || config.Server.KeyFile == "" {
			return errors.New("TLS certificate and key files must be provided when HTTPS is enabled")
		}
		if _, err := os.Stat(config.Server.CertFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file not found: %s", config.Server.CertFile)
		}
		if _, err := os.Stat(config.Server.KeyFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file not found: %s", config.Server.KeyFile)
		}
	}

	if config.Storage.DataDir == "" {
		return errors.New("storage data directory must be set")
	}
	if config.Storage.UploadDir == "" {
		return errors.New("storage upload directory must be set")
	}
	if config.Storage.MaxImageSize <= 0 || config.Storage.MaxVideoSize <= 0 {
		return errors.New("storage upload size limits must be positive")
	}

	switch config.Providers.Active {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown active provider: %s", config.Providers.Active)
	}
	if config.Providers.RequestTimeout <= 0 {
		return errors.New("provider request timeout must be positive")
	}

	if config.Features.EnableWebSearch && config.Search.MaxResults <= 0 {
		return errors.New("search max results must be positive when web search is enabled")
	}

	return nil
}

// GetConfigString renders the parts of the configuration worth echoing
// at startup. Secrets stay out of it.
func GetConfigString(config *Config) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Environment: %s\n", config.Environment)
	fmt.Fprintf(&sb, "Server: %s:%d\n", config.Server.Host, config.Server.Port)
	fmt.Fprintf(&sb, "Data Directory: %s\n", config.Storage.DataDir)
	fmt.Fprintf(&sb, "Upload Directory: %s\n", config.Storage.UploadDir)
	fmt.Fprintf(&sb, "Active Provider: %s\n", config.Providers.Active)
	fmt.Fprintf(&sb, "Provider Timeout: %s\n", config.Providers.RequestTimeout)
	sb.WriteString("Features:\n")
	fmt.Fprintf(&sb, "  Registration Enabled: %t\n", config.Features.EnableRegistration)
	fmt.Fprintf(&sb, "  Web Search Enabled: %t\n", config.Features.EnableWebSearch)
	fmt.Fprintf(&sb, "  Image Identification Enabled: %t\n", config.Features.EnableImageIdentification)
	fmt.Fprintf(&sb, "  Video Identification Enabled: %t\n", config.Features.EnableVideoIdentification)
	fmt.Fprintf(&sb, "  Availability Enabled: %t\n", config.Features.EnableAvailability)

	return sb.String()
}

// EnsureConfigDirs creates the local configs directory when missing.
func EnsureConfigDirs() error {
	if err := os.MkdirAll("./configs", 0755); err != nil {
		return fmt.Errorf("failed to create directory ./configs: %w", err)
	}
	return nil
}

// writeConfigIfAbsent writes content to configs/<name> unless the file
// already exists. Existing files are never touched.
func writeConfigIfAbsent(name, content string) error {
	path := filepath.Join("./configs", name)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// WriteDefaultConfig lays down starter configuration files: the base
// app.yaml, per-environment overlays and a secrets example.
func WriteDefaultConfig() error {
	if err := EnsureConfigDirs(); err != nil {
		return err
	}

	baseConfig := `# ReelID Application Configuration

# Server configuration
server:
  port: 8080
  host: "0.0.0.0"
  read_timeout: "15s"
  write_timeout: "60s"
  idle_timeout: "60s"
  use_https: false
  cert_file: ""
  key_file: ""
  trusted_proxies: []

# Storage configuration
storage:
  data_dir: "./data"
  upload_dir: "./data/uploads"
  max_image_size: 10485760 # 10 MiB
  max_video_size: 52428800 # 50 MiB
  allowed_image_types: [".jpg", ".jpeg", ".png", ".webp"]
  allowed_video_types: [".mp4", ".mov", ".webm"]

# Authentication configuration
auth:
  jwt_secret: "" # Must be set in environment or secrets file
  access_token_expiry: "15m"
  refresh_token_expiry: "168h" # 7 days
  password_min_length: 8
  password_max_length: 72
  bcrypt_cost: 12
  allowed_origins: ["*"]

# AI provider configuration
providers:
  active: "openai"
  request_timeout: "45s"
  openai:
    api_key: "" # Must be set in environment or secrets file
    base_url: "https://api.openai.com/v1"
    model: "gpt-4o-mini"
    vision_model: "gpt-4o"
  gemini:
    api_key: "" # Must be set in environment or secrets file
    base_url: "https://generativelanguage.googleapis.com/v1beta"
    model: "gemini-1.5-flash"

# Web search configuration
search:
  google_api_key: "" # Must be set in environment or secrets file
  google_engine_id: ""
  max_results: 10

# Logging configuration
logging:
  level: "info"
  format: "json"
  output_paths: ["stdout"]
  error_output_paths: ["stderr"]

# Feature flags
features:
  enable_registration: true
  enable_web_search: true
  enable_image_identification: true
  enable_video_identification: true
  enable_availability: true
`
	if err := writeConfigIfAbsent("app.yaml", baseConfig); err != nil {
		return err
	}

	devConfig := `# Development environment configuration
# This file overrides the values in app.yaml for the development environment

# Server configuration
server:
  port: 8080
  host: "localhost"

# Logging configuration
logging:
  level: "debug"
  format: "console"

# Feature flags for development
features:
  enable_registration: true
  enable_web_search: true
`
	if err := writeConfigIfAbsent("app.development.yaml", devConfig); err != nil {
		return err
	}

	prodConfig := `# Production environment configuration
# This file overrides the values in app.yaml for the production environment

# Server configuration
server:
  use_https: true
  cert_file: "/etc/ssl/certs/reelid.pem"
  key_file: "/etc/ssl/private/reelid.pem"
  trusted_proxies: ["10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"]

# Storage configuration
storage:
  data_dir: "/var/lib/reelid/data"
  upload_dir: "/var/lib/reelid/uploads"

# Logging configuration
logging:
  level: "info"
  format: "json"
  output_paths: ["stdout", "/var/log/reelid/app.log"]
  error_output_paths: ["stderr", "/var/log/reelid/error.log"]

# Feature flags for production
features:
  enable_registration: true
  enable_web_search: true
`
	if err := writeConfigIfAbsent("app.production.yaml", prodConfig); err != nil {
		return err
	}

	secretsExample := `# Secrets configuration
# Copy this file to secrets.yaml and fill in the values

# Authentication configuration
auth:
  jwt_secret: "replace_with_a_secure_random_string"

# AI provider configuration
providers:
  openai:
    api_key: "sk-your_openai_api_key"
  gemini:
    api_key: "AIzaYour_gemini_api_key"

# Web search configuration
search:
  google_api_key: "your_google_api_key"
  google_engine_id: "your_engine_id"
`
	return writeConfigIfAbsent("secrets.example.yaml", secretsExample)
}
