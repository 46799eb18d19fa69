package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalConfigYAML = `
server:
  port: 9090
auth:
  jwt_secret: "file-secret-long-enough"
providers:
  active: "gemini"
`

// LoadConfig tests use t.Setenv and therefore cannot run in parallel.

func TestLoadConfigFromFile(t *testing.T) {
	require := require.New(t)

	t.Setenv("CONFIG_FILE", writeConfigFile(t, minimalConfigYAML))
	t.Setenv("REELID_ENV", "test")

	cfg, err := LoadConfig()
	require.NoError(err)

	require.Equal("test", cfg.Environment)
	require.Equal(9090, cfg.Server.Port)
	require.Equal("file-secret-long-enough", cfg.Auth.JWTSecret)
	require.Equal("gemini", cfg.Providers.Active)

	// Values the file does not mention fall back to defaults.
	require.Equal("0.0.0.0", cfg.Server.Host)
	require.Equal(15*time.Second, cfg.Server.ReadTimeout)
	require.Equal("https://api.openai.com/v1", cfg.Providers.OpenAI.BaseURL)
	require.Equal(10, cfg.Search.MaxResults)
	require.True(cfg.Features.EnableRegistration)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	require := require.New(t)

	t.Setenv("CONFIG_FILE", writeConfigFile(t, minimalConfigYAML))
	t.Setenv("REELID_ENV", "test")
	t.Setenv("REELID_SERVER_PORT", "9191")

	cfg, err := LoadConfig()
	require.NoError(err)
	require.Equal(9191, cfg.Server.Port)
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	require := require.New(t)

	t.Setenv("CONFIG_FILE", writeConfigFile(t, "server: [not: valid"))
	t.Setenv("REELID_ENV", "test")

	_, err := LoadConfig()
	require.Error(err)
	require.Contains(err.Error(), "failed to read config file")
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	require := require.New(t)

	t.Setenv("CONFIG_FILE", writeConfigFile(t, `
server:
  port: 99999
auth:
  jwt_secret: "file-secret-long-enough"
`))
	t.Setenv("REELID_ENV", "test")

	_, err := LoadConfig()
	require.Error(err)
	require.Contains(err.Error(), "invalid configuration")
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	require.NoError(validateConfig(CreateDefaultConfig()))

	cases := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{
			"port out of range",
			func(c *Config) { c.Server.Port = 0 },
			"server port must be between 1 and 65535",
		},
		{
			"missing jwt secret",
			func(c *Config) { c.Auth.JWTSecret = "" },
			"JWT secret must be set",
		},
		{
			"https without certificates",
			func(c *Config) { c.Server.UseHTTPS = true },
			"TLS certificate and key files must be provided",
		},
		{
			"missing data dir",
			func(c *Config) { c.Storage.DataDir = "" },
			"storage data directory must be set",
		},
		{
			"missing upload dir",
			func(c *Config) { c.Storage.UploadDir = "" },
			"storage upload directory must be set",
		},
		{
			"non-positive upload limit",
			func(c *Config) { c.Storage.MaxImageSize = 0 },
			"storage upload size limits must be positive",
		},
		{
			"unknown provider",
			func(c *Config) { c.Providers.Active = "acme" },
			"unknown active provider",
		},
		{
			"non-positive provider timeout",
			func(c *Config) { c.Providers.RequestTimeout = 0 },
			"provider request timeout must be positive",
		},
		{
			"web search without result budget",
			func(c *Config) { c.Search.MaxResults = 0 },
			"search max results must be positive",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := CreateDefaultConfig()
			tc.mutate(cfg)

			err := validateConfig(cfg)
			require.Error(err)
			require.Contains(err.Error(), tc.message)
		})
	}
}

func TestGetConfigString(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	out := GetConfigString(CreateDefaultConfig())
	require.Contains(out, "Environment: development")
	require.Contains(out, "Server: 0.0.0.0:8080")
	require.Contains(out, "Active Provider: openai")
	require.Contains(out, "Registration Enabled: true")
}
