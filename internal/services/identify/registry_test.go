package identify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"norelock.dev/reelid/backend/internal/config"
	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/utils"
)

// testLogger returns a logger that discards everything.
func testLogger() *utils.Logger {
	return &utils.Logger{Logger: zap.NewNop()}
}

// testConfig returns a default configuration with availability enhancement
// switched off, so provider responses pass through the registry untouched.
func testConfig() *config.Config {
	cfg := config.CreateDefaultConfig()
	cfg.Features.EnableAvailability = false
	return cfg
}

// stubProvider is a canned Provider implementation for routing tests.
type stubProvider struct {
	resp    *models.IdentificationResponse
	err     error
	lastReq *models.IdentificationRequest
}

func (s *stubProvider) Identify(_ context.Context, req *models.IdentificationRequest) (*models.IdentificationResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubProvider) Key() string         { return "stub" }
func (s *stubProvider) DisplayName() string { return "Stub" }

// ============================================================
// Configuration Tests
// ============================================================

func TestRegistryStartsUnconfigured(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	r := NewRegistry(testConfig(), testLogger())

	require.Empty(r.ListAvailable())
	require.Equal(ProviderOpenAI, r.CurrentProvider())
}

func TestRegistryConfiguresFromCredentialsInConfig(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	cfg := testConfig()
	cfg.Providers.OpenAI.APIKey = "sk-" + strings.Repeat("a", 20)
	cfg.Providers.Gemini.APIKey = "AIza" + strings.Repeat("b", 30)

	r := NewRegistry(cfg, testLogger())

	require.Equal([]string{ProviderGemini, ProviderOpenAI}, r.ListAvailable())
}

func TestRegistryConfigureCredentialShapes(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	tests := []struct {
		name       string
		provider   string
		credential string
		want       bool
	}{
		{"plausible openai key", ProviderOpenAI, "sk-" + strings.Repeat("a", 20), true},
		{"short openai key", ProviderOpenAI, "sk-abc", false},
		{"openai key without prefix", ProviderOpenAI, strings.Repeat("a", 24), false},
		{"plausible gemini key", ProviderGemini, "AIza" + strings.Repeat("b", 30), true},
		{"short gemini key", ProviderGemini, "AIzaShort", false},
		{"openai key offered for gemini", ProviderGemini, "sk-" + strings.Repeat("a", 20), false},
		{"unknown provider key", "acme", "sk-" + strings.Repeat("a", 20), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry(testConfig(), testLogger())
			require.Equal(tc.want, r.Configure(tc.provider, tc.credential))
			if tc.want {
				require.Contains(r.ListAvailable(), tc.provider)
			} else {
				require.Empty(r.ListAvailable())
			}
		})
	}
}

func TestRegistrySelectActive(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	r := NewRegistry(testConfig(), testLogger())

	// Selecting an unregistered provider fails and leaves the selection alone.
	err := r.SelectActive(ProviderGemini)
	require.ErrorIs(err, models.ErrProviderNotConfigured)
	require.Equal(ProviderOpenAI, r.CurrentProvider())

	require.True(r.Configure(ProviderGemini, "AIza"+strings.Repeat("b", 30)))
	require.NoError(r.SelectActive(ProviderGemini))
	require.Equal(ProviderGemini, r.CurrentProvider())
}

func TestRegistryProvidersListing(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	cfg := testConfig()
	cfg.Providers.Gemini.APIKey = "AIza" + strings.Repeat("b", 30)
	cfg.Providers.Active = ProviderGemini

	r := NewRegistry(cfg, testLogger())
	infos := r.Providers()

	require.Len(infos, 2)

	require.Equal(ProviderOpenAI, infos[0].Key)
	require.Equal("OpenAI", infos[0].DisplayName)
	require.False(infos[0].Configured)
	require.False(infos[0].Active)

	require.Equal(ProviderGemini, infos[1].Key)
	require.Equal("Google Gemini", infos[1].DisplayName)
	require.True(infos[1].Configured)
	require.True(infos[1].Active)
}

// ============================================================
// Request Routing Tests
// ============================================================

func TestRegistryFallbackWhenUnconfigured(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	r := NewRegistry(testConfig(), testLogger())

	resp := r.Identify(context.Background(), &models.IdentificationRequest{
		Kind:  models.RequestKindText,
		Query: "a movie about dreams",
	})

	require.NotNil(resp)
	require.False(resp.Success)
	require.NotNil(resp.Items)
	require.Empty(resp.Items)
	require.Equal(models.SourceFallback, resp.Source)
	require.Empty(resp.Provider)
	require.Equal("no provider configured", resp.ErrorMessage)
	require.Zero(resp.ProcessingTimeMs)
}

func TestRegistryRoutesToActiveProvider(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	r := NewRegistry(testConfig(), testLogger())
	stub := &stubProvider{resp: &models.IdentificationResponse{
		Success:  true,
		Items:    []models.ContentMatch{{ID: "m1", Title: "Inception"}},
		Source:   models.SourceLive,
		Provider: ProviderOpenAI,
	}}
	r.providers[ProviderOpenAI] = stub

	req := &models.IdentificationRequest{Kind: models.RequestKindText, Query: "dream heist"}
	resp := r.Identify(context.Background(), req)

	require.Same(stub.resp, resp)
	require.Same(req, stub.lastReq)
	require.Empty(resp.Items[0].Platforms)
}

func TestRegistryProviderErrorYieldsFallback(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	r := NewRegistry(testConfig(), testLogger())
	r.providers[ProviderOpenAI] = &stubProvider{err: errors.New("upstream unavailable")}

	resp := r.Identify(context.Background(), &models.IdentificationRequest{
		Kind:  models.RequestKindText,
		Query: "anything",
	})

	require.False(resp.Success)
	require.Empty(resp.Items)
	require.Equal(models.SourceFallback, resp.Source)
	require.Equal(ProviderOpenAI, resp.Provider)
	require.Equal("upstream unavailable", resp.ErrorMessage)
	require.GreaterOrEqual(resp.ProcessingTimeMs, int64(0))
}

func TestRegistryEnhancesResponsesWhenEnabled(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	cfg := testConfig()
	cfg.Features.EnableAvailability = true

	r := NewRegistry(cfg, testLogger())
	r.providers[ProviderOpenAI] = &stubProvider{resp: &models.IdentificationResponse{
		Success: true,
		Items:   []models.ContentMatch{{ID: "m1", Title: "Inception"}},
		Source:  models.SourceLive,
	}}

	resp := r.Identify(context.Background(), &models.IdentificationRequest{
		Kind:  models.RequestKindText,
		Query: "dream heist",
	})

	require.Len(resp.Items[0].Platforms, 7)
	for _, p := range resp.Items[0].Platforms {
		require.True(p.Synthetic)
	}
}
