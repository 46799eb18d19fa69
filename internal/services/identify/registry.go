package identify

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"norelock.dev/reelid/backend/internal/config"
	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/utils"
)

// knownProviders lists every provider key the registry can build an adapter
// for, in presentation order.
var knownProviders = []struct {
	key  string
	name string
}{
	{ProviderOpenAI, "OpenAI"},
	{ProviderGemini, "Google Gemini"},
}

// Registry holds the configured provider adapters and routes identification
// requests to the active one. A provider is registered by supplying a
// credential, either from configuration at construction time or through
// Configure at runtime. Supplying a new credential for an already registered
// key replaces the adapter wholesale.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	active    string

	cfg      *config.Config
	enhancer *Enhancer
	base     *utils.Logger
	logger   *utils.Logger
}

// NewRegistry creates a provider registry from configuration. Credentials
// present in the config are registered immediately; the active selection
// defaults to the configured provider key even when no credential for it has
// been supplied yet, in which case requests take the fallback path.
func NewRegistry(cfg *config.Config, logger *utils.Logger) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		cfg:       cfg,
		enhancer:  NewEnhancer(logger),
		base:      logger,
		logger:    logger.Named("identify_registry"),
	}

	if cfg.Providers.OpenAI.APIKey != "" {
		r.Configure(ProviderOpenAI, cfg.Providers.OpenAI.APIKey)
	}
	if cfg.Providers.Gemini.APIKey != "" {
		r.Configure(ProviderGemini, cfg.Providers.Gemini.APIKey)
	}

	r.active = cfg.Providers.Active
	if r.active == "" {
		r.active = ProviderOpenAI
	}

	r.logger.Info("identification registry ready",
		"configured", r.ListAvailable(),
		"active", r.active,
	)
	return r
}

// Configure registers an adapter for the given provider key when the
// credential matches the shape that provider issues. It reports whether the
// provider was registered.
func (r *Registry) Configure(key, credential string) bool {
	var plausible bool
	switch key {
	case ProviderOpenAI:
		plausible = config.IsPlausibleOpenAIKey(credential)
	case ProviderGemini:
		plausible = config.IsPlausibleGeminiKey(credential)
	default:
		r.logger.Warn("refusing to configure unknown provider", "provider", key)
		return false
	}
	if !plausible {
		r.logger.Warn("credential does not match the provider's key shape", "provider", key)
		return false
	}

	adapter := r.buildProvider(key, credential)

	r.mu.Lock()
	r.providers[key] = adapter
	r.mu.Unlock()

	r.logger.Info("provider configured", "provider", key)
	return true
}

// buildProvider constructs the adapter for a known provider key. Callers must
// have validated the key first.
func (r *Registry) buildProvider(key, credential string) Provider {
	if key == ProviderGemini {
		return NewGeminiProvider(credential, r.cfg, r.base)
	}
	return NewOpenAIProvider(credential, r.cfg, r.base)
}

// SelectActive switches the registry to route requests through the given
// provider. It returns models.ErrProviderNotConfigured when no adapter is
// registered under that key, leaving the current selection unchanged.
func (r *Registry) SelectActive(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[key]; !ok {
		return models.ErrProviderNotConfigured
	}

	r.active = key
	r.logger.Info("active provider changed", "provider", key)
	return nil
}

// CurrentProvider returns the key of the provider requests are routed to.
// The key may be unregistered, in which case requests take the fallback path.
func (r *Registry) CurrentProvider() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// ListAvailable returns the sorted keys of all registered providers.
func (r *Registry) ListAvailable() []string {
	r.mu.RLock()
	keys := lo.Keys(r.providers)
	r.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

// Providers describes every known provider with its configured and active
// state, for the providers endpoint.
func (r *Registry) Providers() []models.ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]models.ProviderInfo, 0, len(knownProviders))
	for _, kp := range knownProviders {
		adapter, configured := r.providers[kp.key]
		info := models.ProviderInfo{
			Key:         kp.key,
			DisplayName: kp.name,
			Configured:  configured,
			Active:      kp.key == r.active,
		}
		if configured {
			info.DisplayName = adapter.DisplayName()
		}
		infos = append(infos, info)
	}
	return infos
}

// Identify routes the request to the active provider and returns the uniform
// response envelope. Every outcome is expressed in the envelope: when no
// provider is registered under the active key, or when the provider call
// fails, the envelope takes the fallback shape with Success false and an
// empty item list.
func (r *Registry) Identify(ctx context.Context, req *models.IdentificationRequest) *models.IdentificationResponse {
	r.mu.RLock()
	key := r.active
	adapter := r.providers[key]
	r.mu.RUnlock()

	if adapter == nil {
		r.logger.Warn("identification requested with no provider configured", "kind", string(req.Kind))
		return fallbackResponse(0, "", "no provider configured")
	}

	started := time.Now()
	resp, err := adapter.Identify(ctx, req)
	if err != nil {
		elapsed := time.Since(started)
		r.logger.Error("provider call failed", err,
			"provider", key,
			"kind", string(req.Kind),
			"elapsedMs", elapsed.Milliseconds(),
		)
		return fallbackResponse(elapsed, key, err.Error())
	}

	if r.cfg.Features.EnableAvailability {
		r.enhancer.Enhance(resp)
	}
	return resp
}

// fallbackResponse builds the envelope returned when no provider served the
// request.
func fallbackResponse(elapsed time.Duration, provider, message string) *models.IdentificationResponse {
	return &models.IdentificationResponse{
		Success:          false,
		Items:            []models.ContentMatch{},
		ProcessingTimeMs: elapsed.Milliseconds(),
		Source:           models.SourceFallback,
		Provider:         provider,
		ErrorMessage:     message,
	}
}
