package identify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"norelock.dev/reelid/backend/internal/config"
	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/utils"
)

// openAIDefaultConfidence is stamped on results whose JSON omits a
// per-item confidence. Arbitrary constant, not a real confidence signal.
const openAIDefaultConfidence = 85

// OpenAIProvider identifies content through an OpenAI-compatible chat
// completion endpoint.
type OpenAIProvider struct {
	credential  string
	baseURL     string
	model       string
	visionModel string
	client      *resty.Client
	logger      *utils.Logger
}

// NewOpenAIProvider creates an adapter for an OpenAI-compatible API.
func NewOpenAIProvider(credential string, cfg *config.Config, logger *utils.Logger) *OpenAIProvider {
	// One call attempt per identification request, so no resty retries.
	client := resty.New().
		SetTimeout(cfg.Providers.RequestTimeout)

	return &OpenAIProvider{
		credential:  credential,
		baseURL:     cfg.Providers.OpenAI.BaseURL,
		model:       cfg.Providers.OpenAI.Model,
		visionModel: cfg.Providers.OpenAI.VisionModel,
		client:      client,
		logger:      logger.Named("openai_provider"),
	}
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string              `json:"role"`
	Content []openAIContentPart `json:"content"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Identify sends one chat completion request and normalizes the reply.
func (p *OpenAIProvider) Identify(ctx context.Context, req *models.IdentificationRequest) (*models.IdentificationResponse, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	parts := []openAIContentPart{{Type: "text", Text: prompt}}
	model := p.model

	if len(req.Content) > 0 {
		mimeType := req.MimeType
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		encoded := base64.StdEncoding.EncodeToString(req.Content)
		parts = append(parts, openAIContentPart{
			Type:     "image_url",
			ImageURL: &openAIImageURL{URL: fmt.Sprintf("data:%s;base64,%s", mimeType, encoded)},
		})
		model = p.visionModel
	}

	body := openAIRequest{
		Model:    model,
		Messages: []openAIMessage{{Role: "user", Content: parts}},
	}

	var parsed openAIResponse

	start := time.Now()
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+p.credential).
		SetBody(body).
		SetResult(&parsed).
		SetError(&parsed).
		Post(p.baseURL + "/chat/completions")
	elapsed := time.Since(start)

	if err != nil {
		p.logger.Error("OpenAI API call failed", err, "kind", req.Kind)
		return nil, fmt.Errorf("call openai api: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return nil, fmt.Errorf("openai api error: %s", parsed.Error.Message)
		}
		return nil, fmt.Errorf("openai api returned status %d", resp.StatusCode())
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, models.ErrEmptyProviderReply
	}

	items, source := normalizeReply(parsed.Choices[0].Message.Content, openAIDefaultConfidence)

	p.logger.Debug("OpenAI identification complete",
		"kind", req.Kind, "results", len(items), "source", source, "elapsed", elapsed)

	return &models.IdentificationResponse{
		Success:           true,
		Items:             items,
		ProcessingTimeMs:  elapsed.Milliseconds(),
		ConfidencePercent: envelopeConfidence(items),
		Source:            source,
		Provider:          ProviderOpenAI,
	}, nil
}

// Key returns the provider key.
func (p *OpenAIProvider) Key() string {
	return ProviderOpenAI
}

// DisplayName returns the human-readable provider name.
func (p *OpenAIProvider) DisplayName() string {
	return "OpenAI"
}
