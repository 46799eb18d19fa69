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

// geminiDefaultConfidence is stamped on results whose JSON omits a
// per-item confidence. Arbitrary constant, not a real confidence signal.
const geminiDefaultConfidence = 88

// GeminiProvider identifies content through a Gemini-style generateContent
// endpoint.
type GeminiProvider struct {
	credential string
	baseURL    string
	model      string
	client     *resty.Client
	logger     *utils.Logger
}

// NewGeminiProvider creates an adapter for the Generative Language API.
func NewGeminiProvider(credential string, cfg *config.Config, logger *utils.Logger) *GeminiProvider {
	// One call attempt per identification request, so no resty retries.
	client := resty.New().
		SetTimeout(cfg.Providers.RequestTimeout)

	return &GeminiProvider{
		credential: credential,
		baseURL:    cfg.Providers.Gemini.BaseURL,
		model:      cfg.Providers.Gemini.Model,
		client:     client,
		logger:     logger.Named("gemini_provider"),
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlobPart `json:"inline_data,omitempty"`
}

type geminiBlobPart struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Identify sends one generateContent request and normalizes the reply.
func (p *GeminiProvider) Identify(ctx context.Context, req *models.IdentificationRequest) (*models.IdentificationResponse, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	parts := []geminiPart{{Text: prompt}}

	if len(req.Content) > 0 {
		mimeType := req.MimeType
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		parts = append(parts, geminiPart{
			InlineData: &geminiBlobPart{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(req.Content),
			},
		})
	}

	body := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
	}

	var parsed geminiResponse

	start := time.Now()
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", p.credential).
		SetBody(body).
		SetResult(&parsed).
		SetError(&parsed).
		Post(fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model))
	elapsed := time.Since(start)

	if err != nil {
		p.logger.Error("Gemini API call failed", err, "kind", req.Kind)
		return nil, fmt.Errorf("call gemini api: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return nil, fmt.Errorf("gemini api error: %s", parsed.Error.Message)
		}
		return nil, fmt.Errorf("gemini api returned status %d", resp.StatusCode())
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, models.ErrEmptyProviderReply
	}

	raw := parsed.Candidates[0].Content.Parts[0].Text
	if raw == "" {
		return nil, models.ErrEmptyProviderReply
	}

	items, source := normalizeReply(raw, geminiDefaultConfidence)

	p.logger.Debug("Gemini identification complete",
		"kind", req.Kind, "results", len(items), "source", source, "elapsed", elapsed)

	return &models.IdentificationResponse{
		Success:           true,
		Items:             items,
		ProcessingTimeMs:  elapsed.Milliseconds(),
		ConfidencePercent: envelopeConfidence(items),
		Source:            source,
		Provider:          ProviderGemini,
	}, nil
}

// Key returns the provider key.
func (p *GeminiProvider) Key() string {
	return ProviderGemini
}

// DisplayName returns the human-readable provider name.
func (p *GeminiProvider) DisplayName() string {
	return "Google Gemini"
}
