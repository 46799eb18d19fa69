package identify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"norelock.dev/reelid/backend/internal/models"
)

// capturedOpenAIRequest records what the adapter sent, for assertions on the
// test goroutine after the call returns.
type capturedOpenAIRequest struct {
	method string
	path   string
	auth   string
	body   openAIRequest
}

// openAIServer answers every request with a single chat completion choice
// carrying content, recording the last request into capture when non-nil.
func openAIServer(t *testing.T, content string, capture *capturedOpenAIRequest) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			capture.method = r.Method
			capture.path = r.URL.Path
			capture.auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&capture.body)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newOpenAITestProvider(baseURL string) *OpenAIProvider {
	cfg := testConfig()
	cfg.Providers.OpenAI.BaseURL = baseURL
	return NewOpenAIProvider("sk-"+strings.Repeat("a", 20), cfg, testLogger())
}

func TestOpenAIProviderIdentifyText(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	reply := `{"results":[{"title":"Inception","year":2010,"type":"movie","genres":["Sci-Fi"],"rating":8.8,"duration":"148","synopsis":"Dream heist.","cast":["Leonardo DiCaprio"],"director":"Christopher Nolan","confidence":92}]}`

	var captured capturedOpenAIRequest
	srv := openAIServer(t, reply, &captured)
	p := newOpenAITestProvider(srv.URL)

	resp, err := p.Identify(context.Background(), &models.IdentificationRequest{
		Kind:  models.RequestKindText,
		Query: "a thief steals secrets through dreams",
	})
	require.NoError(err)

	require.Equal(http.MethodPost, captured.method)
	require.Equal("/chat/completions", captured.path)
	require.Equal("Bearer sk-"+strings.Repeat("a", 20), captured.auth)
	require.Equal("gpt-4o-mini", captured.body.Model)
	require.Len(captured.body.Messages, 1)
	require.Equal("user", captured.body.Messages[0].Role)
	require.Len(captured.body.Messages[0].Content, 1)
	require.Equal("text", captured.body.Messages[0].Content[0].Type)
	require.Contains(captured.body.Messages[0].Content[0].Text, "a thief steals secrets through dreams")

	require.True(resp.Success)
	require.Equal(models.SourceLive, resp.Source)
	require.Equal(ProviderOpenAI, resp.Provider)
	require.GreaterOrEqual(resp.ProcessingTimeMs, int64(0))
	require.Len(resp.Items, 1)
	require.Equal("Inception", resp.Items[0].Title)
	require.Equal(2010, resp.Items[0].ReleaseYear)
	require.InDelta(92, resp.Items[0].ConfidencePercent, 0.01)
	require.InDelta(92, resp.ConfidencePercent, 0.01)
}

func TestOpenAIProviderVisionPayload(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	frame := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a}

	var captured capturedOpenAIRequest
	srv := openAIServer(t, `{"results":[{"title":"Blade Runner","confidence":70}]}`, &captured)
	p := newOpenAITestProvider(srv.URL)

	_, err := p.Identify(context.Background(), &models.IdentificationRequest{
		Kind:     models.RequestKindImage,
		Content:  frame,
		MimeType: "image/png",
	})
	require.NoError(err)

	// Image requests switch to the vision model and append a data URL part.
	require.Equal("gpt-4o", captured.body.Model)
	require.Len(captured.body.Messages[0].Content, 2)

	imagePart := captured.body.Messages[0].Content[1]
	require.Equal("image_url", imagePart.Type)
	require.NotNil(imagePart.ImageURL)

	url := imagePart.ImageURL.URL
	require.True(strings.HasPrefix(url, "data:image/png;base64,"), "got %q", url)

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(err)
	require.Equal(frame, decoded)
}

func TestOpenAIProviderDefaultsImageMimeType(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	var captured capturedOpenAIRequest
	srv := openAIServer(t, `{"results":[{"title":"X"}]}`, &captured)
	p := newOpenAITestProvider(srv.URL)

	_, err := p.Identify(context.Background(), &models.IdentificationRequest{
		Kind:    models.RequestKindImage,
		Content: []byte{0xff, 0xd8},
	})
	require.NoError(err)

	url := captured.body.Messages[0].Content[1].ImageURL.URL
	require.True(strings.HasPrefix(url, "data:image/jpeg;base64,"), "got %q", url)
}

func TestOpenAIProviderReflectsElapsedTime(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	const delay = 120 * time.Millisecond

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": `{"results":[{"title":"X"}]}`}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	p := newOpenAITestProvider(srv.URL)
	resp, err := p.Identify(context.Background(), &models.IdentificationRequest{
		Kind:  models.RequestKindText,
		Query: "anything",
	})
	require.NoError(err)
	require.GreaterOrEqual(resp.ProcessingTimeMs, delay.Milliseconds())
}

func TestOpenAIProviderErrorReplies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:    "api error envelope",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			wantErr: "openai api error: Incorrect API key provided",
		},
		{
			name:    "bare error status",
			status:  http.StatusInternalServerError,
			body:    `{}`,
			wantErr: "openai api returned status 500",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require := require.New(t)

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(srv.Close)

			p := newOpenAITestProvider(srv.URL)
			_, err := p.Identify(context.Background(), &models.IdentificationRequest{
				Kind:  models.RequestKindText,
				Query: "anything",
			})
			require.EqualError(err, tc.wantErr)
		})
	}
}

func TestOpenAIProviderEmptyChoices(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	t.Cleanup(srv.Close)

	p := newOpenAITestProvider(srv.URL)
	_, err := p.Identify(context.Background(), &models.IdentificationRequest{
		Kind:  models.RequestKindText,
		Query: "anything",
	})
	require.ErrorIs(err, models.ErrEmptyProviderReply)
}

func TestOpenAIProviderRejectsUnknownKind(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	// No server: the request must be rejected before any call goes out.
	p := newOpenAITestProvider("http://127.0.0.1:0")
	_, err := p.Identify(context.Background(), &models.IdentificationRequest{Kind: "hologram"})
	require.ErrorIs(err, models.ErrInvalidRequestKind)
}
