// Package identify provides AI-backed movie and series identification.
package identify

import (
	"context"
	"fmt"

	"norelock.dev/reelid/backend/internal/models"
)

// Provider keys for the supported adapters.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Provider defines the interface for AI identification adapters.
type Provider interface {
	// Identify sends one identification request to the external API and
	// returns the normalized response envelope. Implementations make exactly
	// one call attempt; transport failures are returned as errors for the
	// registry to convert into a fallback envelope.
	Identify(ctx context.Context, req *models.IdentificationRequest) (*models.IdentificationResponse, error)

	// Key returns the provider key (e.g. "openai", "gemini").
	Key() string

	// DisplayName returns the human-readable provider name.
	DisplayName() string
}

// resultSchema describes the JSON document the instruction templates ask the
// model to produce. Both adapters share it so the normalizer sees one shape.
const resultSchema = `Respond with a single JSON object and nothing else, using this exact schema:
{"results": [{"title": string, "year": number, "type": "movie" or "series", "genres": [string], "rating": number from 0 to 10, "duration": string like "2h 28m" or "45m per episode", "synopsis": string, "cast": [string], "director": string, "confidence": number from 0 to 100}]}
Order results from most to least likely. Return at most 5 results.`

// buildPrompt selects the kind-specific instruction template for a request.
func buildPrompt(req *models.IdentificationRequest) (string, error) {
	switch req.Kind {
	case models.RequestKindText:
		return fmt.Sprintf(
			"You are a movie and TV series identification expert. A user describes something they watched as: %q. "+
				"Identify which movies or series best match the description.\n%s",
			req.Query, resultSchema), nil

	case models.RequestKindActor:
		return fmt.Sprintf(
			"You are a movie and TV series identification expert. A user wants the most notable movies and series featuring the actor %q. "+
				"List that actor's best-known work.\n%s",
			req.Query, resultSchema), nil

	case models.RequestKindImage:
		return fmt.Sprintf(
			"You are a movie and TV series identification expert. The attached image is a still frame, poster, or screenshot. "+
				"Identify which movie or series it comes from, using visible actors, scenery, costumes, and any on-screen text.\n%s",
			resultSchema), nil

	case models.RequestKindVideo:
		return fmt.Sprintf(
			"You are a movie and TV series identification expert. The attached media comes from a short video clip a user recorded. "+
				"Identify which movie or series the clip is from, using visible actors, dialogue, scenery, and style.\n%s",
			resultSchema), nil

	default:
		return "", models.ErrInvalidRequestKind
	}
}
