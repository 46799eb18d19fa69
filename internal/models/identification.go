// Package models defines the domain types and errors shared across the backend.
package models

// RequestKind describes what kind of content an identification request carries.
type RequestKind string

// Supported identification request kinds.
const (
	RequestKindText  RequestKind = "text"
	RequestKindImage RequestKind = "image"
	RequestKindVideo RequestKind = "video"
	RequestKindActor RequestKind = "actor"
)

// IsValid reports whether the request kind is one of the supported values.
func (k RequestKind) IsValid() bool {
	switch k {
	case RequestKindText, RequestKindImage, RequestKindVideo, RequestKindActor:
		return true
	}
	return false
}

// ContentKind describes whether a match is a movie or a series.
type ContentKind string

// Supported content kinds.
const (
	ContentKindMovie  ContentKind = "movie"
	ContentKindSeries ContentKind = "series"
)

// Provenance indicates where an identification response came from.
type Provenance string

const (
	// SourceLive means the items are genuine provider output parsed from JSON.
	SourceLive Provenance = "live"

	// SourceDegraded means no JSON could be extracted from the provider reply
	// and the single item wraps raw reply text.
	SourceDegraded Provenance = "degraded"

	// SourceFallback means no provider was configured or the provider call
	// failed; the item list is empty.
	SourceFallback Provenance = "fallback"
)

// IdentificationRequest describes a single identification attempt. It is
// created per user action and discarded after one request/response cycle.
type IdentificationRequest struct {
	// Kind is the kind of content being identified.
	Kind RequestKind `json:"kind" validate:"required,oneof=text image video actor"`

	// Query is the free-text query for text and actor kinds.
	Query string `json:"query,omitempty" validate:"max=500"`

	// Content is the binary payload for image and video kinds.
	Content []byte `json:"-"`

	// MimeType is the MIME type of the binary payload, when present.
	MimeType string `json:"mimeType,omitempty"`
}

// IdentificationResponse is the uniform envelope returned for every
// identification request.
type IdentificationResponse struct {
	// Success indicates whether a provider call was attempted and completed.
	Success bool `json:"success"`

	// Items is the ordered list of candidate matches.
	Items []ContentMatch `json:"items"`

	// ProcessingTimeMs is the elapsed wall-clock time of the provider round
	// trip in milliseconds. Always >= 0.
	ProcessingTimeMs int64 `json:"processingTimeMs"`

	// ConfidencePercent is the overall confidence for the response, in [0,100].
	ConfidencePercent float64 `json:"confidencePercent"`

	// Source records where the items came from, so callers can tell genuine
	// results from degraded or fallback ones.
	Source Provenance `json:"source"`

	// Provider is the key of the provider that served the request, if any.
	Provider string `json:"provider,omitempty"`

	// ErrorMessage describes why the request failed, when Success is false.
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// ContentMatch is one candidate movie/series identification result.
type ContentMatch struct {
	// ID is an opaque identifier generated per normalization. Never reused.
	ID string `json:"id"`

	// Title is the matched title.
	Title string `json:"title"`

	// ReleaseYear is the release year of the matched content.
	ReleaseYear int `json:"releaseYear,omitempty"`

	// Kind is whether the match is a movie or a series.
	Kind ContentKind `json:"kind"`

	// Genres lists the genres of the matched content.
	Genres []string `json:"genres"`

	// RatingOutOf10 is the aggregate rating on a 0-10 scale.
	RatingOutOf10 float64 `json:"ratingOutOf10,omitempty"`

	// DurationLabel is a human-readable runtime, e.g. "2h 28m".
	DurationLabel string `json:"durationLabel,omitempty"`

	// Synopsis is a short plot summary.
	Synopsis string `json:"synopsis,omitempty"`

	// CastNames lists the principal cast in billing order.
	CastNames []string `json:"castNames,omitempty"`

	// Director is the director's name.
	Director string `json:"director,omitempty"`

	// ConfidencePercent is the per-match confidence, in [0,100].
	ConfidencePercent float64 `json:"confidencePercent"`

	// PosterURL is a placeholder poster image URL.
	PosterURL string `json:"posterUrl"`

	// BackdropURL is a placeholder backdrop image URL.
	BackdropURL string `json:"backdropUrl"`

	// Platforms lists synthetic streaming availability for this match.
	Platforms []PlatformAvailability `json:"platforms,omitempty"`
}

// PlatformAvailability describes whether a match is watchable on a streaming
// platform. The data is generated, not fetched from any real catalog, and is
// always marked synthetic.
type PlatformAvailability struct {
	// PlatformName is the display name of the platform.
	PlatformName string `json:"platformName"`

	// IconGlyph is a short glyph identifying the platform in UIs.
	IconGlyph string `json:"iconGlyph"`

	// IsAvailable indicates whether the match is watchable on the platform.
	IsAvailable bool `json:"isAvailable"`

	// DeepLink is a link into the platform, when available.
	DeepLink string `json:"deepLink,omitempty"`

	// IsSubscriptionBased indicates whether the platform requires a subscription.
	IsSubscriptionBased bool `json:"isSubscriptionBased"`

	// Synthetic marks the record as generated demo data.
	Synthetic bool `json:"synthetic"`
}

// ProviderInfo describes one registered provider for the providers endpoint.
type ProviderInfo struct {
	// Key is the registry key of the provider.
	Key string `json:"key"`

	// DisplayName is the human-readable provider name.
	DisplayName string `json:"displayName"`

	// Configured indicates whether a credential is registered for the provider.
	Configured bool `json:"configured"`

	// Active indicates whether the provider currently serves requests.
	Active bool `json:"active"`
}

// IdentifyTextRequest is the request body for free-text identification.
type IdentifyTextRequest struct {
	// Query is the description of the movie or series to identify.
	Query string `json:"query" validate:"required,min=2,max=500"`
}

// IdentifyActorRequest is the request body for actor-based identification.
type IdentifyActorRequest struct {
	// Name is the actor's name.
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// ProviderConfigureRequest is the request body for configuring a provider credential.
type ProviderConfigureRequest struct {
	// Provider is the registry key of the provider to configure.
	Provider string `json:"provider" validate:"required,min=2,max=30"`

	// Credential is the API credential for the provider.
	Credential string `json:"credential" validate:"required,min=8,max=200"`
}

// ProviderSelectRequest is the request body for selecting the active provider.
type ProviderSelectRequest struct {
	// Provider is the registry key of the provider to activate.
	Provider string `json:"provider" validate:"required,min=2,max=30"`
}
