package identify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/utils"
)

const (
	// degradedConfidence is stamped on the synthetic match produced when no
	// JSON can be extracted from a reply. Deliberately lower than both
	// adapters' success defaults.
	degradedConfidence = 40

	// degradedSynopsisLimit caps how much raw reply text is carried into the
	// synthetic match's synopsis.
	degradedSynopsisLimit = 200

	// maxResultsPerReply caps how many entries of a reply are kept.
	maxResultsPerReply = 10
)

// providerResult mirrors the JSON schema the instruction templates request.
type providerResult struct {
	Title      string     `json:"title"`
	Year       int        `json:"year"`
	Type       string     `json:"type"`
	Genres     stringList `json:"genres"`
	Rating     float64    `json:"rating"`
	Duration   string     `json:"duration"`
	Synopsis   string     `json:"synopsis"`
	Cast       stringList `json:"cast"`
	Director   string     `json:"director"`
	Confidence *float64   `json:"confidence"`
}

// stringList decodes either a JSON array of strings or a single
// comma-separated string. Providers do not reliably honor the array shape.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = arr
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*l = nil
		return nil
	}

	*l = utils.SplitAndTrim(s, ",")
	return nil
}

// providerReply is the top-level document the templates request.
type providerReply struct {
	Results []providerResult `json:"results"`
}

// normalizeReply converts a provider's raw textual reply into ContentMatch
// records. It tries three paths in order: parse the whole reply as JSON,
// extract the first balanced JSON object embedded in surrounding prose, and
// finally synthesize a single degraded match carrying the reply text.
func normalizeReply(raw string, defaultConfidence float64) ([]models.ContentMatch, models.Provenance) {
	trimmed := strings.TrimSpace(raw)

	if results, ok := parseReply([]byte(trimmed)); ok {
		return toMatches(results, defaultConfidence), models.SourceLive
	}

	rest := trimmed
	for {
		candidate, offset, found := extractJSONObject(rest)
		if offset < 0 {
			break
		}
		if found {
			if results, ok := parseReply([]byte(candidate)); ok {
				return toMatches(results, defaultConfidence), models.SourceLive
			}
		}
		// The brace at offset did not open a usable document. Resume the scan
		// just past it so nested or later objects are still considered.
		rest = rest[offset+1:]
	}

	return []models.ContentMatch{degradedMatch(trimmed)}, models.SourceDegraded
}

// parseReply decodes data as either a results document or a bare single
// result object. The second decode only counts when it yields a title, so
// arbitrary JSON is not mistaken for a match.
func parseReply(data []byte) ([]providerResult, bool) {
	var reply providerReply
	if err := json.Unmarshal(data, &reply); err == nil && reply.Results != nil {
		if len(reply.Results) > maxResultsPerReply {
			reply.Results = reply.Results[:maxResultsPerReply]
		}
		return reply.Results, true
	}

	var single providerResult
	if err := json.Unmarshal(data, &single); err == nil && strings.TrimSpace(single.Title) != "" {
		return []providerResult{single}, true
	}

	return nil, false
}

// extractJSONObject returns the first balanced {...} substring of s together
// with the offset of its opening brace, or offset -1 when s holds no opening
// brace at all. The scan counts brace depth and is string-literal aware, so
// braces inside JSON strings do not unbalance it.
func extractJSONObject(s string) (string, int, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", -1, false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], start, true
			}
		}
	}

	return "", start, false
}

// toMatches maps decoded provider results field-for-field into ContentMatch
// records, stamping a fresh id and placeholder artwork per entry.
func toMatches(results []providerResult, defaultConfidence float64) []models.ContentMatch {
	matches := make([]models.ContentMatch, 0, len(results))

	for _, r := range results {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = "Untitled"
		}

		confidence := defaultConfidence
		if r.Confidence != nil {
			confidence = *r.Confidence
		}

		genres := []string(r.Genres)
		if len(genres) == 0 {
			genres = []string{"Unknown"}
		}

		matches = append(matches, models.ContentMatch{
			ID:                uuid.NewString(),
			Title:             title,
			ReleaseYear:       r.Year,
			Kind:              contentKind(r.Type),
			Genres:            genres,
			RatingOutOf10:     clamp(r.Rating, 0, 10),
			DurationLabel:     durationLabel(r.Duration),
			Synopsis:          r.Synopsis,
			CastNames:         r.Cast,
			Director:          r.Director,
			ConfidencePercent: clamp(confidence, 0, 100),
			PosterURL:         posterURL(title),
			BackdropURL:       backdropURL(title),
		})
	}

	return matches
}

// degradedMatch synthesizes the single match returned when a reply carries no
// parseable JSON. The reply text survives as the synopsis so the caller still
// sees what the model said.
func degradedMatch(raw string) models.ContentMatch {
	return models.ContentMatch{
		ID:                uuid.NewString(),
		Title:             "Unidentified title",
		Kind:              models.ContentKindMovie,
		Genres:            []string{"Unknown"},
		Synopsis:          utils.TruncateString(raw, degradedSynopsisLimit),
		ConfidencePercent: degradedConfidence,
		PosterURL:         posterURL("unknown"),
		BackdropURL:       backdropURL("unknown"),
	}
}

// durationLabel normalizes a provider duration. A bare number is taken as
// minutes and formatted, anything else passes through as the label.
func durationLabel(d string) string {
	d = strings.TrimSpace(d)
	if minutes := utils.ParseInt(d, 0); minutes > 0 {
		return utils.FormatRuntime(int(minutes))
	}
	return d
}

// contentKind maps a provider's type string onto the two supported kinds.
// Anything that is not recognizably a series is treated as a movie.
func contentKind(t string) models.ContentKind {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "series", "tv", "tv series", "show", "tv show":
		return models.ContentKindSeries
	default:
		return models.ContentKindMovie
	}
}

// envelopeConfidence is the overall confidence reported for a response:
// the confidence of the top-ranked match, or zero when there are none.
func envelopeConfidence(items []models.ContentMatch) float64 {
	if len(items) == 0 {
		return 0
	}
	return items[0].ConfidencePercent
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

// posterURL and backdropURL produce deterministic placeholder artwork links.
// Real artwork resolution is an open integration point.
func posterURL(title string) string {
	return fmt.Sprintf("https://placehold.co/300x450?text=%s", utils.SlugifyString(title))
}

func backdropURL(title string) string {
	return fmt.Sprintf("https://placehold.co/1280x720?text=%s", utils.SlugifyString(title))
}
