package identify

import (
	"fmt"
	"math/rand"
	"net/url"

	"github.com/samber/lo"

	"norelock.dev/reelid/backend/internal/models"
	"norelock.dev/reelid/backend/internal/utils"
)

// availabilityOdds is the probability that a match is marked available on any
// given platform. The draw is independent per platform per call.
const availabilityOdds = 0.5

// streamingPlatform is one entry in the static platform catalog.
type streamingPlatform struct {
	// Name is the platform display name.
	Name string
	// Glyph is a short identifier used by UIs in place of a logo.
	Glyph string
	// SearchURL is a format string that takes a URL-escaped title.
	SearchURL string
	// Subscription indicates the platform requires a paid subscription.
	Subscription bool
}

// platformCatalog is the fixed set of platforms availability is generated for.
var platformCatalog = []streamingPlatform{
	{Name: "Netflix", Glyph: "N", SearchURL: "https://www.netflix.com/search?q=%s", Subscription: true},
	{Name: "Prime Video", Glyph: "PV", SearchURL: "https://www.primevideo.com/search?phrase=%s", Subscription: true},
	{Name: "Disney+", Glyph: "D+", SearchURL: "https://www.disneyplus.com/search?q=%s", Subscription: true},
	{Name: "Max", Glyph: "MX", SearchURL: "https://play.max.com/search?q=%s", Subscription: true},
	{Name: "Apple TV+", Glyph: "TV", SearchURL: "https://tv.apple.com/search?term=%s", Subscription: true},
	{Name: "Hulu", Glyph: "H", SearchURL: "https://www.hulu.com/search?q=%s", Subscription: true},
	{Name: "Tubi", Glyph: "TB", SearchURL: "https://tubitv.com/search/%s", Subscription: false},
}

// Enhancer attaches streaming availability to identification results. The
// availability is drawn at random, not fetched from any catalog, and every
// record it produces is flagged synthetic so callers cannot mistake it for
// real data.
type Enhancer struct {
	logger   *utils.Logger
	catalog  []streamingPlatform
	randomly func() float64
}

// NewEnhancer creates a result enhancer over the built-in platform catalog.
func NewEnhancer(logger *utils.Logger) *Enhancer {
	return &Enhancer{
		logger:   logger.Named("enhancer"),
		catalog:  platformCatalog,
		randomly: rand.Float64,
	}
}

// Enhance populates Platforms on every match in the response, in place.
// Fallback responses carry no items and pass through untouched.
func (e *Enhancer) Enhance(resp *models.IdentificationResponse) {
	if resp == nil {
		return
	}
	for i := range resp.Items {
		resp.Items[i].Platforms = e.platformsFor(resp.Items[i].Title)
	}
}

// platformsFor draws availability for one title across the whole catalog.
func (e *Enhancer) platformsFor(title string) []models.PlatformAvailability {
	escaped := url.QueryEscape(title)
	return lo.Map(e.catalog, func(p streamingPlatform, _ int) models.PlatformAvailability {
		record := models.PlatformAvailability{
			PlatformName:        p.Name,
			IconGlyph:           p.Glyph,
			IsAvailable:         e.randomly() < availabilityOdds,
			IsSubscriptionBased: p.Subscription,
			Synthetic:           true,
		}
		if record.IsAvailable {
			record.DeepLink = fmt.Sprintf(p.SearchURL, escaped)
		}
		return record
	})
}
