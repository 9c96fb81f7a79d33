package scraper

import (
	"context"
	"fmt"
	"strings"

	"identivibe/pkg/apify"
	"identivibe/pkg/cache"
	"identivibe/pkg/config"
	errs "identivibe/pkg/errors"
	"identivibe/pkg/logger"
	"identivibe/pkg/models"
	"identivibe/pkg/reddit"
	"identivibe/pkg/youtube"
)

// Scraper harvests one platform: given a seed target it produces the
// platform's payload of enriched user bundles.
type Scraper interface {
	Platform() string
	GetPayload(ctx context.Context, target string) (*models.PlatformPayload, error)
}

// New returns the scraper for the configured platform, wiring up the
// platform's API client from config.
func New(cfg *config.Config, store *cache.Store, log logger.Logger) (Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	switch strings.ToLower(cfg.Harvest.Platform) {
	case "instagram":
		client, err := apify.NewClient(cfg.Apify, cfg.RateLimit, store, log)
		if err != nil {
			return nil, err
		}
		return NewInstagram(client, cfg.Harvest, nil, log), nil
	case "reddit":
		client, err := reddit.NewClient(cfg.Reddit, cfg.RateLimit, log)
		if err != nil {
			return nil, err
		}
		return NewReddit(client, cfg.Harvest, nil, log), nil
	case "youtube":
		client, err := youtube.NewClient(cfg.YouTube, cfg.RateLimit, log)
		if err != nil {
			return nil, err
		}
		return NewYouTube(client, cfg.Harvest, nil, log), nil
	default:
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "unknown platform: %s", cfg.Harvest.Platform)
	}
}

// Merger combines payloads from multiple platform runs into one flat field
// map. Merging is shallow and last-write-wins: when two payloads set the
// same key, the later one stands.
type Merger struct {
	fields map[string]interface{}
}

// NewMerger creates an empty Merger.
func NewMerger() *Merger {
	return &Merger{fields: make(map[string]interface{})}
}

// Add folds one payload's fields into the merge.
func (m *Merger) Add(p *models.PlatformPayload) {
	for k, v := range p.Fields() {
		m.fields[k] = v
	}
}

// Merged returns the accumulated field map.
func (m *Merger) Merged() map[string]interface{} {
	return m.fields
}

func skipNote(skipped int) string {
	if skipped == 0 {
		return ""
	}
	return fmt.Sprintf("%d sampled users skipped as private, unavailable or empty", skipped)
}
