package scraper

import (
	"context"
	"strings"

	"identivibe/pkg/config"
	"identivibe/pkg/item"
	"identivibe/pkg/logger"
	"identivibe/pkg/models"
	"identivibe/pkg/pipeline"
	"identivibe/pkg/sample"
)

// postFetcher is the slice of the Apify client the Instagram scraper needs.
type postFetcher interface {
	ScrapeProfilePosts(ctx context.Context, username string, limit int) ([]item.Item, error)
	ScrapePostComments(ctx context.Context, postURLs []string, limit int) ([]item.Item, error)
	ScrapeUserPosts(ctx context.Context, username string, limit int) ([]item.Item, error)
}

// Instagram harvests commenter audiences around a profile. Discovery pulls
// the seed profile's latest posts, then walks each post's comment section;
// enrichment pulls each sampled commenter's own posts for captions.
type Instagram struct {
	client  postFetcher
	cfg     config.HarvestConfig
	sampler *sample.Sampler
	logger  logger.Logger
}

// NewInstagram creates the Instagram scraper. A nil sampler gets a
// clock-seeded one.
func NewInstagram(client postFetcher, cfg config.HarvestConfig, sampler *sample.Sampler, log logger.Logger) *Instagram {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Instagram{client: client, cfg: cfg, sampler: sampler, logger: log}
}

func (s *Instagram) Platform() string { return "instagram" }

// GetPayload runs the full harvest for one profile handle or URL.
func (s *Instagram) GetPayload(ctx context.Context, target string) (*models.PlatformPayload, error) {
	handle := NormalizeHandle(target)
	s.logger.InfoWithFields("harvesting instagram audience", map[string]interface{}{
		"handle": handle,
	})

	p := pipeline.New(s, s.cfg, s.sampler, s.logger)
	result, err := p.Run(ctx, handle)
	if err != nil {
		return nil, err
	}

	return &models.PlatformPayload{
		Platform: s.Platform(),
		Seed:     handle,
		Users:    result.Users,
		Note:     skipNote(result.Skipped),
	}, nil
}

// DiscoverUsers collects the commenters across the seed profile's latest
// posts, bounded by the configured user cap.
func (s *Instagram) DiscoverUsers(ctx context.Context, seed string) (*pipeline.Discovery, error) {
	posts, err := s.client.ScrapeProfilePosts(ctx, seed, s.cfg.SeedPosts)
	if err != nil {
		return nil, err
	}

	postURLs := make([]string, 0, len(posts))
	for _, p := range posts {
		if u := p.URL(); u != "" {
			postURLs = append(postURLs, u)
		}
	}
	s.logger.InfoWithFields("seed posts fetched", map[string]interface{}{
		"handle": seed,
		"posts":  len(postURLs),
	})

	walker := pipeline.NewWalker(s.cfg.MaxUsers, s.logger)
	return walker.Walk(ctx, postURLs, func(ctx context.Context, postURL string) ([]item.Item, error) {
		return s.client.ScrapePostComments(ctx, []string{postURL}, s.cfg.CommentsPerPost)
	})
}

// UserContent fetches a sampled commenter's own posts.
func (s *Instagram) UserContent(ctx context.Context, username string, limit int) ([]item.Item, error) {
	return s.client.ScrapeUserPosts(ctx, username, limit)
}

// NormalizeHandle reduces a profile URL, @handle or bare name to the plain
// lowercase handle.
func NormalizeHandle(target string) string {
	handle := strings.TrimSpace(target)
	if idx := strings.Index(handle, "instagram.com/"); idx >= 0 {
		handle = handle[idx+len("instagram.com/"):]
		if end := strings.IndexAny(handle, "/?#"); end >= 0 {
			handle = handle[:end]
		}
	}
	handle = strings.TrimPrefix(handle, "@")
	return strings.ToLower(strings.TrimSpace(handle))
}
