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
	"identivibe/pkg/youtube"
)

type youtubeFetcher interface {
	ChannelID(ctx context.Context, handle string) (string, error)
	PopularVideoIDs(ctx context.Context, channelID string, limit int) ([]string, error)
	VideoComments(ctx context.Context, videoID string, limit int) ([]youtube.CommentThread, error)
	UserTopics(ctx context.Context, channelIDs []string) (map[string][]string, error)
}

// YouTube harvests commenter audiences around a channel. Discovery pulls
// the channel's most viewed videos and walks their comment threads;
// enrichment looks up each sampled commenter's declared topic categories.
type YouTube struct {
	client  youtubeFetcher
	cfg     config.HarvestConfig
	sampler *sample.Sampler
	logger  logger.Logger

	// display name to channel id, filled during discovery and read-only
	// from then on.
	channels map[string]string
}

// NewYouTube creates the YouTube scraper. A nil sampler gets a clock-seeded
// one.
func NewYouTube(client youtubeFetcher, cfg config.HarvestConfig, sampler *sample.Sampler, log logger.Logger) *YouTube {
	if log == nil {
		log = logger.GetLogger()
	}
	return &YouTube{
		client:   client,
		cfg:      cfg,
		sampler:  sampler,
		logger:   log,
		channels: make(map[string]string),
	}
}

func (s *YouTube) Platform() string { return "youtube" }

// GetPayload runs the full harvest for one channel handle.
func (s *YouTube) GetPayload(ctx context.Context, target string) (*models.PlatformPayload, error) {
	handle := strings.TrimSpace(target)
	s.logger.InfoWithFields("harvesting youtube audience", map[string]interface{}{
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

// DiscoverUsers collects commenters across the channel's most viewed
// videos, bounded by the configured user cap.
func (s *YouTube) DiscoverUsers(ctx context.Context, seed string) (*pipeline.Discovery, error) {
	channelID, err := s.client.ChannelID(ctx, seed)
	if err != nil {
		return nil, err
	}
	videoIDs, err := s.client.PopularVideoIDs(ctx, channelID, s.cfg.SeedPosts)
	if err != nil {
		return nil, err
	}
	s.logger.InfoWithFields("seed videos fetched", map[string]interface{}{
		"channel": channelID,
		"videos":  len(videoIDs),
	})

	walker := pipeline.NewWalker(s.cfg.MaxUsers, s.logger)
	return walker.Walk(ctx, videoIDs, func(ctx context.Context, videoID string) ([]item.Item, error) {
		threads, err := s.client.VideoComments(ctx, videoID, s.cfg.CommentsPerPost)
		if err != nil {
			return nil, err
		}
		return s.threadItems(threads), nil
	})
}

// UserContent resolves a sampled commenter to their channel and returns
// the channel's declared topic categories as captions. Commenters without
// a resolvable channel or without topics end up skipped.
func (s *YouTube) UserContent(ctx context.Context, username string, limit int) ([]item.Item, error) {
	channelID, ok := s.channels[username]
	if !ok {
		return nil, nil
	}
	topics, err := s.client.UserTopics(ctx, []string{channelID})
	if err != nil {
		return nil, err
	}

	labels := topics[channelID]
	if limit > 0 && limit < len(labels) {
		labels = labels[:limit]
	}
	items := make([]item.Item, 0, len(labels))
	for _, label := range labels {
		items = append(items, item.Item{
			"author":  username,
			"caption": label,
		})
	}
	return items, nil
}

// threadItems converts comment threads to items, remembering each
// commenter's channel id for enrichment lookups.
func (s *YouTube) threadItems(threads []youtube.CommentThread) []item.Item {
	items := make([]item.Item, 0, len(threads))
	for _, t := range threads {
		name := t.DisplayName()
		if name != "" && t.Author() != "" {
			if _, known := s.channels[name]; !known {
				s.channels[name] = t.Author()
			}
		}
		items = append(items, item.Item{
			"author": name,
			"text":   t.Text(),
		})
	}
	return items
}
