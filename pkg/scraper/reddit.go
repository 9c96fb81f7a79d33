package scraper

import (
	"context"
	"sort"
	"strings"

	"identivibe/pkg/config"
	"identivibe/pkg/item"
	"identivibe/pkg/logger"
	"identivibe/pkg/models"
	"identivibe/pkg/pipeline"
	"identivibe/pkg/reddit"
	"identivibe/pkg/sample"
)

const histogramSize = 12

type redditFetcher interface {
	SubredditPosts(ctx context.Context, subreddit, sort string, limit int) ([]reddit.Thing, error)
	PostComments(ctx context.Context, subreddit, postID string, limit int) ([]reddit.Thing, error)
	UserComments(ctx context.Context, username string, limit int) ([]reddit.Thing, error)
	UserPosts(ctx context.Context, username string, limit int) ([]reddit.Thing, error)
}

// Reddit harvests the active audience around a subreddit. Discovery pulls
// the seed's hot and new listings, then walks each post's author and
// top-level comments; enrichment pulls each sampled user's own
// submissions, and a final pass adds a histogram of where each user is
// active site-wide.
type Reddit struct {
	client  redditFetcher
	cfg     config.HarvestConfig
	sampler *sample.Sampler
	logger  logger.Logger
}

// NewReddit creates the Reddit scraper. A nil sampler gets a clock-seeded
// one.
func NewReddit(client redditFetcher, cfg config.HarvestConfig, sampler *sample.Sampler, log logger.Logger) *Reddit {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Reddit{client: client, cfg: cfg, sampler: sampler, logger: log}
}

func (s *Reddit) Platform() string { return "reddit" }

// GetPayload runs the full harvest for one subreddit name or URL.
func (s *Reddit) GetPayload(ctx context.Context, target string) (*models.PlatformPayload, error) {
	subreddit := NormalizeSubreddit(target)
	s.logger.InfoWithFields("harvesting reddit audience", map[string]interface{}{
		"subreddit": subreddit,
	})

	p := pipeline.New(s, s.cfg, s.sampler, s.logger)
	result, err := p.Run(ctx, subreddit)
	if err != nil {
		return nil, err
	}

	s.attachHistograms(ctx, result.Users)

	return &models.PlatformPayload{
		Platform: s.Platform(),
		Seed:     subreddit,
		Users:    result.Users,
		Note:     skipNote(result.Skipped),
	}, nil
}

// DiscoverUsers collects authors across the subreddit's hot and new
// listings, split half and half, bounded by the configured user cap. Each
// post's own author is admitted before its commenters, matching reading
// order.
func (s *Reddit) DiscoverUsers(ctx context.Context, seed string) (*pipeline.Discovery, error) {
	half := (s.cfg.SeedPosts + 1) / 2
	seenPosts := make(map[string]reddit.Thing)
	var postIDs []string

	for _, sortOrder := range []string{"hot", "new"} {
		posts, err := s.client.SubredditPosts(ctx, seed, sortOrder, half)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.WarnWithFields("listing fetch failed, skipping", map[string]interface{}{
				"subreddit": seed,
				"sort":      sortOrder,
				"error":     err.Error(),
			})
			continue
		}
		for _, post := range posts {
			if post.Data.ID == "" {
				continue
			}
			if _, dup := seenPosts[post.Data.ID]; dup {
				continue
			}
			seenPosts[post.Data.ID] = post
			postIDs = append(postIDs, post.Data.ID)
		}
	}
	s.logger.InfoWithFields("seed posts fetched", map[string]interface{}{
		"subreddit": seed,
		"posts":     len(postIDs),
	})

	walker := pipeline.NewWalker(s.cfg.MaxUsers, s.logger)
	return walker.Walk(ctx, postIDs, func(ctx context.Context, postID string) ([]item.Item, error) {
		items := []item.Item{postItem(seenPosts[postID])}
		comments, err := s.client.PostComments(ctx, seed, postID, s.cfg.CommentsPerPost)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.WarnWithFields("comment fetch failed, keeping post author", map[string]interface{}{
				"post":  postID,
				"error": err.Error(),
			})
			return items, nil
		}
		return append(items, commentItems(comments)...), nil
	})
}

// UserContent fetches a sampled user's own submissions. Their titles and
// bodies serve as captions during enrichment.
func (s *Reddit) UserContent(ctx context.Context, username string, limit int) ([]item.Item, error) {
	posts, err := s.client.UserPosts(ctx, username, limit)
	if err != nil {
		return nil, err
	}
	return submissionItems(posts), nil
}

// attachHistograms annotates each final user with the subreddits they are
// most active in site-wide. Failures degrade to a missing histogram, never
// a failed harvest.
func (s *Reddit) attachHistograms(ctx context.Context, users []models.UserBundle) {
	for i := range users {
		if ctx.Err() != nil {
			return
		}
		comments, err := s.client.UserComments(ctx, users[i].Username, 100)
		if err != nil {
			s.logger.WarnWithFields("activity fetch failed, skipping histogram", map[string]interface{}{
				"username": users[i].Username,
				"error":    err.Error(),
			})
			continue
		}
		users[i].Histogram = topSubreddits(comments, histogramSize)
	}
}

// postItem maps a seed post to a discovery item: the post author with the
// title and body as text.
func postItem(t reddit.Thing) item.Item {
	text := t.Data.Title
	if t.Data.Selftext != "" {
		if text != "" {
			text += "\n\n"
		}
		text += t.Data.Selftext
	}
	return item.Item{
		"author":    t.Data.Author,
		"text":      text,
		"subreddit": t.Data.Subreddit,
		"url":       "https://www.reddit.com" + t.Data.Permalink,
	}
}

func commentItems(things []reddit.Thing) []item.Item {
	items := make([]item.Item, 0, len(things))
	for _, t := range things {
		items = append(items, item.Item{
			"author":    t.Data.Author,
			"body":      t.Data.Body,
			"subreddit": t.Data.Subreddit,
			"url":       "https://www.reddit.com" + t.Data.Permalink,
		})
	}
	return items
}

func submissionItems(things []reddit.Thing) []item.Item {
	items := make([]item.Item, 0, len(things))
	for _, t := range things {
		caption := t.Data.Title
		if t.Data.Selftext != "" {
			if caption != "" {
				caption += "\n\n"
			}
			caption += t.Data.Selftext
		}
		items = append(items, item.Item{
			"author":    t.Data.Author,
			"caption":   caption,
			"subreddit": t.Data.Subreddit,
		})
	}
	return items
}

// topSubreddits tallies the subreddits in a user's recent activity and
// returns the most frequent, count descending with name as tiebreak.
func topSubreddits(things []reddit.Thing, top int) []models.SubredditCount {
	counts := make(map[string]int)
	for _, t := range things {
		if t.Data.Subreddit != "" {
			counts[t.Data.Subreddit]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	out := make([]models.SubredditCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.SubredditCount{Subreddit: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Subreddit < out[j].Subreddit
	})
	if len(out) > top {
		out = out[:top]
	}
	return out
}

// NormalizeSubreddit reduces a subreddit URL or r/ prefixed name to the
// bare name.
func NormalizeSubreddit(target string) string {
	name := strings.TrimSpace(target)
	if idx := strings.Index(name, "reddit.com/"); idx >= 0 {
		name = name[idx+len("reddit.com/"):]
	}
	name = strings.TrimPrefix(name, "r/")
	if end := strings.IndexAny(name, "/?#"); end >= 0 {
		name = name[:end]
	}
	return strings.TrimSpace(name)
}
