package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"identivibe/pkg/config"
	errs "identivibe/pkg/errors"
	"identivibe/pkg/logger"
	"identivibe/pkg/ratelimit"
	"identivibe/pkg/retry"
)

// Client talks to the YouTube Data API v3 with key-based access: resolve a
// channel handle, list its most viewed videos, read their comment threads
// and batch-look-up commenter topic categories.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    ratelimit.Limiter
	retryCfg   config.RateLimitConfig
	logger     logger.Logger
}

// NewClient creates a YouTube Data API client. The API key is mandatory.
func NewClient(cfg config.YouTubeConfig, rl config.RateLimitConfig, log logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errs.New(errs.ErrorTypeAuth, 0, "no YouTube API key configured")
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		limiter:    ratelimit.NewMinGap(rl.MinRequestGap),
		retryCfg:   rl,
		logger:     log,
	}, nil
}

// ChannelID resolves a channel handle (with or without leading @) to a
// channel id via the search endpoint.
func (c *Client) ChannelID(ctx context.Context, handle string) (string, error) {
	if !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}

	var res searchResponse
	query := url.Values{
		"q":    {handle},
		"type": {"channel"},
		"part": {"id"},
	}
	if err := c.getJSON(ctx, "/search", query, &res); err != nil {
		return "", err
	}
	if len(res.Items) == 0 {
		return "", errs.New(errs.ErrorTypeNotFound, 0, "no channel found for handle %s", handle)
	}
	return res.Items[0].ID.ChannelID, nil
}

// PopularVideoIDs lists the channel's most viewed videos.
func (c *Client) PopularVideoIDs(ctx context.Context, channelID string, limit int) ([]string, error) {
	var res searchResponse
	query := url.Values{
		"channelId":  {channelID},
		"part":       {"id"},
		"order":      {"viewCount"},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(limit)},
	}
	if err := c.getJSON(ctx, "/search", query, &res); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	return ids, nil
}

// VideoComments fetches top-level comment threads for one video.
func (c *Client) VideoComments(ctx context.Context, videoID string, limit int) ([]CommentThread, error) {
	var res commentThreadsResponse
	query := url.Values{
		"videoId":    {videoID},
		"part":       {"snippet"},
		"maxResults": {strconv.Itoa(limit)},
		"textFormat": {"plainText"},
	}
	if err := c.getJSON(ctx, "/commentThreads", query, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// UserTopics batch-fetches topic categories for commenter channels and
// cleans the Wikipedia category URLs into readable labels. One request
// covers the whole batch to save quota.
func (c *Client) UserTopics(ctx context.Context, channelIDs []string) (map[string][]string, error) {
	if len(channelIDs) == 0 {
		return map[string][]string{}, nil
	}

	var res channelsResponse
	query := url.Values{
		"part": {"topicDetails"},
		"id":   {strings.Join(channelIDs, ",")},
	}
	if err := c.getJSON(ctx, "/channels", query, &res); err != nil {
		return nil, err
	}

	topics := make(map[string][]string, len(res.Items))
	for _, ch := range res.Items {
		labels := make([]string, 0, len(ch.TopicDetails.TopicCategories))
		for _, cat := range ch.TopicDetails.TopicCategories {
			if idx := strings.LastIndex(cat, "/"); idx >= 0 {
				cat = cat[idx+1:]
			}
			labels = append(labels, strings.ReplaceAll(cat, "_", " "))
		}
		topics[ch.ID] = labels
	}
	return topics, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	cfg := retry.HTTPConfig(ctx, c.retryCfg.MaxRetries,
		c.retryCfg.BackoffBase, c.retryCfg.BackoffMax, c.retryCfg.BackoffMultiplier, c.logger)

	return retry.Do(func() error {
		return c.getOnce(ctx, path, query, out)
	}, cfg)
}

func (c *Client) getOnce(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	q := url.Values{}
	for k, vs := range query {
		q[k] = vs
	}
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.New(errs.ErrorTypeTransport, 0, "network error: %v", err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("request completed", map[string]interface{}{
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode != http.StatusOK {
		return errs.FromStatusCode(resp.StatusCode, fmt.Sprintf("GET %s", path))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.New(errs.ErrorTypeTransport, resp.StatusCode, "failed to read response body: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errs.New(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse response: %v", err)
	}
	return nil
}
