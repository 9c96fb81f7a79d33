package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"identivibe/pkg/config"
	errs "identivibe/pkg/errors"
	"identivibe/pkg/logger"
	"identivibe/pkg/ratelimit"
	"identivibe/pkg/retry"
)

// Client reads Reddit's public JSON endpoints anonymously. No OAuth, no
// API keys; access is best-effort and may be throttled, so every request
// goes through the shared minimum-gap limiter and the standard retry
// policy. Sporadic 403s from anonymous gating are retried like 5xx.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    ratelimit.Limiter
	retryCfg   config.RateLimitConfig
	logger     logger.Logger
}

// NewClient creates a public-endpoint client. The user agent is mandatory:
// Reddit rejects anonymous requests without a descriptive one.
func NewClient(cfg config.RedditConfig, rl config.RateLimitConfig, log logger.Logger) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, errs.New(errs.ErrorTypeAuth, 0, "user agent is required for public access")
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		limiter:    ratelimit.NewMinGap(rl.MinRequestGap),
		retryCfg:   rl,
		logger:     log,
	}, nil
}

// SubredditPosts fetches one page of a subreddit under the given sort
// ("hot", "new", "top").
func (c *Client) SubredditPosts(ctx context.Context, subreddit, sort string, limit int) ([]Thing, error) {
	var listing Listing
	path := fmt.Sprintf("/r/%s/%s.json", subreddit, sort)
	if err := c.getJSON(ctx, path, limit, &listing); err != nil {
		return nil, err
	}
	return listing.Data.Children, nil
}

// PostComments fetches the comments of one post, top level only.
func (c *Client) PostComments(ctx context.Context, subreddit, postID string, limit int) ([]Thing, error) {
	path := fmt.Sprintf("/r/%s/comments/%s.json", subreddit, postID)
	data, err := c.get(ctx, path, limit)
	if err != nil {
		return nil, err
	}
	things, err := decodeCommentsPage(data)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, 0, "failed to parse comments page: %v", err)
	}
	return things, nil
}

// UserComments fetches a user's most recent comments across all subreddits.
func (c *Client) UserComments(ctx context.Context, username string, limit int) ([]Thing, error) {
	var listing Listing
	path := fmt.Sprintf("/user/%s/comments.json", username)
	if err := c.getJSON(ctx, path, limit, &listing); err != nil {
		return nil, err
	}
	return listing.Data.Children, nil
}

// UserPosts fetches a user's most recent submissions across all subreddits.
func (c *Client) UserPosts(ctx context.Context, username string, limit int) ([]Thing, error) {
	var listing Listing
	path := fmt.Sprintf("/user/%s/submitted.json", username)
	if err := c.getJSON(ctx, path, limit, &listing); err != nil {
		return nil, err
	}
	return listing.Data.Children, nil
}

func (c *Client) getJSON(ctx context.Context, path string, limit int, out interface{}) error {
	data, err := c.get(ctx, path, limit)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errs.New(errs.ErrorTypeParsing, 0, "failed to parse %s: %v", path, err)
	}
	return nil
}

// get issues one rate-limited GET with retry, returning the raw body.
func (c *Client) get(ctx context.Context, path string, limit int) ([]byte, error) {
	cfg := retry.HTTPConfig(ctx, c.retryCfg.MaxRetries,
		c.retryCfg.BackoffBase, c.retryCfg.BackoffMax, c.retryCfg.BackoffMultiplier, c.logger)

	return retry.DoWithResult(func() ([]byte, error) {
		return c.getOnce(ctx, path, limit)
	}, cfg)
}

func (c *Client) getOnce(ctx context.Context, path string, limit int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.New(errs.ErrorTypeTransport, 0, "network error: %v", err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("request completed", map[string]interface{}{
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errs.FromStatusCode(resp.StatusCode, "GET "+path)
	}

	return io.ReadAll(resp.Body)
}
