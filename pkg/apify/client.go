package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"identivibe/pkg/cache"
	"identivibe/pkg/config"
	errs "identivibe/pkg/errors"
	"identivibe/pkg/item"
	"identivibe/pkg/logger"
	"identivibe/pkg/ratelimit"
	"identivibe/pkg/retry"
)

// Client is a rate-limited, retrying, cache-aware transport for the Apify
// job API: submit a job, poll until a terminal state, then page the result
// set. One client enforces one global minimum inter-request delay across
// every call it issues, including calls from concurrent workers.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	actorID    string

	limiter  ratelimit.Limiter
	store    *cache.Store
	logger   logger.Logger
	flight   singleflight.Group
	retryCfg config.RateLimitConfig

	pollInterval time.Duration
	maxWait      time.Duration
}

// NewClient creates an Apify client. A missing token is an auth error:
// nothing this client does works anonymously.
func NewClient(cfg config.ApifyConfig, rl config.RateLimitConfig, store *cache.Store, log logger.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, errs.New(errs.ErrorTypeAuth, 0, "no API token configured")
	}
	if log == nil {
		log = logger.GetLogger()
	}
	if store == nil {
		var err error
		store, err = cache.New("", false, log)
		if err != nil {
			return nil, err
		}
	}

	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		baseURL:      cfg.BaseURL,
		token:        cfg.Token,
		actorID:      cfg.ActorID,
		limiter:      ratelimit.NewMinGap(rl.MinRequestGap),
		store:        store,
		logger:       log,
		retryCfg:     rl,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
	}, nil
}

// SubmitJob starts a remote job for the given spec. When the cache already
// holds a result for the spec's deterministic key, a synthetic handle is
// returned without any network call.
func (c *Client) SubmitJob(ctx context.Context, spec JobSpec) (JobHandle, error) {
	key := cache.Key(spec.ActorID, spec.Input)

	var cached []item.Item
	if c.store.Get(key, &cached) {
		c.logger.InfoWithFields("using cached results", map[string]interface{}{
			"actor": spec.ActorID,
			"key":   key,
		})
		return JobHandle{CacheKey: key, Cached: true}, nil
	}

	c.logger.InfoWithFields("starting actor run", map[string]interface{}{
		"actor": spec.ActorID,
	})

	var env runEnvelope
	endpoint := fmt.Sprintf("%s/acts/%s/runs", c.baseURL, spec.ActorID)
	if err := c.doJSON(ctx, http.MethodPost, endpoint, nil, spec.Input, &env); err != nil {
		return JobHandle{}, err
	}

	c.logger.InfoWithFields("actor run started", map[string]interface{}{
		"run_id": env.Data.ID,
	})
	return JobHandle{RunID: env.Data.ID, CacheKey: key}, nil
}

// AwaitResult polls the job until a terminal state, one blocking request
// per pollInterval. A synthetic handle resolves immediately. Remote
// failure or abort yields a job_failed error; exceeding maxWait wall-clock
// yields job_timeout.
func (c *Client) AwaitResult(ctx context.Context, handle JobHandle, pollInterval, maxWait time.Duration) (ResultRef, error) {
	if handle.Cached {
		return ResultRef{CacheKey: handle.CacheKey, Cached: true}, nil
	}

	endpoint := fmt.Sprintf("%s/actor-runs/%s", c.baseURL, handle.RunID)
	deadline := time.Now().Add(maxWait)

	for {
		if time.Now().After(deadline) {
			return ResultRef{}, errs.New(errs.ErrorTypeJobTimeout, 0,
				"run %s timed out after %s", handle.RunID, maxWait)
		}

		var env runEnvelope
		if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, nil, &env); err != nil {
			return ResultRef{}, err
		}

		switch env.Data.Status {
		case statusSucceeded:
			c.logger.InfoWithFields("run completed", map[string]interface{}{
				"run_id":  handle.RunID,
				"dataset": env.Data.DefaultDatasetID,
			})
			return ResultRef{DatasetID: env.Data.DefaultDatasetID, CacheKey: handle.CacheKey}, nil
		case statusFailed, statusAborted, statusTimedOut:
			return ResultRef{}, errs.New(errs.ErrorTypeJobFailed, 0,
				"run %s ended with status %s", handle.RunID, env.Data.Status)
		}

		c.logger.DebugWithFields("run still in progress", map[string]interface{}{
			"run_id": handle.RunID,
			"status": env.Data.Status,
		})

		if err := retry.Wait(ctx, pollInterval); err != nil {
			return ResultRef{}, err
		}
	}
}

// FetchItems retrieves a page of the result set. A cached ref slices the
// local entry. A full remote fetch (no limit, no offset) is persisted to
// cache under the originating job-spec key.
func (c *Client) FetchItems(ctx context.Context, ref ResultRef, limit, offset int) ([]item.Item, error) {
	if ref.Cached {
		var items []item.Item
		if !c.store.Get(ref.CacheKey, &items) {
			return nil, errs.New(errs.ErrorTypeNotFound, 0, "cache miss for key %s", ref.CacheKey)
		}
		return sliceItems(items, limit, offset), nil
	}

	endpoint := fmt.Sprintf("%s/datasets/%s/items", c.baseURL, ref.DatasetID)
	query := url.Values{"format": {"json"}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var items []item.Item
	if err := c.doJSON(ctx, http.MethodGet, endpoint, query, nil, &items); err != nil {
		return nil, err
	}

	c.logger.InfoWithFields("retrieved dataset items", map[string]interface{}{
		"dataset": ref.DatasetID,
		"count":   len(items),
	})

	if limit <= 0 && offset <= 0 && ref.CacheKey != "" {
		c.store.Put(ref.CacheKey, items)
	}

	return items, nil
}

// RunAndFetch submits a job, waits for it and fetches the full result.
// Concurrent calls with the same cache key collapse to one in-flight
// remote job; the other callers wait for and share its result.
func (c *Client) RunAndFetch(ctx context.Context, spec JobSpec) ([]item.Item, error) {
	key := cache.Key(spec.ActorID, spec.Input)

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		handle, err := c.SubmitJob(ctx, spec)
		if err != nil {
			return nil, err
		}
		ref, err := c.AwaitResult(ctx, handle, c.pollInterval, c.maxWait)
		if err != nil {
			return nil, err
		}
		return c.FetchItems(ctx, ref, 0, 0)
	})
	if err != nil {
		return nil, err
	}
	return v.([]item.Item), nil
}

// ScrapeProfilePosts fetches a profile's latest posts.
func (c *Client) ScrapeProfilePosts(ctx context.Context, username string, limit int) ([]item.Item, error) {
	return c.RunAndFetch(ctx, JobSpec{
		ActorID: c.actorID,
		Input: map[string]interface{}{
			"directUrls":   []interface{}{"https://www.instagram.com/" + username + "/"},
			"resultsType":  "posts",
			"resultsLimit": limit,
		},
	})
}

// ScrapePostComments fetches comments across the given post URLs.
func (c *Client) ScrapePostComments(ctx context.Context, postURLs []string, limit int) ([]item.Item, error) {
	urls := make([]interface{}, len(postURLs))
	for i, u := range postURLs {
		urls[i] = u
	}
	return c.RunAndFetch(ctx, JobSpec{
		ActorID: c.actorID,
		Input: map[string]interface{}{
			"directUrls":   urls,
			"resultsType":  "comments",
			"resultsLimit": limit,
		},
	})
}

// ScrapeUserPosts fetches a sampled user's latest posts for caption
// extraction. Same job shape as a profile scrape.
func (c *Client) ScrapeUserPosts(ctx context.Context, username string, limit int) ([]item.Item, error) {
	return c.ScrapeProfilePosts(ctx, username, limit)
}

// doJSON issues one HTTP request with rate limiting and retry, decoding
// the response into out. Each attempt waits on the shared limiter first.
// Retryable statuses are 429, 5xx, and the sporadic 401/403 gates; on
// exhaustion the last typed HTTP error surfaces unmodified.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, query url.Values, body interface{}, out interface{}) error {
	cfg := retry.HTTPConfig(ctx, c.retryCfg.MaxRetries,
		c.retryCfg.BackoffBase, c.retryCfg.BackoffMax, c.retryCfg.BackoffMultiplier, c.logger)

	return retry.Do(func() error {
		return c.doOnce(ctx, method, endpoint, query, body, out)
	}, cfg)
}

func (c *Client) doOnce(ctx context.Context, method, endpoint string, query url.Values, body interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("token", c.token)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errs.New(errs.ErrorTypeParsing, 0, "failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint+"?"+query.Encode(), reader)
	if err != nil {
		return errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

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
		"method":   method,
		"url":      endpoint,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.FromStatusCode(resp.StatusCode, fmt.Sprintf("%s %s", method, endpoint))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.New(errs.ErrorTypeTransport, resp.StatusCode, "failed to read response body: %v", err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errs.New(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse response: %v", err)
	}
	return nil
}

func sliceItems(items []item.Item, limit, offset int) []item.Item {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
