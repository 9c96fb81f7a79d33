package apify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"identivibe/pkg/cache"
	"identivibe/pkg/config"
	errs "identivibe/pkg/errors"
)

func testConfigs(baseURL string) (config.ApifyConfig, config.RateLimitConfig) {
	apifyCfg := config.ApifyConfig{
		Token:        "test-token",
		ActorID:      "test~actor",
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		PollInterval: time.Millisecond,
		MaxWait:      time.Second,
	}
	rl := config.RateLimitConfig{
		MinRequestGap:     0,
		MaxRetries:        3,
		BackoffBase:       time.Millisecond,
		BackoffMax:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
	return apifyCfg, rl
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	store, err := cache.New(t.TempDir(), true, nil)
	if err != nil {
		t.Fatal(err)
	}
	apifyCfg, rl := testConfigs(baseURL)
	client, err := NewClient(apifyCfg, rl, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

// fakeAPI simulates the job API: run creation, status polling and dataset
// paging, counting every request.
func fakeAPI(t *testing.T, items []map[string]interface{}) (*httptest.Server, *int64) {
	t.Helper()
	var requests int64

	mux := http.NewServeMux()
	mux.HandleFunc("/acts/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"id": "run-1", "status": "RUNNING"},
		})
	})
	mux.HandleFunc("/actor-runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id": "run-1", "status": "SUCCEEDED", "defaultDatasetId": "ds-1",
			},
		})
	})
	mux.HandleFunc("/datasets/ds-1/items", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		json.NewEncoder(w).Encode(items)
	})

	return httptest.NewServer(mux), &requests
}

func TestNewClientRequiresToken(t *testing.T) {
	cfg, rl := testConfigs("http://localhost")
	cfg.Token = ""

	_, err := NewClient(cfg, rl, nil, nil)
	var apiErr *errs.Error
	if !errors.As(err, &apiErr) || apiErr.Type != errs.ErrorTypeAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestRunAndFetchFullFlow(t *testing.T) {
	items := []map[string]interface{}{
		{"ownerUsername": "alice", "text": "first"},
		{"ownerUsername": "bob", "text": "second"},
	}
	server, _ := fakeAPI(t, items)
	defer server.Close()

	client := newTestClient(t, server.URL)
	got, err := client.RunAndFetch(context.Background(), JobSpec{
		ActorID: "test~actor",
		Input:   map[string]interface{}{"resultsLimit": 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Author() != "alice" {
		t.Errorf("unexpected items: %+v", got)
	}
}

// A second identical submission must resolve from cache without any
// further network traffic, with byte-identical items.
func TestIdempotentCaching(t *testing.T) {
	items := []map[string]interface{}{{"ownerUsername": "alice", "text": "hello"}}
	server, requests := fakeAPI(t, items)
	defer server.Close()

	client := newTestClient(t, server.URL)
	spec := JobSpec{ActorID: "test~actor", Input: map[string]interface{}{"resultsLimit": 1}}
	ctx := context.Background()

	first, err := client.RunAndFetch(ctx, spec)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	requestsAfterFirst := atomic.LoadInt64(requests)

	handle, err := client.SubmitJob(ctx, spec)
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	if !handle.Cached {
		t.Fatal("expected a synthetic cached handle on the second submit")
	}
	ref, err := client.AwaitResult(ctx, handle, time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("await on cached handle failed: %v", err)
	}
	second, err := client.FetchItems(ctx, ref, 0, 0)
	if err != nil {
		t.Fatalf("fetch on cached ref failed: %v", err)
	}

	if atomic.LoadInt64(requests) != requestsAfterFirst {
		t.Errorf("cached resolution issued network requests: %d -> %d",
			requestsAfterFirst, atomic.LoadInt64(requests))
	}

	firstJSON, _ := json.Marshal(first)
	secondJSON, _ := json.Marshal(second)
	if string(firstJSON) != string(secondJSON) {
		t.Errorf("cached items differ from original: %s vs %s", firstJSON, secondJSON)
	}
}

func TestCachedHandleString(t *testing.T) {
	h := JobHandle{CacheKey: "abc123", Cached: true}
	if h.String() != "cached:abc123" {
		t.Errorf("unexpected synthetic token %q", h.String())
	}
}

func TestFetchItemsSlicesCachedEntry(t *testing.T) {
	items := []map[string]interface{}{
		{"text": "a"}, {"text": "b"}, {"text": "c"}, {"text": "d"},
	}
	server, _ := fakeAPI(t, items)
	defer server.Close()

	client := newTestClient(t, server.URL)
	spec := JobSpec{ActorID: "test~actor", Input: map[string]interface{}{"n": 1}}
	ctx := context.Background()

	if _, err := client.RunAndFetch(ctx, spec); err != nil {
		t.Fatal(err)
	}

	ref := ResultRef{CacheKey: cache.Key(spec.ActorID, spec.Input), Cached: true}
	page, err := client.FetchItems(ctx, ref, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].Text() != "b" || page[1].Text() != "c" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestAwaitResultJobFailed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/actor-runs/run-9", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"id": "run-9", "status": "FAILED"},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.AwaitResult(context.Background(), JobHandle{RunID: "run-9"}, time.Millisecond, time.Second)

	var apiErr *errs.Error
	if !errors.As(err, &apiErr) || apiErr.Type != errs.ErrorTypeJobFailed {
		t.Fatalf("expected job_failed, got %v", err)
	}
}

func TestAwaitResultTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/actor-runs/run-slow", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"id": "run-slow", "status": "RUNNING"},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.AwaitResult(context.Background(), JobHandle{RunID: "run-slow"},
		time.Millisecond, 20*time.Millisecond)

	var apiErr *errs.Error
	if !errors.As(err, &apiErr) || apiErr.Type != errs.ErrorTypeJobTimeout {
		t.Fatalf("expected job_timeout, got %v", err)
	}
}

// maxRetries=3 against a permanent 503 means exactly 4 requests before the
// transport error surfaces.
func TestRetryExhaustionRequestCount(t *testing.T) {
	var requests int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.SubmitJob(context.Background(), JobSpec{
		ActorID: "test~actor",
		Input:   map[string]interface{}{"n": 1},
	})

	if got := atomic.LoadInt64(&requests); got != 4 {
		t.Errorf("expected exactly 4 requests (1 + 3 retries), got %d", got)
	}

	var apiErr *errs.Error
	if !errors.As(err, &apiErr) || apiErr.Type != errs.ErrorTypeTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
	if apiErr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status preserved, got %d", apiErr.Code)
	}
}

func TestRateLimitSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	store, _ := cache.New(t.TempDir(), true, nil)
	apifyCfg, rl := testConfigs(server.URL)
	rl.MaxRetries = 0
	client, err := NewClient(apifyCfg, rl, store, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.SubmitJob(context.Background(), JobSpec{
		ActorID: "test~actor",
		Input:   map[string]interface{}{"n": 1},
	})

	var apiErr *errs.Error
	if !errors.As(err, &apiErr) || apiErr.Type != errs.ErrorTypeRateLimit {
		t.Fatalf("expected rate_limit surfaced, got %v", err)
	}
}
