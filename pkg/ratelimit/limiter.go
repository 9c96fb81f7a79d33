package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing requests.
type Limiter interface {
	// Wait blocks until the next request is allowed or the context ends.
	Wait(ctx context.Context) error
}

// MinGap enforces a minimum delay between consecutive requests issued
// through one client instance: each request checks the time elapsed since
// the previous one and sleeps the remainder of the gap. This protects
// against anonymous-access throttling on endpoints with no explicit quota
// contract.
type MinGap struct {
	limiter *rate.Limiter
}

// NewMinGap creates a limiter enforcing the given gap between requests.
// A non-positive gap disables pacing.
func NewMinGap(gap time.Duration) *MinGap {
	if gap <= 0 {
		return &MinGap{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &MinGap{limiter: rate.NewLimiter(rate.Every(gap), 1)}
}

// Wait blocks until the gap since the previous request has elapsed.
func (m *MinGap) Wait(ctx context.Context) error {
	return m.limiter.Wait(ctx)
}

// PerMinute creates a limiter allowing n requests per minute with a burst
// of one, for endpoints that publish an explicit quota.
func PerMinute(n int) *MinGap {
	if n <= 0 {
		return NewMinGap(0)
	}
	return &MinGap{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)}
}
