// Package retry provides exponential backoff and retry logic for handling
// transient failures in remote API calls.
//
// The retry predicate understands the typed errors produced by the remote
// clients: rate limits, server errors and sporadic anonymous-access auth
// gates are retried; parsing errors, missing resources and terminal job
// states are not. On exhaustion the last observed error is surfaced
// unmodified so callers can still inspect its type and status code.
//
// Basic usage:
//
//	cfg := retry.HTTPConfig(ctx, 3, time.Second, time.Minute, 2.0, log)
//	err := retry.Do(func() error {
//		return client.fetchPage(ctx, url)
//	}, cfg)
package retry
