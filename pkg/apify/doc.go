// Package apify provides reliable access to the Apify job API: submit a
// scrape job, poll it to a terminal state, then page its result set.
//
// The client layers three protections over plain HTTP:
//
//   - a global minimum inter-request delay shared by every call issued
//     through one client instance
//   - exponential-backoff retry on 429, 5xx and sporadic 401/403 gates,
//     surfacing the last observed error unmodified on exhaustion
//   - a content-addressed result cache keyed by the job spec, with
//     concurrent identical jobs collapsed to a single in-flight run
//
// Jobs are assumed idempotent: a cache hit is treated as equivalent to a
// fresh run with the same parameters.
package apify
