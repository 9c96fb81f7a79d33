// Package ratelimit paces requests to remote endpoints.
//
// The pipeline's clients share one limiter per client instance, so every
// request issued through a client — including those made by concurrent
// enrichment workers — respects the same minimum inter-request delay.
// The implementation is a token bucket of one built on
// golang.org/x/time/rate.
package ratelimit
