package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// unlimited stands in for rate.Inf, whose zero-burst edge cases make Wait
// fail instead of pass.
const unlimited = 1_000_000_000

// RateLimiter throttles the dispatch of bridge operations.
//
// It wraps a golang.org/x/time/rate token bucket: a host that floods the
// bridge (an editor re-statting a whole project tree, say) is spread out at
// opsPerSecond after the first burst operations, rather than spawning an
// unbounded number of concurrent storage calls.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter admitting opsPerSecond operations on average
// and up to burst at once.
//
// Special cases:
//   - opsPerSecond = 0: no limit
//   - burst = 0 with a limit: burst of 1, so Wait can ever succeed
func New(opsPerSecond, burst uint) *RateLimiter {
	if opsPerSecond == 0 {
		opsPerSecond = unlimited
		burst = unlimited
	}
	if burst == 0 {
		burst = 1
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(opsPerSecond), int(burst)),
	}
}

// Allow consumes a token if one is available, without waiting.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// SetLimit changes the sustained rate (0 = no limit). The burst is kept.
func (r *RateLimiter) SetLimit(opsPerSecond uint) {
	if opsPerSecond == 0 {
		opsPerSecond = unlimited
	}
	r.limiter.SetLimit(rate.Limit(opsPerSecond))
}

// Tokens returns the tokens currently available, for diagnostics.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
