// internal/github/ratelimit.go
package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"

	// minRemaining is the quota kept in reserve before waiting for the reset.
	minRemaining = 50
)

// RateLimiter throttles upstream calls with a token bucket and pauses when
// GitHub reports the hourly quota is nearly spent.
type RateLimiter struct {
	bucket *rate.Limiter

	mu        sync.Mutex
	remaining int
	resetAt   time.Time
}

// NewRateLimiter allows rps requests per second with the given burst.
// A non-positive rps disables proactive throttling.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		bucket:    rate.NewLimiter(limit, burst),
		remaining: -1,
	}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	remaining, resetAt := r.remaining, r.resetAt
	r.mu.Unlock()

	if remaining >= 0 && remaining < minRemaining && time.Now().Before(resetAt) {
		timer := time.NewTimer(time.Until(resetAt))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Observe records the quota headers of a response.
func (r *RateLimiter) Observe(resp *http.Response) {
	if resp == nil {
		return
	}
	remaining, err := strconv.Atoi(resp.Header.Get(headerRateRemaining))
	if err != nil {
		return
	}
	reset, err := strconv.ParseInt(resp.Header.Get(headerRateReset), 10, 64)
	if err != nil {
		return
	}

	r.mu.Lock()
	r.remaining = remaining
	r.resetAt = time.Unix(reset, 0)
	r.mu.Unlock()
}

// Remaining returns the last reported quota, or -1 if none was seen.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}
