package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces outgoing requests to cloud providers. A nil limiter
// never blocks, so adapters can treat rate limiting as optional.
type RateLimiter struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerMinute calls.
// Returns nil (unlimited) when requestsPerMinute is not positive.
func NewRateLimiter(requestsPerMinute float64) *RateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		interval: time.Duration(float64(time.Minute) / requestsPerMinute),
	}
}

// Wait blocks until the rate limit allows the next request
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}

	rl.mu.Lock()
	now := time.Now()
	wait := rl.next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	rl.next = now.Add(wait + rl.interval)
	rl.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
