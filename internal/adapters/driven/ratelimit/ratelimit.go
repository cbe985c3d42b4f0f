// Package ratelimit throttles outbound requests to remote services.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBackoff is applied after a 429 without a usable Retry-After header.
const DefaultBackoff = 30 * time.Second

// Limiter is a token bucket with an extra backoff window set after the
// remote side answers 429.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// New creates a limiter allowing rps sustained requests per second.
// A non-positive rps disables throttling.
func New(rps float64) *Limiter {
	if rps <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a request may be sent.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// Observe inspects a response and starts a backoff window on 429.
func (l *Limiter) Observe(resp *http.Response) {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return
	}
	l.Backoff(RetryAfter(resp.Header.Get("Retry-After")))
}

// Backoff blocks new requests for d. A non-positive d uses DefaultBackoff.
func (l *Limiter) Backoff(d time.Duration) {
	if d <= 0 {
		d = DefaultBackoff
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if at := time.Now().Add(d); at.After(l.retryAt) {
		l.retryAt = at
	}
}

// RetryAfter parses a Retry-After header given in seconds.
// It returns 0 when the header is empty or not a number.
func RetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
