// Package retrylimit provides an adaptive rate limiter and retry helper
// for polite HTTP polling clients. The limit rises while requests succeed
// and is cut back when the upstream pushes back.
package retrylimit

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HTTPError is implemented by errors that carry an HTTP status code.
// Errors without it are retried with plain backoff.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError is a minimal HTTPError implementation for clients.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

func (e *StatusError) StatusCode() int { return e.Code }

// AdaptiveLimiter adjusts its rate automatically: up on success, halved on
// rate-limit or server errors. Safe for concurrent use.
type AdaptiveLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	min     rate.Limit
	max     rate.Limit
}

// NewAdaptiveLimiter creates a limiter starting at initial requests per
// second, clamped to [min, max].
func NewAdaptiveLimiter(initial, min, max rate.Limit) *AdaptiveLimiter {
	if min <= 0 {
		min = rate.Limit(0.1)
	}
	if initial < min {
		initial = min
	}
	return &AdaptiveLimiter{
		limiter: rate.NewLimiter(initial, 1),
		min:     min,
		max:     max,
	}
}

// Wait blocks until a request may proceed or ctx is cancelled.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success nudges the rate up.
func (a *AdaptiveLimiter) Success() {
	a.adjust(a.Limit() + 1)
}

// Backoff halves the rate.
func (a *AdaptiveLimiter) Backoff() {
	a.adjust(rate.Limit(float64(a.Limit()) / 2))
}

// Limit returns the current requests per second.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.limiter.Limit()
}

func (a *AdaptiveLimiter) adjust(l rate.Limit) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if l > a.max {
		l = a.max
	}
	if l < a.min {
		l = a.min
	}
	a.limiter.SetLimit(l)
}

// WithRetry runs fn up to maxAttempts times, waiting on the limiter before
// each attempt and backing off exponentially between failures. A 4xx
// status other than 429 is not retried; 429 and 5xx additionally cut the
// limiter's rate.
func WithRetry(ctx context.Context, lim *AdaptiveLimiter, maxAttempts int, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	delay := 500 * time.Millisecond
	var err error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lim != nil {
			if werr := lim.Wait(ctx); werr != nil {
				return werr
			}
		}

		err = fn()
		if err == nil {
			if lim != nil {
				lim.Success()
			}
			return nil
		}

		if httpErr, ok := err.(HTTPError); ok {
			code := httpErr.StatusCode()
			switch {
			case code == http.StatusTooManyRequests || code >= 500:
				if lim != nil {
					lim.Backoff()
				}
			case code >= 400:
				return err
			}
		}

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("giving up after %d attempts: %w", maxAttempts, err)
}
