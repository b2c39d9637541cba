// Package notionclient is the synchronizer's Remote Client (spec §4.4):
// a thin wrapper over jomei/notionapi that adds retry-with-backoff and
// the burst-8 leaky-bucket rate limit the synchronizer needs on top of
// the teacher's internal/notion.Client shape.
package notionclient

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jomei/notionapi"
	"golang.org/x/time/rate"
)

const (
	// rateLimit matches Notion's published 3 req/s ceiling.
	rateLimit = 3
	// burst allows short bursts up to 8 requests (spec §5).
	burst = 8
	// maxAttempts bounds retries for transient failures (spec §4.4).
	maxAttempts = 5
)

// Client wraps the Notion API with rate limiting and retry/backoff.
type Client struct {
	api     *notionapi.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit overrides the default 3req/s burst-8 limiter.
func WithRateLimit(requestsPerSecond float64, b int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), b)
	}
}

// New creates a Client authenticated with token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		api:     notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(rate.Limit(rateLimit), burst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// API returns the underlying notionapi.Client for operations this
// wrapper does not cover.
func (c *Client) API() *notionapi.Client {
	return c.api
}

// fatalStatus reports whether a Notion API status code should never be
// retried (spec §4.4: 401 and 404 are fatal).
func fatalStatus(status int) bool {
	return status == 401 || status == 404
}

// transientStatus reports whether a status code is worth retrying
// (spec §4.4: 429 and 5xx).
func transientStatus(status int) bool {
	return status == 429 || status >= 500
}

// classify extracts the Notion API status code from err, when it
// originated from the API rather than the transport or context.
func classify(err error) (status int, ok bool) {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status, true
	}
	return 0, false
}

// withRetry runs op, retrying transient failures with exponential
// backoff and jitter up to maxAttempts. Fatal statuses (401, 404) and
// context cancellation abort immediately.
func withRetry(ctx context.Context, limiter *rate.Limiter, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}

		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if status, ok := classify(err); ok {
			if fatalStatus(status) {
				return err
			}
			if !transientStatus(status) {
				return err
			}
		} else if ctx.Err() != nil {
			return err
		}

		if attempt == maxAttempts {
			break
		}

		backoff := time.Duration(1<<uint(attempt-1)) * 250 * time.Millisecond
		jitter := time.Duration(rand.Int63n(int64(backoff) / 2))
		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}
