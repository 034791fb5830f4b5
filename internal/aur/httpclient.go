package aur

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/obentoo/aurkit/internal/common/logger"
	"github.com/obentoo/aurkit/internal/common/version"
)

var (
	// ErrMaxRetriesExceeded is returned when all retry attempts have failed
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	// ErrRequestTimeout is returned when a request times out
	ErrRequestTimeout = errors.New("request timeout")
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of extra attempts after the first (0 disables retries)
	MaxRetries int
	// BaseDelay is the initial delay before the first retry
	BaseDelay time.Duration
	// MaxDelay caps the delay between retries
	MaxDelay time.Duration
	// Timeout bounds each individual request; 0 means no timeout
	Timeout time.Duration
	// RateLimit is the sustained request rate per second; 0 means unlimited
	RateLimit float64
	// Burst is the number of requests allowed at once under RateLimit
	Burst int
}

// DefaultRetryConfig returns a single-attempt configuration with a 30s
// timeout and no rate limit.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 0,
		BaseDelay:  1 * time.Second,
		MaxDelay:   4 * time.Second,
		Timeout:    30 * time.Second,
	}
}

// RetryableHTTPClient wraps an HTTP client with rate limiting and retry
// logic using exponential backoff.
type RetryableHTTPClient struct {
	client  *http.Client
	config  RetryConfig
	limiter *rate.Limiter
	// delayFunc waits between retries; replaced in tests
	delayFunc func(ctx context.Context, d time.Duration) error
}

// NewRetryableHTTPClient creates a new HTTP client with the given configuration.
func NewRetryableHTTPClient(config RetryConfig) *RetryableHTTPClient {
	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}

	return &RetryableHTTPClient{
		client:    &http.Client{Timeout: config.Timeout},
		config:    config,
		limiter:   rate.NewLimiter(limit, burst),
		delayFunc: sleepContext,
	}
}

// SetHTTPClient sets a custom underlying HTTP client (useful for testing).
// The configured timeout is applied to it.
func (c *RetryableHTTPClient) SetHTTPClient(client *http.Client) {
	client.Timeout = c.config.Timeout
	c.client = client
}

// SetDelayFunc sets a custom delay function (useful for testing).
func (c *RetryableHTTPClient) SetDelayFunc(fn func(ctx context.Context, d time.Duration) error) {
	c.delayFunc = fn
}

// Config returns the current retry configuration.
func (c *RetryableHTTPClient) Config() RetryConfig {
	return c.config
}

// GetWithContext performs a GET request. Network errors, 5xx and 429
// responses are retried up to MaxRetries times. The returned response has
// a status the caller must still check.
func (c *RetryableHTTPClient) GetWithContext(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateDelay(attempt)
			logger.Debug("retrying %s in %v (attempt %d)", url, delay, attempt+1)
			if err := c.delayFunc(ctx, delay); err != nil {
				return nil, err
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", version.UserAgent())

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if isTimeoutError(err) {
				lastErr = fmt.Errorf("%w: %v", ErrRequestTimeout, err)
			}
			continue
		}

		if shouldRetry(resp.StatusCode) && attempt < c.config.MaxRetries {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	if c.config.MaxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr)
}

// calculateDelay returns BaseDelay * 2^(attempt-1), capped at MaxDelay.
func (c *RetryableHTTPClient) calculateDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := c.config.BaseDelay * time.Duration(1<<(attempt-1))
	if c.config.MaxDelay > 0 && delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}
	return delay
}

// shouldRetry reports 5xx and 429 responses as retryable.
func shouldRetry(statusCode int) bool {
	return statusCode >= 500 && statusCode < 600 || statusCode == http.StatusTooManyRequests
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
