// Package httpclient provides a shared HTTP client with retry/backoff and
// rate-limit awareness, used by the local-in-process and HTTP LLM provider
// backends.
package httpclient

import (
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RateLimitInfo captures the subset of rate-limit headers this client knows
// how to parse across providers (see parsers.go).
type RateLimitInfo struct {
	RetryAfter            time.Duration
	ResetTime             int64
	RequestsRemaining     int
	TokensRemaining       int
	InputTokensRemaining  int
	OutputTokensRemaining int
}

// Client wraps *http.Client with a bounded exponential-backoff retry policy.
type Client struct {
	http       *http.Client
	maxRetries int
	baseDelay  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client (e.g. for timeout).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithMaxRetries sets the maximum number of retry attempts after the
// initial request (0 disables retries).
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithBaseDelay sets the base delay used for exponential backoff between
// retries.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

// New creates a Client with the given options, defaulting to a plain
// http.Client, no retries, and a 1s base delay.
func New(opts ...Option) *Client {
	c := &Client{
		http:      http.DefaultClient,
		baseDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes req, retrying on transport errors and 429/5xx responses up to
// maxRetries times with jittered exponential backoff. The request body, if
// any, must support GetBody (as set by http.NewRequest for in-memory
// payloads) so it can be replayed across attempts.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var lastErr error
	var retryAfter time.Duration
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			if retryAfter > 0 {
				delay = retryAfter
			}
			time.Sleep(delay)
			retryAfter = 0
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err == nil {
					req.Body = body
				}
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if !isRetryableStatus(resp.StatusCode) || attempt == c.maxRetries {
			return resp, nil
		}
		retryAfter = retryAfterFromHeaders(resp.Header)
		resp.Body.Close()
		lastErr = &RetryableError{StatusCode: resp.StatusCode, Message: resp.Status, RetryAfter: retryAfter}
	}
	return nil, lastErr
}

// retryAfterFromHeaders honors whichever rate-limit header shape the
// response carries, trying the OpenAI shape first and falling back to the
// Anthropic shape so either kind of OpenAI-compatible-or-not endpoint gets
// its advertised backoff honored instead of the blind exponential default.
func retryAfterFromHeaders(h http.Header) time.Duration {
	if info := ParseOpenAIRateLimitHeaders(h); info.RetryAfter > 0 {
		return info.RetryAfter
	}
	if info := ParseAnthropicRateLimitHeaders(h); info.RetryAfter > 0 {
		return info.RetryAfter
	}
	return 0
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := float64(c.baseDelay) * math.Pow(2, float64(attempt-1))
	jitter := 1 + (rand.Float64()-0.5)*0.2 //nolint:gosec // jitter only, not security-sensitive
	return time.Duration(delay * jitter)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
