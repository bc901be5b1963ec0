package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gophora/engine/internal/model"
	"github.com/gophora/engine/internal/ratelimit"
)

const userAgent = "Mozilla/5.0 (compatible; GophoraBot/1.0; +https://gophora.com)"

// Client is the shared HTTP front for all adapters: it paces requests through
// a per-host limiter, applies the configured random pre-request delay, and
// maps non-2xx responses to model.HTTPError for the retry layer.
type Client struct {
	hc        *http.Client
	limiter   *ratelimit.HostLimiter
	jitterMin time.Duration
	jitterMax time.Duration
}

// NewClient creates a Client. limiter may be shared across adapters; jitter
// bounds of zero disable the pre-request delay (useful in tests).
func NewClient(hc *http.Client, limiter *ratelimit.HostLimiter, jitterMin, jitterMax time.Duration) *Client {
	return &Client{
		hc:        hc,
		limiter:   limiter,
		jitterMin: jitterMin,
		jitterMax: jitterMax,
	}
}

// Get performs a paced GET against url. The caller owns the response body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if c.jitterMax > 0 {
		if err := ratelimit.Jitter(ctx, c.jitterMin, c.jitterMax); err != nil {
			return nil, err
		}
	}
	if c.limiter != nil {
		if err := c.limiter.WaitURL(ctx, url); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		resp.Body.Close()
		return nil, &model.HTTPError{StatusCode: resp.StatusCode, RetryAfter: retryAfter}
	}

	return resp, nil
}

// GetJSON performs a paced GET and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
