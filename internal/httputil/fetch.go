// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the single-shot HTTP fetch used by every
// pipeline hop.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/lexdef-engine/pkg/types"
)

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Response is a fully read HTTP response body.
type Response struct {
	// URL is the final URL after redirects.
	URL         string
	StatusCode  int
	ContentType string
	Body        string

	// Truncated is set when the body exceeded the configured cap.
	Truncated bool
}

// Fetcher performs GET requests with an explicit per-call timeout and an
// optional outbound rate limit. It never retries: a failed call is
// returned to the caller as-is.
type Fetcher struct {
	client  *http.Client
	cfg     types.HTTPConfig
	limiter *rate.Limiter
}

// NewFetcher returns a Fetcher using client, or a fresh client when nil.
// Zero-valued fields in cfg fall back to the package defaults.
func NewFetcher(client *http.Client, cfg types.HTTPConfig) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = types.DefaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = types.DefaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = types.DefaultUserAgent
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Fetcher{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Timeout returns the per-call deadline applied by Get.
func (f *Fetcher) Timeout() time.Duration {
	return f.cfg.Timeout
}

// Get fetches rawURL once. The call is bounded by the configured timeout;
// a deadline hit is reported like any other transport error. Responses
// outside 2xx yield a *StatusError.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html, text/markdown, text/plain;q=0.9, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body from %s: %w", rawURL, err)
	}
	truncated := int64(len(data)) > f.cfg.MaxBodyBytes
	if truncated {
		data = data[:f.cfg.MaxBodyBytes]
	}

	return &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(data),
		Truncated:   truncated,
	}, nil
}
