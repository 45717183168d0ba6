// Package transport carries the engine's two delivery paths: a
// retrying JSON request helper for identity calls and a beacon-style
// sender whose attempt survives session teardown.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultMaxAttempts bounds retries of an identical request.
const DefaultMaxAttempts = 3

// NetworkError reports that a request kept failing after every attempt.
type NetworkError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("transport: %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client is an HTTP client that retries identical requests immediately
// on failure, up to MaxAttempts times.
type Client struct {
	HTTP        *http.Client
	MaxAttempts int
}

// NewClient returns a client using hc (or http.DefaultClient when nil)
// with the default attempt bound.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{HTTP: hc, MaxAttempts: DefaultMaxAttempts}
}

// PostJSON posts in (or an empty body when nil) to url and decodes the
// response into out when out is non-nil. A non-2xx status counts as a
// failed attempt. Exhausting the attempts yields a *NetworkError.
func (c *Client) PostJSON(ctx context.Context, url string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("transport: encode request: %w", err)
		}
	}

	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		respBody, err := c.post(ctx, url, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("transport: decode response from %s: %w", url, err)
			}
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return &NetworkError{URL: url, Attempts: attempts, Err: lastErr}
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return data, nil
}
