// Package fetch performs single bounded page fetches with rotated browser
// identity headers.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/scoutdeck/enricher/internal/identity"
)

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// HTTPError is returned for non-200 responses. It carries the status code so
// callers can classify rate limiting without string matching.
type HTTPError struct {
	Code   int
	Status string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP Error %d: %s", e.Code, e.Status)
}

// StatusCode returns the HTTP status code of the failed response.
func (e *HTTPError) StatusCode() int { return e.Code }

// Client fetches pages over HTTP with a hard per-request timeout and a fresh
// realistic header set on every request.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	referer    string
}

// NewClient creates a fetch client. The timeout bounds each individual fetch;
// referer is sent with every request.
func NewClient(timeout time.Duration, referer string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		referer:    referer,
	}
}

// Get fetches the given URL and returns the response body. Non-200 responses
// yield an *HTTPError; timeouts are reported as such.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, reqErr := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %w", reqErr)
	}

	for k, v := range identity.Headers(c.referer) {
		req.Header.Set(k, v)
	}

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		var urlErr *neturl.Error
		if errors.Is(doErr, context.DeadlineExceeded) ||
			(errors.As(doErr, &urlErr) && urlErr.Timeout()) {
			return nil, fmt.Errorf("timeout after %s: %w", c.timeout, doErr)
		}
		return nil, fmt.Errorf("http fetch: %w", doErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{Code: resp.StatusCode, Status: resp.Status}
	}

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)

	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return nil, fmt.Errorf("read response body: %w", readErr)
	}

	return body, nil
}
