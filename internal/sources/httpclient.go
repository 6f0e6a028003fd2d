// Package sources implements the bibliographic source adapters: one outbound
// client per external API, a shared retrying HTTP client, and the fan-out
// orchestrator that gathers PaperRecords from every enabled adapter in
// parallel, per spec 4.1 and 5.
package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"scifind-backend/internal/errors"
)

const (
	defaultInitialDelay = 1 * time.Second
	defaultMaxDelay     = 10 * time.Second
)

// HTTPClient wraps a plain http.Client with the adapter error policy: retry
// transient network/timeout/5xx failures with exponential backoff (3
// attempts, 1s base, 10s cap), and hand back any HTTP response it did
// receive — including 4xx like 429 or 404 — for the caller to interpret,
// since that decision differs by adapter and by operation (search vs get).
type HTTPClient struct {
	client *http.Client
	retry  *errors.RetryExecutor
}

// NewHTTPClient builds a retrying client with the fixed backoff policy.
func NewHTTPClient(httpClient *http.Client, logger *slog.Logger) *HTTPClient {
	classifier := errors.NewErrorClassifier()
	retryConfig := errors.WithExponentialBackoff(3, defaultInitialDelay, defaultMaxDelay)
	return &HTTPClient{
		client: httpClient,
		retry:  errors.NewRetryExecutor(retryConfig, classifier, logger),
	}
}

// Response is the outcome of a single logical GET, after any retries.
type Response struct {
	StatusCode int
	Body       []byte
}

// Get issues a GET request, retrying on network failure, timeout, or a 5xx
// status. Any other status (2xx, 404, 429, other 4xx) is returned without
// error for the adapter to interpret against its own error policy.
func (c *HTTPClient) Get(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	var out Response

	err := c.retry.Execute(ctx, "GET "+rawURL, func() error {
		req, buildErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if buildErr != nil {
			return errors.NewInternalError("failed to build request", buildErr)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, doErr := c.client.Do(req)
		if doErr != nil {
			return errors.NewNetworkError("request failed", doErr)
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return errors.NewNetworkError("failed to read response body", readErr)
		}

		out.StatusCode = resp.StatusCode
		out.Body = body

		if resp.StatusCode >= 500 {
			return errors.NewError(errors.ErrorTypeTransient, "UPSTREAM_5XX", fmt.Sprintf("upstream returned %d", resp.StatusCode)).
				WithDetail("status_code", resp.StatusCode).
				Retryable(true).
				Build()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
