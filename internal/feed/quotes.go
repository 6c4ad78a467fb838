package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/castordeluca/coinwatch/internal/model"
)

// FetchBatch fetches current quotes for all given coin ids in a single
// request. The result preserves whatever subset the upstream returned;
// callers must not assume every requested id is present.
func (c *Client) FetchBatch(ctx context.Context, ids []string) ([]model.RawQuote, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("vs_currency", c.vsCurrency)
	query.Set("ids", strings.Join(ids, ","))
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(len(ids)))
	query.Set("page", "1")
	query.Set("sparkline", "false")

	body, err := c.getWithRetry(ctx, "/coins/markets", query)
	if err != nil {
		return nil, err
	}

	var quotes []model.RawQuote
	if err := json.Unmarshal(body, &quotes); err != nil {
		return nil, fmt.Errorf("unmarshal quotes: %w", err)
	}

	return quotes, nil
}

// getWithRetry performs a GET with a fixed delay between attempts.
// Rate-limit responses are returned immediately without retrying.
func (c *Client) getWithRetry(ctx context.Context, path string, query url.Values) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			c.logger.Debug("retrying feed request",
				"attempt", attempt,
				"delay", c.retryDelay,
				"path", path,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		body, err := c.get(ctx, path, query)
		if err == nil {
			return body, nil
		}

		var rateErr *RateLimitError
		if errors.As(err, &rateErr) {
			return nil, err
		}

		c.logger.Warn("feed request failed",
			"attempt", attempt,
			"max_retries", c.maxRetries,
			"path", path,
			"err", err,
		)
		lastErr = err
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// get performs a single GET attempt.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{RetryAfter: resp.Header.Get("Retry-After")}
	case resp.StatusCode >= 400:
		return nil, &UpstreamError{Status: resp.StatusCode, Body: body}
	}

	return body, nil
}
