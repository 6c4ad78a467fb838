package feed

import "fmt"

// UpstreamError represents a non-2xx, non-429 response from the feed.
type UpstreamError struct {
	Status int
	Body   []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("feed upstream error %d: %s", e.Status, truncate(e.Body, 200))
}

// RateLimitError represents an HTTP 429 response. It is never retried
// within a cycle; the next scheduled cycle tries again.
type RateLimitError struct {
	RetryAfter string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter != "" {
		return "feed rate limited (retry after " + e.RetryAfter + ")"
	}
	return "feed rate limited"
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
