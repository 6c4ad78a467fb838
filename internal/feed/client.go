package feed

import (
	"log/slog"
	"net/http"
	"time"
)

// Client provides access to the CoinGecko-compatible markets API.
type Client struct {
	baseURL    string
	vsCurrency string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries int
	retryDelay time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new feed client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		vsCurrency: "usd",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:     slog.Default(),
		maxRetries: 3,
		retryDelay: 1500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryDelay = delay
	}
}

// WithVSCurrency sets the quote currency for prices and market caps.
func WithVSCurrency(cur string) ClientOption {
	return func(c *Client) {
		c.vsCurrency = cur
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}
