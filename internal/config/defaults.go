package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultFeedURL         = "https://api.coingecko.com/api/v3"
	DefaultVSCurrency      = "usd"
	DefaultFeedTimeout     = 10 * time.Second
	DefaultMaxRetries      = 3
	DefaultRetryDelay      = 1500 * time.Millisecond
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultCacheTTL        = 30 * time.Second
	DefaultIntervalMinutes = 2
	DefaultServerPort      = 3000
	DefaultMetricsPort     = 9090
	DefaultMetricsPath     = "/metrics"
)

// DefaultCoins is the tracked set when the config names none.
var DefaultCoins = []string{"bitcoin", "ethereum", "matic-network"}

func (c *TrackerConfig) applyDefaults() {
	if len(c.Coins) == 0 {
		c.Coins = append([]string(nil), DefaultCoins...)
	}

	// Feed defaults
	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = DefaultFeedURL
	}
	if c.Feed.VSCurrency == "" {
		c.Feed.VSCurrency = DefaultVSCurrency
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = DefaultFeedTimeout
	}
	if c.Feed.MaxRetries == 0 {
		c.Feed.MaxRetries = DefaultMaxRetries
	}
	if c.Feed.RetryDelay == 0 {
		c.Feed.RetryDelay = DefaultRetryDelay
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Cache defaults (addr stays empty unless configured)
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	// Scheduler defaults
	if c.Scheduler.IntervalMinutes == 0 {
		c.Scheduler.IntervalMinutes = DefaultIntervalMinutes
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
