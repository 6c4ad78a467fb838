package config

import "time"

// TrackerConfig is the root configuration for a tracker instance.
type TrackerConfig struct {
	Coins     []string        `yaml:"coins"`
	Feed      FeedConfig      `yaml:"feed"`
	Database  DBConfig        `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Retention RetentionConfig `yaml:"retention"`
	Server    ServerConfig    `yaml:"server"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// FeedConfig holds upstream price feed settings.
type FeedConfig struct {
	BaseURL    string        `yaml:"base_url"`
	VSCurrency string        `yaml:"vs_currency"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// DBConfig holds the PostgreSQL connection for snapshot storage.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// CacheConfig holds the optional Redis latest-snapshot cache.
// An empty Addr disables the cache entirely.
type CacheConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// SchedulerConfig holds ingestion scheduling settings.
type SchedulerConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

// Interval returns the fetch period as a duration.
func (c SchedulerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// RetentionConfig controls time-based snapshot expiry.
// Seconds = 0 disables expiry.
type RetentionConfig struct {
	Seconds int `yaml:"seconds"`
}

// Duration returns the retention window, or 0 when expiry is disabled.
func (c RetentionConfig) Duration() time.Duration {
	return time.Duration(c.Seconds) * time.Second
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
