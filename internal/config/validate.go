package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *TrackerConfig) Validate() error {
	if len(c.Coins) == 0 {
		return errors.New("coins must name at least one asset")
	}
	for _, coin := range c.Coins {
		if strings.TrimSpace(coin) == "" {
			return errors.New("coins must not contain empty entries")
		}
	}

	if c.Feed.BaseURL == "" {
		return errors.New("feed.base_url is required")
	}
	if c.Feed.MaxRetries < 1 {
		return errors.New("feed.max_retries must be >= 1")
	}
	if c.Feed.RetryDelay < 0 {
		return errors.New("feed.retry_delay must be >= 0")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Scheduler.IntervalMinutes < 1 {
		return errors.New("scheduler.interval_minutes must be >= 1")
	}

	if c.Retention.Seconds < 0 {
		return errors.New("retention.seconds must be >= 0")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("server.port must be in 1-65535")
	}
	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return errors.New("metrics.port must be in 1-65535")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
