package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/castordeluca/coinwatch/internal/config"
	"github.com/castordeluca/coinwatch/internal/model"
)

// Redis caches the latest snapshot per coin with a short TTL. The
// ingestion cycle writes through on every successful insert; the query
// layer reads it before the store. Every failure degrades to a store
// read, never to a caller-visible error.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to the configured Redis and verifies it with a ping.
func NewRedis(ctx context.Context, cfg config.CacheConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

func key(coin string) string {
	return "latest:" + coin
}

// SetLatest stores the snapshot as the coin's latest.
func (r *Redis) SetLatest(ctx context.Context, s model.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := r.client.Set(ctx, key(s.Coin), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set latest snapshot: %w", err)
	}
	return nil
}

// GetLatest returns the cached latest snapshot for the coin. The second
// return value is false on a cache miss.
func (r *Redis) GetLatest(ctx context.Context, coin string) (model.Snapshot, bool, error) {
	data, err := r.client.Get(ctx, key(coin)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, fmt.Errorf("get latest snapshot: %w", err)
	}

	var s model.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, true, nil
}

// Close releases the underlying connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
