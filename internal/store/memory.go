package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/castordeluca/coinwatch/internal/model"
)

// Memory is a mutex-guarded in-memory SnapshotStore. It backs unit
// tests and database-free development runs with the same contract as
// the Postgres store, including key uniqueness and retention.
type Memory struct {
	mu        sync.RWMutex
	snapshots map[string][]model.Snapshot // per coin, timestamp ascending
	retention time.Duration
	now       func() time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithRetention enables time-based expiry on reads.
func WithRetention(d time.Duration) MemoryOption {
	return func(m *Memory) {
		m.retention = d
	}
}

// WithClock overrides the time source. Tests use this to age snapshots.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		snapshots: make(map[string][]model.Snapshot),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ConditionalInsert writes the snapshot unless the (coin, ts) key exists.
func (m *Memory) ConditionalInsert(_ context.Context, s model.Snapshot) (InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.snapshots[s.Coin]
	for _, e := range existing {
		if e.Timestamp.Equal(s.Timestamp) {
			return AlreadyExists, nil
		}
	}

	existing = append(existing, s)
	sort.Slice(existing, func(i, j int) bool {
		return existing[i].Timestamp.Before(existing[j].Timestamp)
	})
	m.snapshots[s.Coin] = existing
	return Inserted, nil
}

// Latest returns the most recent live snapshot for the coin.
func (m *Memory) Latest(_ context.Context, coin string) (model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	live := m.live(coin)
	if len(live) == 0 {
		return model.Snapshot{}, ErrNotFound
	}
	return live[len(live)-1], nil
}

// History returns one timestamp-descending page of snapshots.
func (m *Memory) History(_ context.Context, coin string, page, limit int) ([]model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	live := m.live(coin)

	// Walk from newest to oldest.
	start := (page - 1) * limit
	if start >= len(live) {
		return []model.Snapshot{}, nil
	}

	items := make([]model.Snapshot, 0, limit)
	for i := len(live) - 1 - start; i >= 0 && len(items) < limit; i-- {
		items = append(items, live[i])
	}
	return items, nil
}

// Count returns the number of live snapshots for the coin.
func (m *Memory) Count(_ context.Context, coin string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.live(coin))), nil
}

// RecentPrices returns up to n price points, most recent first.
func (m *Memory) RecentPrices(_ context.Context, coin string, n int) ([]PricePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	live := m.live(coin)
	points := make([]PricePoint, 0, n)
	for i := len(live) - 1; i >= 0 && len(points) < n; i-- {
		points = append(points, PricePoint{Price: live[i].Price, TS: live[i].Timestamp})
	}
	return points, nil
}

// live returns the coin's snapshots with expired entries filtered out.
// Caller must hold at least a read lock.
func (m *Memory) live(coin string) []model.Snapshot {
	all := m.snapshots[coin]
	if m.retention <= 0 {
		return all
	}

	cutoff := m.now().Add(-m.retention)
	// Snapshots are timestamp ascending; find the first live one.
	i := sort.Search(len(all), func(i int) bool {
		return all[i].Timestamp.After(cutoff)
	})
	return all[i:]
}
