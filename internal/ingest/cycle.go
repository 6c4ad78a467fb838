package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/castordeluca/coinwatch/internal/feed"
	"github.com/castordeluca/coinwatch/internal/metrics"
	"github.com/castordeluca/coinwatch/internal/model"
	"github.com/castordeluca/coinwatch/internal/store"
)

// QuoteFetcher provides raw quotes for a batch of coin ids.
type QuoteFetcher interface {
	FetchBatch(ctx context.Context, ids []string) ([]model.RawQuote, error)
}

// LatestCache receives write-throughs of freshly persisted snapshots.
type LatestCache interface {
	SetLatest(ctx context.Context, s model.Snapshot) error
}

// Cycle runs one fetch-normalize-persist pass over the configured coins.
type Cycle struct {
	coins   []string
	fetcher QuoteFetcher
	store   store.SnapshotStore
	cache   LatestCache // nil when no cache is configured
	logger  *slog.Logger
}

// NewCycle creates a Cycle. cache may be nil.
func NewCycle(coins []string, fetcher QuoteFetcher, st store.SnapshotStore, cache LatestCache, logger *slog.Logger) *Cycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cycle{
		coins:   coins,
		fetcher: fetcher,
		store:   st,
		cache:   cache,
		logger:  logger,
	}
}

// Run executes one ingestion cycle. It never returns an error: every
// failure is classified into the report so the scheduler can keep
// firing regardless of what happened here.
func (c *Cycle) Run(ctx context.Context) model.CycleReport {
	start := time.Now()

	report := model.CycleReport{
		CycleID:   uuid.New(),
		StartedAt: start.UTC().Truncate(time.Second),
		Attempted: len(c.coins),
	}
	logger := c.logger.With("cycle_id", report.CycleID)

	// One timestamp for the whole cycle: every snapshot below shares it.
	ts := report.StartedAt

	quotes, err := c.fetcher.FetchBatch(ctx, c.coins)
	if err != nil {
		report.Err = err

		var rateErr *feed.RateLimitError
		if errors.As(err, &rateErr) {
			// Abstain for this cycle; the next tick tries again.
			logger.Warn("feed rate limited, skipping cycle", "err", err)
			metrics.CyclesTotal.WithLabelValues("rate_limited").Inc()
		} else {
			logger.Error("feed fetch failed, skipping cycle", "err", err)
			metrics.CyclesTotal.WithLabelValues("fetch_failed").Inc()
		}
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
		return report
	}

	seen := make(map[string]bool, len(quotes))
	for _, quote := range quotes {
		seen[quote.ID] = true

		snapshot, ok := quote.Normalize(ts)
		if !ok {
			logger.Warn("quote has no usable price, skipping coin", "coin", quote.ID)
			report.Skipped++
			metrics.SnapshotsSkipped.Inc()
			continue
		}

		res, err := c.store.ConditionalInsert(ctx, snapshot)
		switch res {
		case store.Inserted:
			report.Saved++
			metrics.SnapshotsSaved.Inc()
			c.cacheLatest(ctx, logger, snapshot)
		case store.AlreadyExists:
			// Benign: a concurrent or retried cycle got there first.
			logger.Debug("duplicate snapshot absorbed", "coin", snapshot.Coin, "ts", ts)
			report.Skipped++
			metrics.SnapshotsSkipped.Inc()
		default:
			logger.Error("store insert failed", "coin", snapshot.Coin, "err", err)
			report.Failed++
			metrics.SnapshotsFailed.Inc()
		}
	}

	// Coins the upstream left out of the response entirely.
	for _, coin := range c.coins {
		if !seen[coin] {
			logger.Warn("no quote returned for coin", "coin", coin)
			report.Skipped++
			metrics.SnapshotsSkipped.Inc()
		}
	}

	metrics.CyclesTotal.WithLabelValues("ok").Inc()
	metrics.CycleDuration.Observe(time.Since(start).Seconds())

	logger.Info("ingestion cycle complete",
		"attempted", report.Attempted,
		"saved", report.Saved,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", time.Since(start),
	)

	return report
}

// cacheLatest writes through to the latest cache, best-effort.
func (c *Cycle) cacheLatest(ctx context.Context, logger *slog.Logger, s model.Snapshot) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SetLatest(ctx, s); err != nil {
		logger.Debug("latest cache write failed", "coin", s.Coin, "err", err)
	}
}
