package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/castordeluca/coinwatch/internal/model"
	"github.com/castordeluca/coinwatch/internal/store"
)

// Query-layer errors. The HTTP layer maps these to status codes; the
// engine itself stays transport-agnostic.
var (
	// ErrInvalidAsset marks a coin outside the configured set.
	ErrInvalidAsset = errors.New("unsupported coin")

	// ErrInsufficientData marks a dispersion window with fewer than
	// MinWindow usable samples.
	ErrInsufficientData = errors.New("not enough price data")

	// ErrInvalidParam marks an out-of-range window, page, or limit.
	ErrInvalidParam = errors.New("invalid parameter")
)

// Window and pagination bounds.
const (
	DefaultWindow = 100
	MinWindow     = 2
	MaxWindow     = 1000

	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// LatestCache serves cached latest snapshots ahead of the store.
type LatestCache interface {
	GetLatest(ctx context.Context, coin string) (model.Snapshot, bool, error)
}

// Engine answers read queries over the snapshot store.
type Engine struct {
	coins     []string
	supported map[string]struct{}
	store     store.SnapshotStore
	cache     LatestCache // nil when no cache is configured
	logger    *slog.Logger
}

// NewEngine creates an Engine over the given supported coin set.
// cache may be nil.
func NewEngine(coins []string, st store.SnapshotStore, cache LatestCache, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	supported := make(map[string]struct{}, len(coins))
	for _, c := range coins {
		supported[c] = struct{}{}
	}
	return &Engine{
		coins:     append([]string(nil), coins...),
		supported: supported,
		store:     st,
		cache:     cache,
		logger:    logger,
	}
}

// Coins returns the configured coin set in configuration order.
func (e *Engine) Coins() []string {
	return append([]string(nil), e.coins...)
}

// checkCoin gates every operation on the supported set.
func (e *Engine) checkCoin(coin string) error {
	if _, ok := e.supported[coin]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAsset, coin)
	}
	return nil
}

// Latest returns the most recent snapshot for the coin, preferring the
// cache when one is configured. Returns store.ErrNotFound when the coin
// has no data.
func (e *Engine) Latest(ctx context.Context, coin string) (model.Snapshot, error) {
	if err := e.checkCoin(coin); err != nil {
		return model.Snapshot{}, err
	}

	if e.cache != nil {
		s, ok, err := e.cache.GetLatest(ctx, coin)
		if err != nil {
			e.logger.Debug("latest cache read failed", "coin", coin, "err", err)
		} else if ok {
			return s, nil
		}
	}

	return e.store.Latest(ctx, coin)
}

// Dispersion computes sample mean and standard deviation of price over
// the most recent window snapshots. window <= 0 selects the default.
func (e *Engine) Dispersion(ctx context.Context, coin string, window int) (model.Dispersion, error) {
	if err := e.checkCoin(coin); err != nil {
		return model.Dispersion{}, err
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if window < MinWindow || window > MaxWindow {
		return model.Dispersion{}, fmt.Errorf("%w: window must be in [%d, %d]", ErrInvalidParam, MinWindow, MaxWindow)
	}

	points, err := e.store.RecentPrices(ctx, coin, window)
	if err != nil {
		return model.Dispersion{}, fmt.Errorf("load price window: %w", err)
	}

	// Keep only finite prices; malformed history must not poison the
	// aggregate.
	used := points[:0]
	for _, p := range points {
		if !math.IsNaN(p.Price) && !math.IsInf(p.Price, 0) {
			used = append(used, p)
		}
	}

	n := len(used)
	if n < MinWindow {
		return model.Dispersion{}, ErrInsufficientData
	}

	var sum float64
	for _, p := range used {
		sum += p.Price
	}
	mean := sum / float64(n)

	var sq float64
	for _, p := range used {
		d := p.Price - mean
		sq += d * d
	}
	// Sample (Bessel-corrected) variance.
	variance := sq / float64(n-1)

	// Points are newest first.
	return model.Dispersion{
		Coin:    coin,
		Mean:    mean,
		StdDev:  math.Sqrt(variance),
		Samples: n,
		From:    used[n-1].TS,
		To:      used[0].TS,
	}, nil
}

// History returns one timestamp-descending page plus totals. page <= 0
// and limit <= 0 select the defaults.
func (e *Engine) History(ctx context.Context, coin string, page, limit int) (model.HistoryPage, error) {
	if err := e.checkCoin(coin); err != nil {
		return model.HistoryPage{}, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return model.HistoryPage{}, fmt.Errorf("%w: limit must be in [1, %d]", ErrInvalidParam, MaxPageLimit)
	}

	// Total and page are computed over the same unfiltered coin set.
	total, err := e.store.Count(ctx, coin)
	if err != nil {
		return model.HistoryPage{}, fmt.Errorf("count history: %w", err)
	}

	items, err := e.store.History(ctx, coin, page, limit)
	if err != nil {
		return model.HistoryPage{}, fmt.Errorf("load history page: %w", err)
	}

	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}

	return model.HistoryPage{
		Coin:  coin,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
		Items: items,
	}, nil
}

// Compare fetches the latest snapshot for each requested coin
// concurrently. Coins with no data are omitted; if none have data the
// whole call returns store.ErrNotFound.
func (e *Engine) Compare(ctx context.Context, coins []string) ([]model.Snapshot, error) {
	if len(coins) == 0 {
		return nil, fmt.Errorf("%w: no coins requested", ErrInvalidParam)
	}

	// The request is a set: collapse repeats, keeping first-occurrence
	// order.
	seen := make(map[string]struct{}, len(coins))
	unique := coins[:0:0]
	for _, coin := range coins {
		if err := e.checkCoin(coin); err != nil {
			return nil, err
		}
		if _, dup := seen[coin]; dup {
			continue
		}
		seen[coin] = struct{}{}
		unique = append(unique, coin)
	}
	coins = unique

	results := make([]*model.Snapshot, len(coins))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, coin := range coins {
		i, coin := i, coin
		g.Go(func() error {
			s, err := e.Latest(gctx, coin)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = &s
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.Snapshot, 0, len(coins))
	for _, s := range results {
		if s != nil {
			out = append(out, *s)
		}
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	return out, nil
}
