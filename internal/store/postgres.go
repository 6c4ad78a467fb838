package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/castordeluca/coinwatch/internal/config"
	"github.com/castordeluca/coinwatch/internal/model"
)

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Postgres is the pgx-backed SnapshotStore.
type Postgres struct {
	db        *pgxpool.Pool
	logger    *slog.Logger
	retention time.Duration

	// Janitor lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPostgres creates a Postgres store. retention = 0 disables the
// expiry janitor.
func NewPostgres(db *pgxpool.Pool, retention time.Duration, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{
		db:        db,
		logger:    logger,
		retention: retention,
	}
}

// InitSchema creates the snapshots table and indexes if absent.
func (p *Postgres) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS snapshots (
		coin       TEXT NOT NULL,
		price      DOUBLE PRECISION NOT NULL,
		market_cap DOUBLE PRECISION,
		change_24h DOUBLE PRECISION,
		ts         TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (coin, ts)
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_coin_ts_desc ON snapshots (coin, ts DESC);
	`
	if _, err := p.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// ConditionalInsert writes the snapshot unless the (coin, ts) key exists.
func (p *Postgres) ConditionalInsert(ctx context.Context, s model.Snapshot) (InsertResult, error) {
	ct, err := p.db.Exec(ctx, `
		INSERT INTO snapshots (coin, price, market_cap, change_24h, ts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (coin, ts) DO NOTHING
	`, s.Coin, s.Price, s.MarketCap, s.Change24h, s.Timestamp)
	if err != nil {
		return Failed, fmt.Errorf("insert snapshot: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return AlreadyExists, nil
	}
	return Inserted, nil
}

// Latest returns the most recent snapshot for the coin.
func (p *Postgres) Latest(ctx context.Context, coin string) (model.Snapshot, error) {
	var s model.Snapshot
	err := p.db.QueryRow(ctx, `
		SELECT coin, price, market_cap, change_24h, ts
		FROM snapshots
		WHERE coin = $1
		ORDER BY ts DESC
		LIMIT 1
	`, coin).Scan(&s.Coin, &s.Price, &s.MarketCap, &s.Change24h, &s.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("query latest: %w", err)
	}
	return s, nil
}

// History returns one timestamp-descending page of snapshots.
func (p *Postgres) History(ctx context.Context, coin string, page, limit int) ([]model.Snapshot, error) {
	offset := (page - 1) * limit
	rows, err := p.db.Query(ctx, `
		SELECT coin, price, market_cap, change_24h, ts
		FROM snapshots
		WHERE coin = $1
		ORDER BY ts DESC
		OFFSET $2 LIMIT $3
	`, coin, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	items := make([]model.Snapshot, 0, limit)
	for rows.Next() {
		var s model.Snapshot
		if err := rows.Scan(&s.Coin, &s.Price, &s.MarketCap, &s.Change24h, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return items, nil
}

// Count returns the total number of snapshots for the coin.
func (p *Postgres) Count(ctx context.Context, coin string) (int64, error) {
	var n int64
	if err := p.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM snapshots WHERE coin = $1`, coin,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}

// RecentPrices returns up to n price points, most recent first.
func (p *Postgres) RecentPrices(ctx context.Context, coin string, n int) ([]PricePoint, error) {
	rows, err := p.db.Query(ctx, `
		SELECT price, ts
		FROM snapshots
		WHERE coin = $1
		ORDER BY ts DESC
		LIMIT $2
	`, coin, n)
	if err != nil {
		return nil, fmt.Errorf("query recent prices: %w", err)
	}
	defer rows.Close()

	points := make([]PricePoint, 0, n)
	for rows.Next() {
		var pt PricePoint
		if err := rows.Scan(&pt.Price, &pt.TS); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prices: %w", err)
	}
	return points, nil
}

// StartJanitor begins the background retention sweep. No-op when
// retention is disabled.
func (p *Postgres) StartJanitor(ctx context.Context) {
	if p.retention <= 0 {
		return
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.janitorLoop()

	p.logger.Info("retention janitor started",
		"retention", p.retention,
		"sweep_interval", p.sweepInterval(),
	)
}

// StopJanitor stops the sweep loop and waits for it to exit.
func (p *Postgres) StopJanitor(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("retention janitor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sweepInterval derives how often to sweep from the retention window.
func (p *Postgres) sweepInterval() time.Duration {
	interval := p.retention / 10
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}

func (p *Postgres) janitorLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.sweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.sweep()
		}
	}
}

// sweep deletes snapshots older than the retention window. Best-effort;
// a failed sweep is retried on the next tick.
func (p *Postgres) sweep() {
	cutoff := time.Now().UTC().Add(-p.retention)

	ct, err := p.db.Exec(p.ctx,
		`DELETE FROM snapshots WHERE ts < $1`, cutoff)
	if err != nil {
		p.logger.Warn("retention sweep failed", "err", err)
		return
	}

	if ct.RowsAffected() > 0 {
		p.logger.Debug("expired snapshots removed",
			"count", ct.RowsAffected(),
			"cutoff", cutoff,
		)
	}
}
