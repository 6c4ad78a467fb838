package store

import (
	"context"
	"errors"
	"time"

	"github.com/castordeluca/coinwatch/internal/model"
)

// ErrNotFound is returned by Latest when a coin has no snapshots.
var ErrNotFound = errors.New("snapshot not found")

// InsertResult is the outcome of a conditional insert.
type InsertResult int

const (
	// Inserted means the snapshot was written.
	Inserted InsertResult = iota
	// AlreadyExists means a snapshot with the same (coin, timestamp)
	// key was already present; the write was a no-op.
	AlreadyExists
	// Failed means the store rejected the write for any other reason.
	Failed
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already_exists"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// SnapshotStore is the persistence port for price snapshots.
// Implementations must be safe for concurrent use.
type SnapshotStore interface {
	// ConditionalInsert writes the snapshot unless one with the same
	// (coin, timestamp) key exists. The error is non-nil only when the
	// result is Failed.
	ConditionalInsert(ctx context.Context, s model.Snapshot) (InsertResult, error)

	// Latest returns the most recent snapshot for the coin, or
	// ErrNotFound.
	Latest(ctx context.Context, coin string) (model.Snapshot, error)

	// History returns one timestamp-descending page of snapshots.
	// page is 1-based.
	History(ctx context.Context, coin string, page, limit int) ([]model.Snapshot, error)

	// Count returns the total number of snapshots for the coin.
	Count(ctx context.Context, coin string) (int64, error)

	// RecentPrices returns up to n prices, most recent first, paired
	// with their timestamps.
	RecentPrices(ctx context.Context, coin string, n int) ([]PricePoint, error)
}

// PricePoint is one (price, timestamp) observation used by the
// statistics engine.
type PricePoint struct {
	Price float64
	TS    time.Time
}
