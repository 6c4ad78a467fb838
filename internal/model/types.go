package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Snapshot is one persisted price record for one coin at one instant.
// The (Coin, Timestamp) pair is unique at the store level; snapshots are
// immutable once written.
type Snapshot struct {
	Coin      string    `json:"coin"`
	Price     float64   `json:"price"`
	MarketCap *float64  `json:"marketCap,omitempty"`
	Change24h *float64  `json:"change24h,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RawQuote is one unnormalized entry from the upstream markets endpoint.
// Numeric fields are pointers because the feed omits them for thinly
// traded coins.
type RawQuote struct {
	ID        string   `json:"id"`
	Price     *float64 `json:"current_price"`
	MarketCap *float64 `json:"market_cap"`
	Change24h *float64 `json:"price_change_percentage_24h"`
}

// Normalize converts a raw quote into a Snapshot stamped with ts.
// It returns false when the quote has no usable price: absent, NaN,
// infinite, or negative.
func (q RawQuote) Normalize(ts time.Time) (Snapshot, bool) {
	if q.Price == nil {
		return Snapshot{}, false
	}
	price := *q.Price
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return Snapshot{}, false
	}

	s := Snapshot{
		Coin:      q.ID,
		Price:     price,
		Timestamp: ts,
	}
	if q.MarketCap != nil && isFinite(*q.MarketCap) {
		s.MarketCap = q.MarketCap
	}
	if q.Change24h != nil && isFinite(*q.Change24h) {
		s.Change24h = q.Change24h
	}
	return s, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// CycleReport summarizes one ingestion cycle.
type CycleReport struct {
	CycleID   uuid.UUID `json:"cycle_id"`
	StartedAt time.Time `json:"started_at"`
	Attempted int       `json:"attempted"`
	Saved     int       `json:"saved"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`

	// Err is set when the fetch itself failed and the cycle produced
	// zero saves. Per-coin store failures are counted in Failed instead.
	Err error `json:"-"`
}

// Dispersion holds sample statistics of price over a recent window.
type Dispersion struct {
	Coin    string    `json:"coin"`
	Mean    float64   `json:"mean"`
	StdDev  float64   `json:"stddev"`
	Samples int       `json:"samples"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
}

// HistoryPage is one timestamp-descending page of snapshots plus totals.
type HistoryPage struct {
	Coin  string     `json:"coin"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Total int64      `json:"total"`
	Pages int64      `json:"pages"`
	Items []Snapshot `json:"data"`
}
