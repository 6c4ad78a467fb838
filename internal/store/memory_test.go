package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/castordeluca/coinwatch/internal/model"
)

func snap(coin string, price float64, ts time.Time) model.Snapshot {
	return model.Snapshot{Coin: coin, Price: price, Timestamp: ts}
}

func TestMemoryConditionalInsert(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("insert then duplicate", func(t *testing.T) {
		m := NewMemory()

		res, err := m.ConditionalInsert(ctx, snap("bitcoin", 64000, ts))
		if err != nil || res != Inserted {
			t.Fatalf("first insert = (%v, %v), want (Inserted, nil)", res, err)
		}

		res, err = m.ConditionalInsert(ctx, snap("bitcoin", 99999, ts))
		if err != nil || res != AlreadyExists {
			t.Fatalf("second insert = (%v, %v), want (AlreadyExists, nil)", res, err)
		}

		n, _ := m.Count(ctx, "bitcoin")
		if n != 1 {
			t.Errorf("Count = %d, want 1", n)
		}

		// First write wins; the duplicate's price must not leak in.
		latest, err := m.Latest(ctx, "bitcoin")
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if latest.Price != 64000 {
			t.Errorf("Latest.Price = %v, want 64000", latest.Price)
		}
	})

	t.Run("same timestamp different coins", func(t *testing.T) {
		m := NewMemory()

		if res, _ := m.ConditionalInsert(ctx, snap("bitcoin", 64000, ts)); res != Inserted {
			t.Fatalf("bitcoin insert = %v, want Inserted", res)
		}
		if res, _ := m.ConditionalInsert(ctx, snap("ethereum", 3400, ts)); res != Inserted {
			t.Fatalf("ethereum insert = %v, want Inserted", res)
		}
	})

	t.Run("concurrent duplicate inserts yield one row", func(t *testing.T) {
		m := NewMemory()

		var wg sync.WaitGroup
		var inserted, existed sync.Map
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				res, err := m.ConditionalInsert(ctx, snap("bitcoin", 64000, ts))
				if err != nil {
					t.Errorf("insert failed: %v", err)
					return
				}
				if res == Inserted {
					inserted.Store(i, true)
				} else {
					existed.Store(i, true)
				}
			}(i)
		}
		wg.Wait()

		var wins int
		inserted.Range(func(_, _ any) bool { wins++; return true })
		if wins != 1 {
			t.Errorf("Inserted results = %d, want exactly 1", wins)
		}

		n, _ := m.Count(ctx, "bitcoin")
		if n != 1 {
			t.Errorf("Count = %d, want 1", n)
		}
	})
}

func TestMemoryReads(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	m := NewMemory()
	for i := 0; i < 25; i++ {
		res, err := m.ConditionalInsert(ctx, snap("bitcoin", float64(100+i), base.Add(time.Duration(i)*time.Minute)))
		if err != nil || res != Inserted {
			t.Fatalf("seed insert %d = (%v, %v)", i, res, err)
		}
	}

	t.Run("latest", func(t *testing.T) {
		s, err := m.Latest(ctx, "bitcoin")
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if s.Price != 124 {
			t.Errorf("Latest.Price = %v, want 124", s.Price)
		}
	})

	t.Run("latest unknown coin", func(t *testing.T) {
		_, err := m.Latest(ctx, "dogecoin")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("history page 2", func(t *testing.T) {
		items, err := m.History(ctx, "bitcoin", 2, 10)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(items) != 10 {
			t.Fatalf("len(items) = %d, want 10", len(items))
		}
		// Descending: page 2 starts at the 11th newest (price 114).
		if items[0].Price != 114 || items[9].Price != 105 {
			t.Errorf("page spans prices %v..%v, want 114..105", items[0].Price, items[9].Price)
		}
	})

	t.Run("history last partial page", func(t *testing.T) {
		items, err := m.History(ctx, "bitcoin", 3, 10)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(items) != 5 {
			t.Errorf("len(items) = %d, want 5", len(items))
		}
	})

	t.Run("history past the end", func(t *testing.T) {
		items, err := m.History(ctx, "bitcoin", 4, 10)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("len(items) = %d, want 0", len(items))
		}
	})

	t.Run("recent prices", func(t *testing.T) {
		points, err := m.RecentPrices(ctx, "bitcoin", 3)
		if err != nil {
			t.Fatalf("RecentPrices failed: %v", err)
		}
		if len(points) != 3 {
			t.Fatalf("len(points) = %d, want 3", len(points))
		}
		if points[0].Price != 124 || points[2].Price != 122 {
			t.Errorf("points = %v, want newest first 124..122", points)
		}
	})

	t.Run("count", func(t *testing.T) {
		n, err := m.Count(ctx, "bitcoin")
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if n != 25 {
			t.Errorf("Count = %d, want 25", n)
		}
	})
}

func TestMemoryRetention(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	current := base
	m := NewMemory(
		WithRetention(time.Hour),
		WithClock(func() time.Time { return current }),
	)

	if _, err := m.ConditionalInsert(ctx, snap("bitcoin", 100, base)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := m.ConditionalInsert(ctx, snap("bitcoin", 200, base.Add(30*time.Minute))); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Within the window both are visible.
	current = base.Add(45 * time.Minute)
	if n, _ := m.Count(ctx, "bitcoin"); n != 2 {
		t.Fatalf("Count = %d, want 2", n)
	}

	// After the first snapshot ages out, only the second remains.
	current = base.Add(70 * time.Minute)
	if n, _ := m.Count(ctx, "bitcoin"); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
	s, err := m.Latest(ctx, "bitcoin")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if s.Price != 200 {
		t.Errorf("Latest.Price = %v, want 200", s.Price)
	}

	// After both age out the coin reads as empty.
	current = base.Add(3 * time.Hour)
	if _, err := m.Latest(ctx, "bitcoin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
