package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchBatch(t *testing.T) {
	t.Run("single batched request", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)

			q := r.URL.Query()
			if got := q.Get("ids"); got != "bitcoin,ethereum,matic-network" {
				t.Errorf("ids = %q, want all coins in one request", got)
			}
			if got := q.Get("vs_currency"); got != "usd" {
				t.Errorf("vs_currency = %q, want %q", got, "usd")
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				{"id": "bitcoin", "current_price": 64000, "market_cap": 1.2e12, "price_change_percentage_24h": 0.5},
				{"id": "ethereum", "current_price": 3400},
				{"id": "matic-network", "current_price": 0.72}
			]`))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		quotes, err := c.FetchBatch(context.Background(), []string{"bitcoin", "ethereum", "matic-network"})
		if err != nil {
			t.Fatalf("FetchBatch failed: %v", err)
		}

		if len(quotes) != 3 {
			t.Fatalf("len(quotes) = %d, want 3", len(quotes))
		}
		if quotes[0].ID != "bitcoin" || *quotes[0].Price != 64000 {
			t.Errorf("quotes[0] = %+v", quotes[0])
		}
		if quotes[1].MarketCap != nil {
			t.Errorf("quotes[1].MarketCap = %v, want nil", quotes[1].MarketCap)
		}
		if got := requests.Load(); got != 1 {
			t.Errorf("requests = %d, want 1", got)
		}
	})

	t.Run("empty id list short-circuits", func(t *testing.T) {
		c := NewClient("http://unreachable.invalid")
		quotes, err := c.FetchBatch(context.Background(), nil)
		if err != nil {
			t.Fatalf("FetchBatch failed: %v", err)
		}
		if quotes != nil {
			t.Errorf("quotes = %v, want nil", quotes)
		}
	})

	t.Run("retries upstream errors", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requests.Add(1) < 3 {
				http.Error(w, "bad gateway", http.StatusBadGateway)
				return
			}
			w.Write([]byte(`[{"id": "bitcoin", "current_price": 64000}]`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(3, time.Millisecond))
		quotes, err := c.FetchBatch(context.Background(), []string{"bitcoin"})
		if err != nil {
			t.Fatalf("FetchBatch failed: %v", err)
		}
		if len(quotes) != 1 {
			t.Fatalf("len(quotes) = %d, want 1", len(quotes))
		}
		if got := requests.Load(); got != 3 {
			t.Errorf("requests = %d, want 3", got)
		}
	})

	t.Run("exhausted retries surface upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(2, time.Millisecond))
		_, err := c.FetchBatch(context.Background(), []string{"bitcoin"})
		if err == nil {
			t.Fatal("expected error")
		}

		var upErr *UpstreamError
		if !errors.As(err, &upErr) {
			t.Fatalf("error = %v, want *UpstreamError", err)
		}
		if upErr.Status != http.StatusInternalServerError {
			t.Errorf("Status = %d, want 500", upErr.Status)
		}
	})

	t.Run("429 is not retried", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(3, time.Millisecond))
		_, err := c.FetchBatch(context.Background(), []string{"bitcoin"})

		var rateErr *RateLimitError
		if !errors.As(err, &rateErr) {
			t.Fatalf("error = %v, want *RateLimitError", err)
		}
		if rateErr.RetryAfter != "60" {
			t.Errorf("RetryAfter = %q, want %q", rateErr.RetryAfter, "60")
		}
		if got := requests.Load(); got != 1 {
			t.Errorf("requests = %d, want 1 (no retry on 429)", got)
		}
	})

	t.Run("retries transport errors", func(t *testing.T) {
		// Server that is already closed produces connection refused.
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		addr := server.URL
		server.Close()

		c := NewClient(addr, WithRetries(2, time.Millisecond))
		_, err := c.FetchBatch(context.Background(), []string{"bitcoin"})
		if err == nil {
			t.Fatal("expected transport error")
		}
		var rateErr *RateLimitError
		var upErr *UpstreamError
		if errors.As(err, &rateErr) || errors.As(err, &upErr) {
			t.Errorf("error = %v, want plain transport error", err)
		}
	})

	t.Run("context cancellation stops retries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := NewClient(server.URL, WithRetries(3, time.Hour))
		_, err := c.FetchBatch(ctx, []string{"bitcoin"})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}
