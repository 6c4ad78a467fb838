// Package model defines shared data types used across the coinwatch tracker.
//
// Conventions:
//   - Prices: float64, quoted in the configured vs_currency (USD by default)
//   - Timestamps: time.Time in UTC, truncated to the second at capture
//   - IDs: coin slugs as used by the upstream feed (e.g., "bitcoin")
package model
