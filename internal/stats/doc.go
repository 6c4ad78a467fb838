// Package stats implements the read-side query engine.
//
// All operations are pure reads over the snapshot store: latest value,
// price dispersion over a recent window, paginated history, and
// multi-coin comparison. Every operation rejects coins outside the
// configured supported set before touching the store.
package stats
