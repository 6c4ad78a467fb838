// Package store provides durable snapshot persistence.
//
// The SnapshotStore port exposes a conditional insert keyed on
// (coin, timestamp) plus the read paths the query layer needs. Two
// implementations exist:
//   - Postgres: pgx pool, dedup via ON CONFLICT DO NOTHING, optional
//     background retention sweep
//   - Memory: mutex-guarded map, used by tests and dependency-free runs
//
// Uniqueness is enforced at the store boundary, never as an application
// pre-check, so concurrent or retried cycles cannot race past it.
package store
