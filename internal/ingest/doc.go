// Package ingest implements the fetch-normalize-persist pipeline.
//
// The Cycle:
//   - Captures one timestamp per run so a cycle yields one consistent
//     cross-asset time slice
//   - Fetches all configured coins in a single batch request
//   - Normalizes each quote independently; one bad entry never blocks
//     the rest
//   - Writes via conditional insert, absorbing duplicate keys as benign
//
// The Scheduler fires a cycle immediately on start and then on a fixed
// period. It never serializes cycles: overlap is safe because the store
// key (coin, timestamp) absorbs races, and a failed or panicking cycle
// never stops future triggers.
package ingest
