// Package server exposes the read-side HTTP API.
//
// Routes mirror the query operations of the statistics engine:
// /coins, /stats, /deviation, /history, /compare, plus /health.
// Parameter validation happens here; domain errors map to 400/404 and
// anything unexpected to a 500 that never leaks store wiring details.
package server
