// Package metrics defines the Prometheus instruments exported by the
// tracker. The metrics HTTP endpoint itself is wired in cmd/tracker
// via promhttp on the configured port and path.
package metrics
