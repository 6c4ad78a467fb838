package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion metrics, labeled where a cycle can end in distinct ways.
var (
	// CyclesTotal counts completed ingestion cycles by outcome:
	// "ok", "rate_limited", "fetch_failed".
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coinwatch",
		Name:      "ingest_cycles_total",
		Help:      "Completed ingestion cycles by outcome.",
	}, []string{"outcome"})

	// SnapshotsSaved counts snapshots persisted.
	SnapshotsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coinwatch",
		Name:      "snapshots_saved_total",
		Help:      "Snapshots written to the store.",
	})

	// SnapshotsSkipped counts quotes dropped before persistence
	// (bad price) or absorbed as duplicates.
	SnapshotsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coinwatch",
		Name:      "snapshots_skipped_total",
		Help:      "Quotes skipped (invalid price or duplicate key).",
	})

	// SnapshotsFailed counts per-coin store write failures.
	SnapshotsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coinwatch",
		Name:      "snapshots_failed_total",
		Help:      "Snapshots that failed to persist.",
	})

	// CycleDuration observes wall time per ingestion cycle.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "coinwatch",
		Name:      "ingest_cycle_duration_seconds",
		Help:      "Duration of ingestion cycles.",
		Buckets:   prometheus.DefBuckets,
	})
)
