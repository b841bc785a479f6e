package detection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the detection pipeline.
var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querywatch_runs_total",
			Help: "Detection runs by trigger and final status",
		},
		[]string{"trigger", "status"},
	)

	findingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querywatch_findings_total",
			Help: "Findings produced by anomaly type",
		},
		[]string{"anomaly_type"},
	)

	recordsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querywatch_records_fetched_total",
			Help: "Query-log records fetched from the source by window",
		},
		[]string{"window"},
	)

	sinkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querywatch_sink_failures_total",
			Help: "Failed finding deliveries by sink",
		},
		[]string{"sink"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querywatch_run_duration_seconds",
			Help:    "Wall-clock duration of detection runs",
			Buckets: prometheus.DefBuckets,
		},
	)
)
