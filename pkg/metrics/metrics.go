package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IssuedCraftIDs counts issuance attempts by operation (create|add_product) and
	// result (created|existing|conflict|invalid|error).
	IssuedCraftIDs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craftid_issued_total",
			Help: "Total number of CraftID issuance attempts",
		},
		[]string{"operation", "result"},
	)

	// StoreLatency measures record store calls by operation and outcome (ok|duplicate|timeout|error).
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "craftid_store_latency_seconds",
			Help:    "Record store call latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 4},
		},
		[]string{"operation", "outcome"},
	)

	// Records tracks the number of persisted CraftID records, refreshed periodically.
	Records = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "craftid_records",
			Help: "Number of persisted CraftID records",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "craftid_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// MaintenanceRuns counts background job runs by job and result.
var MaintenanceRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "craftid_maintenance_runs_total",
		Help: "Background maintenance job runs",
	},
	[]string{"job", "result"},
)
