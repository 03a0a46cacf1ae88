package memo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeHit    = "hit"
	outcomeHotHit = "hot_hit"
	outcomeMiss   = "miss"

	errorKindOverflow = "overflow"
	errorKindStorage  = "storage"
)

var (
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sumcache_lookups_total",
			Help: "Fingerprint lookups by outcome",
		},
		[]string{"outcome"},
	)

	insertConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sumcache_insert_conflicts_total",
			Help: "Inserts that lost a race to another writer and adopted its record",
		},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sumcache_errors_total",
			Help: "Failed ComputeOrFetch calls by kind",
		},
		[]string{"kind"},
	)

	computeSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sumcache_compute_seconds",
			Help:    "Time spent summing inputs on a miss",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)
)
