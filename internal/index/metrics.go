package index

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// chunksTotal tracks the number of chunks currently indexed.
	chunksTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "finrag",
			Subsystem: "index",
			Name:      "chunks_total",
			Help:      "Number of chunks currently stored in the embedding index",
		},
	)

	// searchesTotal counts index search operations.
	searchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "finrag",
			Subsystem: "index",
			Name:      "searches_total",
			Help:      "Total number of index search operations",
		},
	)

	// searchDuration tracks how long index searches take.
	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "finrag",
			Subsystem: "index",
			Name:      "search_duration_seconds",
			Help:      "Duration of index search operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
