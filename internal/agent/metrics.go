package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// stagesTotal counts pipeline stage outcomes.
	// Labels: stage (classify, decompose, search, synthesize),
	// result (ok, error, parse_error).
	stagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finrag",
			Subsystem: "agent",
			Name:      "stages_total",
			Help:      "Total pipeline stage executions by stage and outcome",
		},
		[]string{"stage", "result"},
	)

	// fallbacksTotal counts which synthesis recovery strategy produced the
	// answer. strict_json is the happy path; everything after it is a
	// fallback.
	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finrag",
			Subsystem: "agent",
			Name:      "synthesis_strategy_total",
			Help:      "Synthesis responses by the recovery strategy that parsed them",
		},
		[]string{"strategy"},
	)

	// queryDuration tracks end-to-end pipeline latency.
	queryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "finrag",
			Subsystem: "agent",
			Name:      "query_duration_seconds",
			Help:      "End-to-end duration of query answering in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
