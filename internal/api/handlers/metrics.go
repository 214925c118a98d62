package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompthero_catalog_queries_total",
			Help: "Total number of catalog list and search queries by kind and status.",
		},
		[]string{"kind", "status"},
	)

	catalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prompthero_catalog_query_duration_seconds",
			Help:    "Latency of catalog list and search queries.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	catalogResultsReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "prompthero_catalog_results_total",
		Help:    "Number of matching prompts per catalog query.",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
	})

	promptOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompthero_prompt_operations_total",
			Help: "Total number of single-prompt operations by status.",
		},
		[]string{"operation", "status"},
	)
)
