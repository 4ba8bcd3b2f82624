// Package metrics exposes Prometheus collectors for the vocabulary
// pipeline: remote fetches, parsing outcomes and persistence timings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchTotal counts HTTP fetches by vocabulary and outcome
	// ("success" or "error").
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vocabularies",
		Name:      "fetch_total",
		Help:      "HTTP fetches performed by vocabulary parsers.",
	}, []string{"vocabulary", "outcome"})

	// ParseErrors counts non-critical item errors logged during parsing.
	ParseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vocabularies",
		Name:      "parse_errors_total",
		Help:      "Non-critical errors logged while parsing vocabulary items.",
	}, []string{"vocabulary"})

	// ParseCritical counts parser invocations that ended in a critical
	// failure.
	ParseCritical = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vocabularies",
		Name:      "parse_critical_total",
		Help:      "Parser invocations that failed critically.",
	}, []string{"vocabulary"})

	// LoadDuration observes the time spent persisting one table.
	LoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vocabularies",
		Name:      "load_duration_seconds",
		Help:      "Time spent dropping, recreating and filling one table.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"table"})

	// LoadedRows reports the number of rows persisted per table on the
	// last load.
	LoadedRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "vocabularies",
		Name:      "loaded_rows",
		Help:      "Rows persisted per table on the last load.",
	}, []string{"table"})
)
