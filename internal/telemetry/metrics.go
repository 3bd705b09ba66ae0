package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics tracked per spec.md §4.3 (pool validations/failures/reconnections),
// §4.7 (enrichment skip count), §4.6 (event bus backpressure drops), and
// §4.10 (executed query outcomes by risk level).
var (
	PoolValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aishell",
			Subsystem: "pool",
			Name:      "validations_total",
			Help:      "Total number of connection validation attempts on acquire.",
		},
		[]string{"db_type"},
	)

	PoolValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aishell",
			Subsystem: "pool",
			Name:      "validation_failures_total",
			Help:      "Total number of failed connection validations.",
		},
		[]string{"db_type"},
	)

	PoolReconnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aishell",
			Subsystem: "pool",
			Name:      "reconnections_total",
			Help:      "Total number of connections discarded and replaced after failed validation.",
		},
		[]string{"db_type"},
	)

	EventBusDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aishell",
			Subsystem: "eventbus",
			Name:      "dropped_total",
			Help:      "Total number of non-critical events dropped due to backpressure.",
		},
		[]string{"topic"},
	)

	EnrichmentSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aishell",
			Subsystem: "enrichment",
			Name:      "skipped_total",
			Help:      "Total number of enrichment requests skipped for being stale or superseded.",
		},
	)

	QueriesExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aishell",
			Subsystem: "sql",
			Name:      "queries_executed_total",
			Help:      "Total number of user SQL statements executed, by risk level and outcome.",
		},
		[]string{"risk_level", "outcome"},
	)
)

// All returns every AI-Shell-specific collector for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		PoolValidationsTotal,
		PoolValidationFailuresTotal,
		PoolReconnectionsTotal,
		EventBusDroppedTotal,
		EnrichmentSkippedTotal,
		QueriesExecutedTotal,
	}
}

// NewMetricsRegistry creates a Prometheus registry with Go/process collectors
// plus any additional collectors passed in.
func NewMetricsRegistry(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, c := range extra {
		reg.MustRegister(c)
	}
	return reg
}
