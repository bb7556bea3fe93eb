// Package metrics provides Prometheus metrics for the fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationsTotal counts document generations by action and outcome
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "generation",
			Name:      "total",
			Help:      "Total number of document generations by action and status",
		},
		[]string{"action", "status"},
	)

	// GenerationDuration tracks end to end generation time
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Duration of document generations in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"action"},
	)

	// GenerationFailures counts failed generations by error kind and stage
	GenerationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "generation",
			Name:      "failures_total",
			Help:      "Total number of failed document generations by error kind and stage",
		},
		[]string{"kind", "stage"},
	)

	// MergeServiceRequestsTotal tracks calls to the merge service
	MergeServiceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "merge_service",
			Name:      "requests_total",
			Help:      "Total number of merge service requests",
		},
		[]string{"status_code"},
	)

	// MergeServiceRequestDuration tracks merge service latency
	MergeServiceRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "merge_service",
			Name:      "request_duration_seconds",
			Help:      "Duration of merge service requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// MalformedTimestampFormats counts file name timestamp tokens whose format could not be
	// used and were replaced with an empty string
	MalformedTimestampFormats = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "filename",
			Name:      "malformed_timestamp_formats_total",
			Help:      "Total number of malformed timestamp formats in file name templates",
		},
	)

	// RecordFetchDuration tracks record store queries
	RecordFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "database",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of record store fetches in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"entity"},
	)

	// SchemaCacheLookups counts schema cache hits and misses
	SchemaCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "schema_cache",
			Name:      "lookups_total",
			Help:      "Total number of schema cache lookups by result",
		},
		[]string{"result"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)
)

// RecordGeneration records a finished generation
func RecordGeneration(action, status string, durationSeconds float64) {
	GenerationsTotal.WithLabelValues(action, status).Inc()
	GenerationDuration.WithLabelValues(action).Observe(durationSeconds)
}

func RecordGenerationFailure(kind, stage string) {
	GenerationFailures.WithLabelValues(kind, stage).Inc()
}

// RecordMergeServiceRequest records a merge service call
func RecordMergeServiceRequest(statusCode string, durationSeconds float64) {
	MergeServiceRequestsTotal.WithLabelValues(statusCode).Inc()
	MergeServiceRequestDuration.Observe(durationSeconds)
}

func RecordMalformedTimestamp() {
	MalformedTimestampFormats.Inc()
}

func RecordFetch(entity string, durationSeconds float64) {
	RecordFetchDuration.WithLabelValues(entity).Observe(durationSeconds)
}

func RecordSchemaCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	SchemaCacheLookups.WithLabelValues(result).Inc()
}

func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
