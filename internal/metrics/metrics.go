package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion outcome metrics
	SignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiplog_signals_ingested_total",
			Help: "Total ingestion calls by provider kind and outcome",
		},
		[]string{"provider", "status"},
	)

	ValidationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiplog_signals_validation_errors_total",
			Help: "Total payloads rejected by provider adapters",
		},
		[]string{"provider"},
	)

	DuplicatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiplog_signals_duplicates_total",
			Help: "Total deliveries dropped by the idempotency guard",
		},
		[]string{"provider"},
	)

	// Persistence metrics
	PersistenceRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shiplog_signals_persistence_retries_total",
			Help: "Total persistence attempts beyond the first",
		},
	)

	DeadLetters = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shiplog_signals_dead_letters_total",
			Help: "Total signals dead-lettered after exhausting retries",
		},
	)

	PersistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shiplog_signals_persist_duration_seconds",
			Help:    "Duration of signal store writes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	NormalizeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shiplog_signals_normalize_duration_seconds",
			Help:    "Duration of parse plus normalization in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiplog_signals_rate_limit_hits_total",
			Help: "Total webhook deliveries rejected by the rate limiter",
		},
		[]string{"provider"},
	)
)
