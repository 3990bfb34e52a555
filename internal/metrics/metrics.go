package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Consumer metrics
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_events_consumed_total",
			Help: "Total number of events received from the bus",
		},
		[]string{"stream"},
	)

	EventsArchived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_events_archived_total",
			Help: "Total number of events written to the archive",
		},
		[]string{"stream"},
	)

	DuplicateEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_duplicate_events_total",
			Help: "Total number of duplicate deliveries skipped by the dedup gate",
		},
		[]string{"stream"},
	)

	MalformedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_malformed_events_total",
			Help: "Total number of undecodable messages acknowledged and skipped",
		},
		[]string{"stream"},
	)

	ValidationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archive_validation_failures_total",
			Help: "Total number of payloads archived with missing required fields",
		},
	)

	// Storage metrics
	StorageErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archive_storage_errors_total",
			Help: "Total number of transient storage failures",
		},
	)

	ArchiveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "archive_insert_duration_seconds",
			Help:    "Duration of archive insert operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// KPI metrics
	KpiComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_kpi_computations_total",
			Help: "Total number of KPI computations",
		},
		[]string{"trigger", "status"},
	)

	KpiDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "archive_kpi_duration_seconds",
			Help:    "Duration of KPI computations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Retention metrics
	RecordsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archive_records_swept_total",
			Help: "Total number of archive records removed by the retention sweeper",
		},
	)

	SweepErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archive_sweep_errors_total",
			Help: "Total number of failed retention sweeps",
		},
	)

	// Notification metrics
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_notifications_sent_total",
			Help: "Total number of best-effort update notifications published",
		},
		[]string{"type", "status"},
	)
)
