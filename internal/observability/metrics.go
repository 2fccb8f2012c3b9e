package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "quote_api_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// CacheHits tracks cache hits/misses
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_api_cache_hits_total",
			Help: "Number of cache hits",
		},
		[]string{"operation"},
	)

	// DatabaseOperations tracks database operations
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_api_database_operations_total",
			Help: "Number of database operations",
		},
		[]string{"operation", "status"},
	)

	// QuoteSubmissions tracks quote ingestion outcomes by stage
	QuoteSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_api_quote_submissions_total",
			Help: "Number of quote submissions by outcome stage",
		},
		[]string{"type", "stage"},
	)

	// AttachmentUploads tracks attachment upload outcomes
	AttachmentUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_api_attachment_uploads_total",
			Help: "Number of attachment uploads",
		},
		[]string{"key", "status"},
	)

	// LookupRequests tracks outbound reference-data lookups
	LookupRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_api_lookup_requests_total",
			Help: "Number of CEP/FIPE lookup requests",
		},
		[]string{"provider", "status"},
	)

	// ActiveConnections tracks active connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quote_api_active_connections",
			Help: "Number of active connections",
		},
	)
)
