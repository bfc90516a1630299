package prometheus

import (
	"time"

	"stocktake-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Tenant context metrics
	TenantContextMissingCounter prometheus.Counter

	// Scan handling metrics
	ScansAcceptedCounter   prometheus.Counter
	ScansSuppressedCounter prometheus.Counter

	// Reconciliation metrics
	ReconcileOperationsCounter prometheus.CounterVec
	BatchRowsCounter           prometheus.CounterVec

	// Ledger metrics
	LedgerAppendsCounter prometheus.Counter
	LedgerQtyAddedTotal  prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Taxonomy metrics
	TaxonomyOperationsCounter prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Tenant context metrics
	TenantContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_context_missing_total",
			Help: "Total number of requests without tenant context",
		},
	)

	// Scan handling metrics
	ScansAcceptedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_scans_accepted_total",
			Help: "Total number of scan signals forwarded to barcode lookup",
		},
	)

	ScansSuppressedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_scans_suppressed_total",
			Help: "Total number of scan signals suppressed by the debouncer",
		},
	)

	// Reconciliation metrics, labelled by outcome (saved, validation_failed,
	// persistence_failed, ledger_failed)
	ReconcileOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_reconcile_operations_total",
			Help: "Total number of reconcile operations by outcome",
		},
		[]string{"outcome"},
	)

	// Batch rows, labelled by outcome (committed, failed, skipped)
	BatchRowsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_batch_rows_total",
			Help: "Total number of bulk entry rows by outcome",
		},
		[]string{"outcome"},
	)

	// Ledger metrics
	LedgerAppendsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_ledger_appends_total",
			Help: "Total number of inventory adjustment rows appended",
		},
	)

	LedgerQtyAddedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_ledger_qty_added_total",
			Help: "Total quantity added across all ledger appends",
		},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Taxonomy metrics
	TaxonomyOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_taxonomy_operations_total",
			Help: "Total number of taxonomy operations",
		},
		[]string{"operation"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordReconcileOperation increments the counter for reconcile outcomes
func RecordReconcileOperation(outcome string) {
	ReconcileOperationsCounter.WithLabelValues(outcome).Inc()
}

// RecordBatchRow increments the counter for a bulk entry row outcome
func RecordBatchRow(outcome string) {
	BatchRowsCounter.WithLabelValues(outcome).Inc()
}

// RecordLedgerAppend records one appended adjustment and its quantity
func RecordLedgerAppend(qtyAdded int) {
	LedgerAppendsCounter.Inc()
	LedgerQtyAddedTotal.Add(float64(qtyAdded))
}

// RecordTaxonomyOperation increments the counter for taxonomy operations
func RecordTaxonomyOperation(operation string) {
	TaxonomyOperationsCounter.WithLabelValues(operation).Inc()
}
