package metrics

import (
	"regexp"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HydrationCacheOps counts asset hydration cache lookups by result (hit, miss).
	HydrationCacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_hydration_cache_ops_total",
			Help: "Asset hydration cache lookups by result",
		},
		[]string{"result"},
	)

	// ViewRecomputeDuration tracks the filter+sort recompute time per collection size bucket.
	ViewRecomputeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inventory_view_recompute_seconds",
			Help:    "Time to recompute the filtered and sorted inventory view",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)

	// ImportRecords counts bulk-import records by outcome (created, rejected, failed).
	ImportRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_import_records_total",
			Help: "Bulk import records by outcome",
		},
		[]string{"outcome"},
	)

	// OverdueReviewAssets is the number of assets whose next review date has passed,
	// updated by the review sweeper.
	OverdueReviewAssets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "assets_overdue_review",
			Help: "Assets whose next review date is in the past",
		},
	)
)

var numericPathSegment = regexp.MustCompile(`/[0-9a-f]{8}-[0-9a-f-]{27}(/|$)`)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestTotal,
		HydrationCacheOps, ViewRecomputeDuration,
		ImportRecords, OverdueReviewAssets,
	)
}

// NormalizePath reduces metric cardinality by replacing uuid path segments
// with {id}. E.g. /v1/assets/6f1c... -> /v1/assets/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from
// middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// CacheHit records a hydration cache hit.
func CacheHit() { HydrationCacheOps.WithLabelValues("hit").Inc() }

// CacheMiss records a hydration cache miss.
func CacheMiss() { HydrationCacheOps.WithLabelValues("miss").Inc() }

// ObserveRecompute records one view recompute duration.
func ObserveRecompute(seconds float64) { ViewRecomputeDuration.Observe(seconds) }

// CountImport records one bulk-import record outcome (created, rejected, failed).
func CountImport(outcome string) { ImportRecords.WithLabelValues(outcome).Inc() }

// SetOverdueReviews updates the overdue-review gauge.
func SetOverdueReviews(n int) { OverdueReviewAssets.Set(float64(n)) }
