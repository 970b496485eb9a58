// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch metrics track the two-path retrieval pipeline
var (
	// FetchAttemptsTotal counts fetch attempts by transport path and result
	FetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_attempts_total",
			Help: "Total number of fetch attempts",
		},
		[]string{"path", "result"}, // path: primary, fallback; result: success, failure
	)

	// FetchFallbacksTotal counts logical requests that escalated to the
	// external-process fallback path
	FetchFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fetch_fallbacks_total",
			Help: "Total number of requests escalated to the fallback transport",
		},
	)

	// FetchDuration measures per-attempt fetch duration in seconds
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetch_duration_seconds",
			Help:    "Fetch attempt duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"path"},
	)
)

// Credential metrics track key-value store lookups
var (
	// CredentialLookupsTotal counts credential store lookups by result
	CredentialLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credential_lookups_total",
			Help: "Total number of credential store lookups",
		},
		[]string{"result"}, // result: hit, miss, fallback
	)
)

// Download metrics track rendered image retrieval
var (
	// ImageDownloadsTotal counts image downloads by result
	ImageDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_downloads_total",
			Help: "Total number of image downloads",
		},
		[]string{"result"}, // result: success, failure, skipped
	)

	// ImageDownloadBytes measures downloaded image sizes in bytes
	ImageDownloadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "image_download_bytes",
			Help: "Downloaded image size in bytes",
			Buckets: []float64{
				1024, 4096, 16384, 65536, 262144,
				1048576, 4194304, 16777216, // up to 16MB
			},
		},
	)
)

// RecordFetchAttempt records one attempt on the given transport path.
func RecordFetchAttempt(path, result string, duration time.Duration) {
	FetchAttemptsTotal.WithLabelValues(path, result).Inc()
	FetchDuration.WithLabelValues(path).Observe(duration.Seconds())
}
