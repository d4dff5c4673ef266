// Package metrics exposes Prometheus collectors for the discovery service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_dispatch_total",
			Help: "Total number of actor runs requested, labeled by platform and status.",
		},
		[]string{"platform", "status"},
	)

	webhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_webhook_events_total",
			Help: "Total number of webhook events handled, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	recordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_records_total",
			Help: "Total number of dataset items seen by the selector, labeled by result.",
		},
		[]string{"result"},
	)

	upsertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_upserts_total",
			Help: "Total number of competitor upserts, labeled by status.",
		},
		[]string{"status"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Record results for ObserveRecords.
const (
	RecordRecognized   = "recognized"
	RecordUnrecognized = "unrecognized"
	RecordTruncated    = "truncated"
)

// Upsert statuses for ObserveUpsert.
const (
	UpsertSaved   = "saved"
	UpsertFailed  = "failed"
	UpsertSkipped = "skipped"
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDispatch records one actor run request.
func ObserveDispatch(platform, status string) {
	dispatchTotal.WithLabelValues(platform, status).Inc()
}

// ObserveWebhook records the terminal outcome of one webhook event.
func ObserveWebhook(outcome string) {
	webhookEventsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRecords adds n items with the given selector result.
func ObserveRecords(result string, n int) {
	if n <= 0 {
		return
	}
	recordsTotal.WithLabelValues(result).Add(float64(n))
}

// ObserveUpsert records one upsert attempt.
func ObserveUpsert(status string) {
	upsertsTotal.WithLabelValues(status).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
