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

	// CustodyEventsTotal counts committed ledger events by type
	// (assigned, unassigned, transferred).
	CustodyEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custody_events_total",
			Help: "Total number of committed custody ledger events by type",
		},
		[]string{"type"},
	)

	// TransferRequestsTotal counts transfer request transitions by outcome
	// (created, approved, rejected, cancelled).
	TransferRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_requests_total",
			Help: "Total number of transfer request transitions by outcome",
		},
		[]string{"outcome"},
	)
)

var numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)

func init() {
	prometheus.MustRegister(RequestDuration, RequestTotal, CustodyEventsTotal, TransferRequestsTotal)
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /api/resources/123/history -> /api/resources/{id}/history.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCustodyEvent increments the ledger event counter for a type.
func RecordCustodyEvent(eventType string) {
	CustodyEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordTransferOutcome increments the transfer request counter for an outcome.
func RecordTransferOutcome(outcome string) {
	TransferRequestsTotal.WithLabelValues(outcome).Inc()
}
