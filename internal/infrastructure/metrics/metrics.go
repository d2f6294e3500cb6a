// Package metrics defines the Prometheus metrics recorded by the API client.
// It is the single source of truth for metric names, labels and help strings.
//
// Metrics are registered with the default registry on package init.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ntuclms/lms-client/internal/core/ports"
)

const namespace = "lms_client"

// Dispatch outcomes, used as the "outcome" label.
const (
	OutcomeSuccess      = "success"
	OutcomeAuthFailure  = "auth_failure"
	OutcomeHTTPError    = "http_error"
	OutcomeNetworkError = "network_error"
	OutcomeDecodeError  = "decode_error"
)

// RequestsTotal counts dispatched requests.
// Labels:
//   - method: HTTP method
//   - outcome: one of the Outcome* constants
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total number of backend requests dispatched, by outcome.",
	},
	[]string{"method", "outcome"},
)

// RequestDuration measures the time from send to a fully read response.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of backend requests including reading the body.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// SessionInvalidationsTotal counts dropped sessions.
// Label:
//   - reason: "authentication_failed" or "logout"
var SessionInvalidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_invalidations_total",
		Help:      "Total number of sessions invalidated, by reason.",
	},
	[]string{"reason"},
)

// ObserveRequest records one finished dispatch.
func ObserveRequest(method, outcome string, d time.Duration) {
	RequestsTotal.WithLabelValues(method, outcome).Inc()
	RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// CountingObserver counts session invalidations by reason before passing
// them on to next. next may be nil.
func CountingObserver(next ports.SessionObserver) ports.SessionObserver {
	return ports.ObserverFunc(func(reason ports.InvalidationReason) {
		SessionInvalidationsTotal.WithLabelValues(string(reason)).Inc()
		if next != nil {
			next.SessionInvalidated(reason)
		}
	})
}
