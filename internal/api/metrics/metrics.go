// Package metrics defines the Prometheus metrics of the fake library
// backend. They are exposed on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lms_fakeapi"

// AuthAttemptsTotal counts authentication attempts.
// Labels:
//   - endpoint: "login", "register" or "validate"
//   - result: "success" or "failure"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by endpoint and result.",
	},
	[]string{"endpoint", "result"},
)

// LoanActionsTotal counts successful loan state changes.
// Label:
//   - action: "borrow", "renew", "return", "create", "extend" or "delete"
var LoanActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loan_actions_total",
		Help:      "Total number of loan state changes, by action.",
	},
	[]string{"action"},
)

// ObserveAuth records one authentication attempt.
func ObserveAuth(endpoint string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	AuthAttemptsTotal.WithLabelValues(endpoint, result).Inc()
}
