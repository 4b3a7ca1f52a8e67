package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Proxy metrics, exposed on /metrics.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clarity_requests_total",
		Help: "Total /api/generate requests handled, by action and response code.",
	}, []string{"action", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clarity_request_duration_seconds",
		Help:    "Latency of /api/generate requests, by action.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	upstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clarity_upstream_failures_total",
		Help: "Upstream call failures, by classified reason.",
	}, []string{"reason"})
)

// labelAction collapses unknown action tags into one label value to keep
// metric cardinality bounded.
func labelAction(action string) string {
	switch action {
	case ActionFast, ActionClarifyQuestions, ActionClarifyFinal:
		return action
	default:
		return "unknown"
	}
}
