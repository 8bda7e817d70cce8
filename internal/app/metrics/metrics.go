// Package metrics holds the gateway's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the gateway-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pos_gateway",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pos_gateway",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pos_gateway",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	gateDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pos_gateway",
			Subsystem: "routegate",
			Name:      "decisions_total",
			Help:      "Route gate outcomes per action.",
		},
		[]string{"action"},
	)

	paymentsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pos_gateway",
			Subsystem: "settlement",
			Name:      "payments_total",
			Help:      "Total number of payment submissions.",
		},
		[]string{"outcome"},
	)

	refunds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pos_gateway",
			Subsystem: "reports",
			Name:      "refunds_total",
			Help:      "Total number of refunds issued.",
		},
	)
)

func init() {
	Registry.MustRegister(httpInFlight, httpRequests, httpDuration, gateDecisions, paymentsSubmitted, refunds)
}

// Handler serves the registry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// IncrementInFlight marks one more request in flight.
func IncrementInFlight() { httpInFlight.Inc() }

// DecrementInFlight marks one request done.
func DecrementInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGateDecision counts a route-gate outcome ("allow", "login", "home").
func RecordGateDecision(action string) {
	gateDecisions.WithLabelValues(action).Inc()
}

// RecordPayment counts a payment submission outcome ("success", "conflict",
// "error").
func RecordPayment(outcome string) {
	paymentsSubmitted.WithLabelValues(outcome).Inc()
}

// RecordRefund counts an issued refund.
func RecordRefund() { refunds.Inc() }
