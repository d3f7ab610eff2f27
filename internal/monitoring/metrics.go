// Package monitoring exposes Prometheus metrics for the order, payment and
// webhook pipelines.
package monitoring

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	ordersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total orders created",
		},
	)

	orderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Total order status transitions",
		},
		[]string{"from", "to"},
	)

	providerCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_provider_calls_total",
			Help: "Total payment provider API calls",
		},
		[]string{"operation", "result"},
	)

	webhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Total webhook delivery attempts",
		},
		[]string{"result"},
	)
)

// TrackHTTPRequest records the latency of one served request.
func TrackHTTPRequest(method string, status int, seconds float64) {
	httpRequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(seconds)
}

// TrackOrderCreated counts a freshly created order.
func TrackOrderCreated() {
	ordersCreated.Inc()
}

// TrackOrderTransition counts an applied order status transition.
func TrackOrderTransition(from, to string) {
	orderTransitions.WithLabelValues(from, to).Inc()
}

// TrackProviderCall counts a payment provider API call.
func TrackProviderCall(operation, result string) {
	providerCalls.WithLabelValues(operation, result).Inc()
}

// TrackWebhookDelivery counts a webhook delivery attempt by outcome.
func TrackWebhookDelivery(result string) {
	webhookDeliveries.WithLabelValues(result).Inc()
}
