package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the bridge
type Metrics struct {
	registry *prometheus.Registry

	// Webhook metrics
	WebhookDeliveriesTotal    *prometheus.CounterVec
	WebhookProcessingDuration prometheus.Histogram
	MessagesNormalizedTotal   prometheus.Counter

	// Agent metrics
	AgentCallsTotal   *prometheus.CounterVec
	AgentCallDuration prometheus.Histogram

	// Platform send metrics
	PlatformSendsTotal *prometheus.CounterVec

	// Notification endpoint metrics
	NotificationRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		WebhookDeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_deliveries_total",
				Help: "Total number of inbound webhook deliveries",
			},
			[]string{"outcome"},
		),
		WebhookProcessingDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "webhook_processing_duration_seconds",
				Help:    "End-to-end processing duration of one webhook delivery",
				Buckets: prometheus.DefBuckets,
			},
		),
		MessagesNormalizedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "messages_normalized_total",
				Help: "Total number of deliveries that yielded a canonical message",
			},
		),

		AgentCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_calls_total",
				Help: "Total number of calls to the agent endpoint",
			},
			[]string{"status"},
		),
		AgentCallDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agent_call_duration_seconds",
				Help:    "Duration of agent endpoint calls",
				Buckets: prometheus.DefBuckets,
			},
		),

		PlatformSendsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platform_sends_total",
				Help: "Total number of outbound sends to the messaging platform",
			},
			[]string{"kind", "status"},
		),

		NotificationRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_requests_total",
				Help: "Total number of task notification requests",
			},
			[]string{"status"},
		),
	}

	m.registerMetrics()

	return m
}

func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.WebhookDeliveriesTotal)
	m.registry.MustRegister(m.WebhookProcessingDuration)
	m.registry.MustRegister(m.MessagesNormalizedTotal)
	m.registry.MustRegister(m.AgentCallsTotal)
	m.registry.MustRegister(m.AgentCallDuration)
	m.registry.MustRegister(m.PlatformSendsTotal)
	m.registry.MustRegister(m.NotificationRequestsTotal)
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
