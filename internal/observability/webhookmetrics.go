package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WebhookMetrics counts ingestion pipeline outcomes per event type.
type WebhookMetrics struct {
	deliveriesTotal *prometheus.CounterVec
	handlerFailures *prometheus.CounterVec
	persistFailures prometheus.Counter
}

func NewWebhookMetrics() *WebhookMetrics {
	return &WebhookMetrics{
		deliveriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payhook",
			Subsystem: "webhook",
			Name:      "deliveries_total",
			Help:      "Webhook deliveries by event type and result.",
		}, []string{"event_type", "result"}),
		handlerFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payhook",
			Subsystem: "webhook",
			Name:      "handler_failures_total",
			Help:      "Contained per-type handler failures.",
		}, []string{"event_type"}),
		persistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "payhook",
			Subsystem: "webhook",
			Name:      "persist_failures_total",
			Help:      "Failures writing the last-event slot.",
		}),
	}
}

func (m *WebhookMetrics) DeliveryAccepted(eventType string, handled bool) {
	if m == nil {
		return
	}
	result := "accepted"
	if !handled {
		result = "accepted_unhandled"
	}
	m.deliveriesTotal.WithLabelValues(eventType, result).Inc()
}

func (m *WebhookMetrics) DeliveryRejected() {
	if m == nil {
		return
	}
	m.deliveriesTotal.WithLabelValues("unverified", "rejected").Inc()
}

func (m *WebhookMetrics) HandlerFailed(eventType string) {
	if m == nil {
		return
	}
	m.handlerFailures.WithLabelValues(eventType).Inc()
}

func (m *WebhookMetrics) PersistFailed() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}
