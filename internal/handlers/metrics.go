package handlers

import "github.com/prometheus/client_golang/prometheus"

type WebhookMetrics struct {
	PublishRequests *prometheus.CounterVec
}

func (m *WebhookMetrics) IncPublish(status string) {
	if m == nil || m.PublishRequests == nil {
		return
	}

	m.PublishRequests.WithLabelValues(status).Inc()
}
