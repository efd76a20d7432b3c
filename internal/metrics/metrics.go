// Package metrics provides Prometheus metrics for the assistant backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors, registered on a private registry so that
// several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	ChatRequestsTotal *prometheus.CounterVec
	UpstreamDuration  prometheus.Histogram
	LeadsTotal        *prometheus.CounterVec
	ContactTotal      *prometheus.CounterVec
	WidgetConnections prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ChatRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dentalchat_chat_requests_total",
				Help: "Chat completion requests from the proxy and the widget by outcome",
			},
			[]string{"outcome"},
		),
		UpstreamDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dentalchat_upstream_duration_seconds",
				Help:    "Latency of upstream chat completions",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
		),
		LeadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dentalchat_leads_total",
				Help: "Lead submissions by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		ContactTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dentalchat_contact_messages_total",
				Help: "Contact form submissions by outcome",
			},
			[]string{"outcome"},
		),
		WidgetConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dentalchat_widget_connections",
				Help: "Open chat widget connections",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
