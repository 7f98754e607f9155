// Package metrics exposes Prometheus instrumentation for the backend.
// Collectors are registered on a dedicated registry so tests can create
// isolated instances without global-registry collisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors for the backend.
type Metrics struct {
	registry *prometheus.Registry

	// ChatRequests counts chat requests by mode ("live" | "degraded") and
	// outcome ("ok" | "error" | "rejected").
	ChatRequests *prometheus.CounterVec

	// StreamEvents counts emitted stream events by type ("content" | "error" | "done").
	StreamEvents *prometheus.CounterVec

	// UpstreamErrors counts classified upstream failures by kind.
	UpstreamErrors *prometheus.CounterVec

	// VisitsTracked counts page views recorded by the analytics pipeline.
	VisitsTracked prometheus.Counter

	// ContactRelays counts contact-form submissions by outcome
	// ("sent" | "failed" | "unconfigured" | "rejected").
	ContactRelays *prometheus.CounterVec
}

// New creates a Metrics set on a fresh registry, including the standard Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		ChatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "chat_requests_total",
			Help:      "Chat requests by relay mode and outcome.",
		}, []string{"mode", "outcome"}),
		StreamEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "chat_stream_events_total",
			Help:      "Stream events emitted to clients by type.",
		}, []string{"type"}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "chat_upstream_errors_total",
			Help:      "Classified upstream completion failures by kind.",
		}, []string{"kind"}),
		VisitsTracked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "visits_tracked_total",
			Help:      "Page views recorded by the analytics pipeline.",
		}),
		ContactRelays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "contact_relays_total",
			Help:      "Contact form submissions by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.ChatRequests,
		m.StreamEvents,
		m.UpstreamErrors,
		m.VisitsTracked,
		m.ContactRelays,
	)
	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
