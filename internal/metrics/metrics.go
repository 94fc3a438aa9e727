// Package metrics exposes the hub's derived VoiceStats as Prometheus
// gauges on GET /metrics. It reads a Stats snapshot handed to it after
// each presence broadcast rather than touching any live registry
// itself, so scraping never competes for the signaling engine's lock.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/duskline/voicehub/internal/voicestats"
)

// Metrics holds the gauge set and the registry they're bound to.
type Metrics struct {
	registry *prometheus.Registry

	sessionsNamed  prometheus.Gauge
	activeCalls    prometheus.Gauge
	peerLinks      prometheus.Gauge
	relayPortsUsed prometheus.Gauge
}

// New builds a fresh gauge set registered under the voicehub
// namespace.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		sessionsNamed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voicehub",
			Name:      "sessions_named",
			Help:      "Number of connected sessions that have claimed a display name.",
		}),
		activeCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voicehub",
			Name:      "active_calls",
			Help:      "Number of rooms currently holding 2 or more members.",
		}),
		peerLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voicehub",
			Name:      "peer_links_estimate",
			Help:      "Estimated number of direct peer media links across all rooms.",
		}),
		relayPortsUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voicehub",
			Name:      "relay_ports_used_estimate",
			Help:      "Estimated number of TURN relay ports currently in use.",
		}),
	}
	reg.MustRegister(m.sessionsNamed, m.activeCalls, m.peerLinks, m.relayPortsUsed)
	return m
}

// Update pushes a freshly computed Stats snapshot, plus the current
// named-session count, into the gauges.
func (m *Metrics) Update(s voicestats.Stats, sessionsNamed int) {
	m.sessionsNamed.Set(float64(sessionsNamed))
	m.activeCalls.Set(float64(s.ActiveCalls))
	m.peerLinks.Set(float64(s.PeerLinksEstimate))
	m.relayPortsUsed.Set(float64(s.RelayPortsUsedEstimate))
}

// Handler returns the http.Handler to mount at GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
