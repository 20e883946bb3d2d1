// Package metrics exposes Prometheus counters for the Orbit integration.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Calls            *prometheus.CounterVec
	UpstreamFailures prometheus.Counter
	SettingsSaves    prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Calls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "badgeforge_orbit_calls_total",
			Help: "Orbit API calls made through the proxy, by operation.",
		}, []string{"operation"}),
		UpstreamFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "badgeforge_orbit_upstream_failures_total",
			Help: "Orbit calls that failed upstream (errors, timeouts, open circuit).",
		}),
		SettingsSaves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "badgeforge_orbit_settings_saves_total",
			Help: "Times the Orbit settings file was saved through the editor.",
		}),
	}
}

func (m *Metrics) IncrementCalls(operation string) {
	m.Calls.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementUpstreamFailures() {
	m.UpstreamFailures.Inc()
}

func (m *Metrics) IncrementSettingsSaves() {
	m.SettingsSaves.Inc()
}
