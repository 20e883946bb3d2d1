// Package metrics exposes Prometheus counters for the GitHub publish flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Publishes       *prometheus.CounterVec
	PublishFailures prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Publishes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "badgeforge_github_publishes_total",
			Help: "Artifacts published to GitHub, by artifact kind.",
		}, []string{"kind"}),
		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "badgeforge_github_publish_failures_total",
			Help: "Publish attempts that failed against the GitHub API.",
		}),
	}
}

func (m *Metrics) IncrementPublishes(kind string) {
	m.Publishes.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementPublishFailures() {
	m.PublishFailures.Inc()
}
