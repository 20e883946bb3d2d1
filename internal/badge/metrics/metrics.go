package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	BadgeWrites    *prometheus.CounterVec
	BadgePublishes prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		BadgeWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "badgeforge_badge_writes_total",
			Help: "Total badge store mutations by action",
		}, []string{"action"}),
		BadgePublishes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "badgeforge_badge_publishes_total",
			Help: "Total badges moved from draft to published",
		}),
	}
}

func (m *Metrics) IncrementWrites(action string) {
	m.BadgeWrites.WithLabelValues(action).Inc()
}

func (m *Metrics) IncrementPublishes() {
	m.BadgePublishes.Inc()
}
