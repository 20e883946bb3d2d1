package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Resolutions        *prometheus.CounterVec
	CacheInvalidations prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "badgeforge_asset_resolutions_total",
			Help: "Total criteria resolutions by cache outcome",
		}, []string{"cache"}),
		CacheInvalidations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "badgeforge_asset_cache_invalidations_total",
			Help: "Total criteria cache flushes triggered by registry writes",
		}),
	}
}

func (m *Metrics) IncrementResolutions(outcome string) {
	m.Resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementCacheInvalidations() {
	m.CacheInvalidations.Inc()
}
