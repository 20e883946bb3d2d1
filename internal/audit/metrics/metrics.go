package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EntriesRecorded prometheus.Counter
	EntriesDropped  prometheus.Counter
	SinkErrors      prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		EntriesRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "badgeforge_access_log_entries_total",
			Help: "Total number of access log entries recorded",
		}),
		EntriesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "badgeforge_access_log_dropped_total",
			Help: "Total number of access log entries dropped because the buffer was full",
		}),
		SinkErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "badgeforge_access_log_sink_errors_total",
			Help: "Total number of access log sink write failures",
		}),
	}
}

func (m *Metrics) IncrementRecorded() {
	m.EntriesRecorded.Inc()
}

func (m *Metrics) IncrementDropped() {
	m.EntriesDropped.Inc()
}

func (m *Metrics) IncrementSinkError() {
	m.SinkErrors.Inc()
}
