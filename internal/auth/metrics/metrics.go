package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for auth operations.
type Metrics struct {
	Logins         prometheus.Counter
	AuthFailures   prometheus.Counter
	Lockouts       prometheus.Counter
	ActiveSessions prometheus.Gauge
}

// New registers and returns auth metrics collectors.
func New() *Metrics {
	return &Metrics{
		Logins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "badgeforge_logins_total",
			Help: "Total number of successful logins",
		}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "badgeforge_auth_failures_total",
			Help: "Total number of failed login attempts",
		}),
		Lockouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "badgeforge_login_lockouts_total",
			Help: "Total number of login lockouts triggered",
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "badgeforge_active_sessions",
			Help: "Current number of active sessions",
		}),
	}
}

func (m *Metrics) IncrementLogins() {
	m.Logins.Inc()
}

func (m *Metrics) IncrementAuthFailures() {
	m.AuthFailures.Inc()
}

func (m *Metrics) IncrementLockouts() {
	m.Lockouts.Inc()
}

func (m *Metrics) IncrementActiveSessions() {
	m.ActiveSessions.Inc()
}

func (m *Metrics) DecrementActiveSessions() {
	m.ActiveSessions.Dec()
}
