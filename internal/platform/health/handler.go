// Package health serves the process probes: container liveness, deploy-gate
// readiness over registered dependency checks, and a status view with build
// and uptime details.
package health

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"badgeforge/pkg/platform/httputil"
)

// Version is stamped at build time via ldflags.
var Version = "dev"

// CheckFunc probes one dependency. A nil return means the dependency can
// serve traffic.
type CheckFunc func() error

type namedCheck struct {
	name  string
	check CheckFunc
}

// Handler serves the probe endpoints.
type Handler struct {
	started     time.Time
	environment string

	mu     sync.RWMutex
	checks []namedCheck
}

// New creates a handler with no registered checks. A checkless handler
// reports ready as long as the process accepts requests.
func New(environment string) *Handler {
	return &Handler{started: time.Now(), environment: environment}
}

// RegisterCheck adds a named readiness check. Checks run in registration
// order; re-registering a name replaces the earlier check.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, c := range h.checks {
		if c.name == name {
			h.checks[i].check = check
			return
		}
	}
	h.checks = append(h.checks, namedCheck{name: name, check: check})
}

// Register mounts the probe routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

// LivenessResponse answers the container runtime's "is the process up".
type LivenessResponse struct {
	Status string `json:"status"`
}

// HandleLiveness always answers 200 while the process serves requests.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

// CheckResult is one dependency's readiness outcome.
type CheckResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// ReadinessResponse reports overall readiness plus each check's outcome.
type ReadinessResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// HandleReadiness runs every registered check and answers 503 when any
// dependency is down, so rollouts hold until the assets directory is usable.
func (h *Handler) HandleReadiness(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := make([]namedCheck, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	resp := ReadinessResponse{Status: "ready"}
	if len(checks) > 0 {
		resp.Checks = make(map[string]CheckResult, len(checks))
	}

	status := http.StatusOK
	for _, c := range checks {
		begin := time.Now()
		err := c.check()
		result := CheckResult{Status: "up", LatencyMs: time.Since(begin).Milliseconds()}
		if err != nil {
			result.Status = "down"
			result.Error = err.Error()
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
		}
		resp.Checks[c.name] = result
	}

	httputil.WriteJSON(w, status, resp)
}

// StatusResponse is the human-facing summary behind /health.
type StatusResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	StartedAt     string `json:"started_at"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// HandleStatus reports build and uptime details for dashboards.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		StartedAt:     h.started.UTC().Format(time.RFC3339),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}
