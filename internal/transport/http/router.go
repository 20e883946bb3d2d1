// Package httptransport assembles the HTTP surface: the shared middleware
// stack, the public probe endpoints, and the /api group where everything
// except login sits behind the session guard.
package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"badgeforge/internal/audit"
	"badgeforge/internal/platform/health"
	mwauth "badgeforge/pkg/platform/middleware/auth"
	"badgeforge/pkg/platform/middleware/metadata"
	request "badgeforge/pkg/platform/middleware/request"
	"badgeforge/pkg/platform/middleware/requesttime"
	"badgeforge/pkg/platform/validation"
)

// Registrar mounts a feature's routes onto a router group.
type Registrar interface {
	Register(r chi.Router)
}

// AuthRegistrar mounts the login route on the public API group and the
// session-bound routes (logout, me) behind the guard.
type AuthRegistrar interface {
	Register(r chi.Router)
	RegisterProtected(r chi.Router)
}

// Deps carries the handlers and platform pieces the router wires together.
// Every field is required unless noted otherwise.
type Deps struct {
	Logger   *slog.Logger
	Sessions mwauth.SessionValidator
	Recorder *audit.Recorder

	Auth       AuthRegistrar
	Badges     Registrar
	VCTs       Registrar
	Layouts    Registrar
	Assets     Registrar
	Schemas    Registrar
	Publish    Registrar
	Orbit      Registrar
	AccessLogs Registrar
	Health     *health.Handler

	RequestTimeout time.Duration
	TrustedProxies []netip.Prefix
	Metrics        *request.Metrics // optional
}

// NewRouter wires the middleware stack and all endpoints.
//
// Health probes and the Prometheus scrape endpoint stay outside /api so they
// are neither session-guarded nor access-logged. Inside /api, only login is
// public; the editor API mounts behind RequireAuth, and the access-log
// middleware sits inside the guard so entries always carry the session
// subject.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(&metadata.Config{TrustedProxies: d.TrustedProxies}).Handler)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(d.Logger))
	if d.Metrics != nil {
		r.Use(request.LatencyMiddleware(d.Metrics))
	}
	r.Use(request.Timeout(d.RequestTimeout))

	d.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(request.BodyLimit(validation.MaxBodySize))
		api.Use(request.ContentTypeJSON)

		d.Auth.Register(api)

		api.Group(func(protected chi.Router) {
			protected.Use(mwauth.RequireAuth(d.Sessions, d.Logger))
			protected.Use(audit.Middleware(d.Recorder))

			d.Auth.RegisterProtected(protected)
			d.Badges.Register(protected)
			d.VCTs.Register(protected)
			d.Layouts.Register(protected)
			d.Assets.Register(protected)
			d.Schemas.Register(protected)
			d.Publish.Register(protected)
			d.Orbit.Register(protected)
			d.AccessLogs.Register(protected)
		})
	})

	return r
}
