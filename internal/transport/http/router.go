// Package httptransport assembles the HTTP surface: tenant-resolved
// marketplace routes, the admin API, and operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"street2ivy/internal/platform/health"
	"street2ivy/internal/platform/middleware"
	"street2ivy/internal/report"
	tenanthandler "street2ivy/internal/tenant/handler"
	"street2ivy/internal/tenant/resolver"
)

// RouterConfig collects everything the router needs so main stays a pure
// wiring exercise.
type RouterConfig struct {
	Logger         *slog.Logger
	RequestTimeout time.Duration

	Resolver *resolver.Resolver
	Reports  *report.Handler
	Admin    *tenanthandler.Handler
	Health   *health.Handler

	// AdminToken guards /admin; when empty the admin surface rejects
	// every request rather than opening up.
	AdminToken string
}

// NewRouter wires all endpoints with the shared middleware stack. Marketplace
// routes pass through tenant resolution; admin and operational routes do not,
// so they stay reachable while a tenant is misconfigured.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	// Operational endpoints, host-independent.
	cfg.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Admin API. Token auth only; tenant resolution is deliberately skipped
	// so operators can repair a tenant whose subdomain no longer resolves.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(middleware.RequireAdminToken(cfg.AdminToken, cfg.Logger))
		admin.Use(middleware.ContentTypeJSON)
		cfg.Admin.Register(admin)
	})

	// Marketplace routes: every request below here carries a resolved tenant.
	r.Group(func(market chi.Router) {
		market.Use(cfg.Resolver.Middleware)
		cfg.Reports.Register(market)
	})

	return r
}
