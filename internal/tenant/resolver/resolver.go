// Package resolver maps an inbound request to its tenant. It is the single
// authorization gate for tenant-scoped traffic: everything downstream reads
// the tenant from the request context.
package resolver

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"street2ivy/internal/platform/middleware"
	tenantmetrics "street2ivy/internal/tenant/metrics"
	"street2ivy/internal/tenant/registry"

	dErrors "street2ivy/pkg/domain-errors"
)

var tracer = otel.Tracer("street2ivy/internal/tenant/resolver")

// OverrideHeader and OverrideParam name the relaxed-mode tenant override
// used for local testing without wildcard DNS.
const (
	OverrideHeader = "X-Tenant"
	OverrideParam  = "tenant"
)

// Resolver is the request middleware resolving Host headers to tenants.
type Resolver struct {
	registry   *registry.Registry
	baseDomain string
	relaxed    bool
	logger     *slog.Logger
	metrics    *tenantmetrics.Metrics
}

type Option func(r *Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithRelaxedMode enables the override header/query for deployments without
// real DNS. Never enable in production.
func WithRelaxedMode(relaxed bool) Option {
	return func(r *Resolver) {
		r.relaxed = relaxed
	}
}

func New(reg *registry.Registry, baseDomain string, opts ...Option) *Resolver {
	r := &Resolver{
		registry:   reg,
		baseDomain: strings.ToLower(strings.TrimSpace(baseDomain)),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Middleware resolves the tenant for each request and attaches it to the
// context, or terminates the request with a 404/503 page.
//
// Resolution is deliberately asymmetric: no subdomain at all falls back to
// the default tenant (single-tenant compatibility), but a present, unknown
// subdomain is a terminal 404. Blending unknown subdomains into the default
// tenant would leak its data across the isolation boundary.
func (rv *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "resolver.Resolve")

		subdomain := rv.subdomainFromHost(r.Host)
		if subdomain == "" && rv.relaxed {
			subdomain = strings.ToLower(strings.TrimSpace(rv.override(r)))
		}
		span.SetAttributes(attribute.String("tenant.subdomain", subdomain))

		tenant, err := rv.registry.ResolveBySubdomain(ctx, subdomain)
		if err != nil {
			span.End()
			if dErrors.HasCode(err, dErrors.CodeNotFound) && subdomain != "" {
				rv.metrics.ObserveResolution(tenantmetrics.OutcomeNotFound)
				rv.logger.InfoContext(ctx, "unknown tenant subdomain",
					"subdomain", subdomain,
					"host", r.Host,
					"request_id", middleware.GetRequestID(ctx),
				)
				writeNotRegistered(w, subdomain)
				return
			}
			rv.metrics.ObserveResolution(tenantmetrics.OutcomeUnavailable)
			rv.logger.ErrorContext(ctx, "tenant resolution failed",
				"subdomain", subdomain,
				"error", err,
				"request_id", middleware.GetRequestID(ctx),
			)
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}

		span.SetAttributes(attribute.String("tenant.id", tenant.ID))
		span.End()

		if !tenant.IsActive() {
			rv.metrics.ObserveResolution(tenantmetrics.OutcomeUnavailable)
			rv.logger.InfoContext(ctx, "inactive tenant rejected",
				"tenant_id", tenant.ID,
				"status", tenant.Status,
				"request_id", middleware.GetRequestID(ctx),
			)
			writeUnavailable(w, tenant.Display())
			return
		}

		if subdomain == "" {
			rv.metrics.ObserveResolution(tenantmetrics.OutcomeDefault)
		} else {
			rv.metrics.ObserveResolution(tenantmetrics.OutcomeResolved)
		}

		next.ServeHTTP(w, r.WithContext(WithTenant(ctx, tenant)))
	})
}

// subdomainFromHost strips the configured base domain from the Host header.
// Bare-domain and www hosts yield "" (no subdomain). Hosts outside the base
// domain entirely (localhost, IPs) also yield "", leaving relaxed-mode
// overrides or the default tenant to take over.
func (rv *Resolver) subdomainFromHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	if host == rv.baseDomain || host == "www."+rv.baseDomain {
		return ""
	}
	prefix, found := strings.CutSuffix(host, "."+rv.baseDomain)
	if !found {
		return ""
	}
	if prefix == "www" {
		return ""
	}
	return prefix
}

func (rv *Resolver) override(r *http.Request) string {
	if v := r.Header.Get(OverrideHeader); v != "" {
		return v
	}
	return r.URL.Query().Get(OverrideParam)
}
