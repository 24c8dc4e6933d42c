// Package registry is the in-process API over the tenant store: resolution
// by subdomain or id, validated mutations, and the default-tenant bootstrap.
package registry

import (
	"context"
	"errors"
	"log/slog"

	tenantmetrics "street2ivy/internal/tenant/metrics"
	"street2ivy/internal/tenant/models"
	"street2ivy/internal/tenant/store"

	"street2ivy/internal/sentinel"
	dErrors "street2ivy/pkg/domain-errors"
)

// Registry mediates every read and write of tenant records. It owns
// validation and translates store sentinel errors into domain errors
// exactly once.
type Registry struct {
	store   store.Store
	logger  *slog.Logger
	metrics *tenantmetrics.Metrics

	defaultName        string
	defaultDisplayName string
}

type Option func(r *Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithDefaultTenant overrides the name and display name seeded for the
// bootstrap tenant on an empty store.
func WithDefaultTenant(name, displayName string) Option {
	return func(r *Registry) {
		if name != "" {
			r.defaultName = name
		}
		r.defaultDisplayName = displayName
	}
}

func New(s store.Store, opts ...Option) *Registry {
	r := &Registry{
		store:       s,
		logger:      slog.Default(),
		defaultName: models.PlatformName,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveBySubdomain finds the tenant claiming the given subdomain
// (case-insensitive). An empty subdomain resolves to the default tenant:
// bare-domain traffic belongs to the platform, not to "no one". A present
// but unknown subdomain is a NotFoundError, never a default-tenant
// fallback; that asymmetry is the isolation boundary.
func (r *Registry) ResolveBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	if subdomain == "" {
		return r.ResolveByID(ctx, models.DefaultTenantID)
	}
	t, err := r.store.FindBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, wrapStoreErr(err, "resolve tenant by subdomain")
	}
	return t, nil
}

// ResolveByID finds a tenant by its stable identifier.
func (r *Registry) ResolveByID(ctx context.Context, id string) (*models.Tenant, error) {
	t, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "resolve tenant by id")
	}
	return t, nil
}

// List returns all tenants for the administrative surface.
func (r *Registry) List(ctx context.Context) ([]*models.Tenant, error) {
	tenants, err := r.store.List(ctx)
	if err != nil {
		return nil, wrapStoreErr(err, "list tenants")
	}
	return tenants, nil
}

// wrapStoreErr translates store sentinel errors into domain errors.
func wrapStoreErr(err error, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.NewField(dErrors.CodeValidation, "subdomain", "subdomain is already in use")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "tenant store unreachable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, action)
	}
}
