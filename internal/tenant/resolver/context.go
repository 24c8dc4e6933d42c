package resolver

import (
	"context"

	"street2ivy/internal/tenant/models"
)

type tenantKey struct{}

// WithTenant attaches the resolved tenant to the request context.
func WithTenant(ctx context.Context, t *models.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, t)
}

// FromContext reads the tenant attached by the resolver middleware. This is
// the only way downstream handlers learn tenant identity; none of them
// re-derive it from the hostname.
func FromContext(ctx context.Context) (*models.Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(*models.Tenant)
	return t, ok
}
