package registry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"street2ivy/internal/sentinel"
	"street2ivy/internal/tenant/models"
)

var tracer = otel.Tracer("street2ivy/internal/tenant/registry")

// Bootstrap seeds the default tenant when the store lacks one, leaving other
// rows untouched. It runs once at process start and is idempotent, so every
// restart may call it: a single-tenant deployment behaves exactly like one
// row of a multi-tenant system.
func (r *Registry) Bootstrap(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "registry.Bootstrap")
	defer span.End()

	_, err := r.store.FindByID(ctx, models.DefaultTenantID)
	if err == nil {
		span.SetAttributes(attribute.Bool("seeded", false))
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return wrapStoreErr(err, "check default tenant")
	}

	now := time.Now().UTC()
	t := &models.Tenant{
		ID:          models.DefaultTenantID,
		Name:        r.defaultName,
		DisplayName: r.defaultDisplayName,
		Status:      models.TenantStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := r.store.Insert(ctx, t); err != nil {
		// A concurrent replica may have seeded first; that satisfies the
		// invariant just as well.
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			span.SetAttributes(attribute.Bool("seeded", false))
			return nil
		}
		return wrapStoreErr(err, "seed default tenant")
	}

	span.SetAttributes(attribute.Bool("seeded", true))
	r.logger.InfoContext(ctx, "default tenant seeded", "name", r.defaultName)
	return nil
}
