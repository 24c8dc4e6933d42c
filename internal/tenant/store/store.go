// Package store persists tenant records. Implementations return sentinel
// errors; the registry translates them into domain errors exactly once.
package store

import (
	"context"

	"street2ivy/internal/tenant/models"
)

// Store is the persistence contract for tenant records. All mutations write
// through immediately; an acknowledged change survives a restart.
type Store interface {
	// Insert atomically creates the tenant if its subdomain is not already
	// taken (case-insensitive). Returns sentinel.ErrAlreadyUsed on collision.
	Insert(ctx context.Context, t *models.Tenant) error

	// Update replaces an existing row. Returns sentinel.ErrNotFound if absent.
	Update(ctx context.Context, t *models.Tenant) error

	// Delete removes a row permanently. Returns sentinel.ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	FindByID(ctx context.Context, id string) (*models.Tenant, error)
	FindBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	List(ctx context.Context) ([]*models.Tenant, error)
}
