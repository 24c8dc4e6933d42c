package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"street2ivy/internal/sentinel"
	"street2ivy/internal/tenant/models"
)

func newTenant(id, subdomain string) *models.Tenant {
	now := time.Now()
	return &models.Tenant{
		ID:        id,
		Subdomain: subdomain,
		Name:      "Test Tenant",
		Status:    models.TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestInsertAndFind(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, newTenant("harvard", "harvard")))

	found, err := s.FindByID(ctx, "harvard")
	require.NoError(t, err)
	assert.Equal(t, "harvard", found.Subdomain)

	found, err = s.FindBySubdomain(ctx, "HARVARD")
	require.NoError(t, err)
	assert.Equal(t, "harvard", found.ID)
}

func TestInsertDuplicateSubdomainCaseInsensitive(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, newTenant("harvard", "harvard")))

	dup := newTenant("harvard2", "HARVARD")
	err := s.Insert(ctx, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestFindNotFound(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	_, err := s.FindByID(ctx, "missing")
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = s.FindBySubdomain(ctx, "missing")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestUpdateMaintainsSubdomainIndex(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	tenant := newTenant("harvard", "harvard")
	require.NoError(t, s.Insert(ctx, tenant))

	tenant.Subdomain = "crimson"
	require.NoError(t, s.Update(ctx, tenant))

	_, err := s.FindBySubdomain(ctx, "harvard")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	found, err := s.FindBySubdomain(ctx, "crimson")
	require.NoError(t, err)
	assert.Equal(t, "harvard", found.ID)
}

func TestUpdateMissingTenant(t *testing.T) {
	s := NewInMemory()
	err := s.Update(context.Background(), newTenant("ghost", "ghost"))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestDeleteFreesSubdomain(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, newTenant("harvard", "harvard")))
	require.NoError(t, s.Delete(ctx, "harvard"))

	_, err := s.FindByID(ctx, "harvard")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	// Subdomain is reusable after deletion.
	require.NoError(t, s.Insert(ctx, newTenant("harvard2", "harvard")))
}

func TestReadsReturnClones(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	tenant := newTenant("harvard", "harvard")
	tenant.Credentials = &models.Credentials{ClientID: "a", ClientSecret: "b"}
	require.NoError(t, s.Insert(ctx, tenant))

	first, err := s.FindByID(ctx, "harvard")
	require.NoError(t, err)
	first.Credentials.ClientID = "mutated"
	first.Name = "mutated"

	second, err := s.FindByID(ctx, "harvard")
	require.NoError(t, err)
	assert.Equal(t, "a", second.Credentials.ClientID)
	assert.Equal(t, "Test Tenant", second.Name)
}

func TestListOrdering(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, newTenant("yale", "yale")))
	require.NoError(t, s.Insert(ctx, newTenant("harvard", "harvard")))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "harvard", all[0].ID)
	assert.Equal(t, "yale", all[1].ID)
}
