package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"street2ivy/internal/sentinel"
	"street2ivy/internal/tenant/models"
	"street2ivy/internal/tenant/registry"
	"street2ivy/internal/tenant/store"
)

type recordingCache struct {
	invalidated []string
	flushed     int
}

func (c *recordingCache) Invalidate(tenantID string) {
	c.invalidated = append(c.invalidated, tenantID)
}

func (c *recordingCache) InvalidateAll() {
	c.flushed++
}

func newTestHandler(t *testing.T) (*chi.Mux, *registry.Registry, *recordingCache) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(store.NewInMemory(), registry.WithLogger(logger))
	require.NoError(t, reg.Bootstrap(context.Background()))

	cache := &recordingCache{}
	r := chi.NewRouter()
	New(reg, cache, logger).Register(r)
	return r, reg, cache
}

func createBody(subdomain string) string {
	return `{
		"subdomain": "` + subdomain + `",
		"name": "Harvard Marketplace",
		"credentials": {"client_id": "cid-1", "client_secret": "very-secret"},
		"institution_domain": "harvard.edu"
	}`
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateTenant(t *testing.T) {
	r, _, _ := newTestHandler(t)

	rec := doJSON(r, http.MethodPost, "/tenants", createBody("harvard"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp TenantResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "harvard", resp.ID)
	assert.Equal(t, "harvard", resp.Subdomain)
	assert.Equal(t, "cid-1", resp.ClientID)
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, "harvard.edu", resp.InstitutionDomain)
	assert.False(t, resp.CreatedAt.IsZero())

	assert.NotContains(t, rec.Body.String(), "very-secret",
		"client secrets must never be echoed back")
}

func TestCreateTenantValidation(t *testing.T) {
	r, _, _ := newTestHandler(t)

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"subdomain":"harvard","credentials":{"client_id":"a","client_secret":"b"}}`, "name"},
		{"missing credentials", `{"subdomain":"harvard","name":"H"}`, "credentials"},
		{"blank secret", `{"subdomain":"harvard","name":"H","credentials":{"client_id":"a","client_secret":"  "}}`, "client_secret"},
		{"bad subdomain", `{"subdomain":"Not Valid!","name":"H","credentials":{"client_id":"a","client_secret":"b"}}`, "subdomain"},
		{"reserved subdomain", `{"subdomain":"www","name":"H","credentials":{"client_id":"a","client_secret":"b"}}`, "subdomain"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(r, http.MethodPost, "/tenants", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.field, resp["field"])
		})
	}
}

func TestCreateTenantDuplicateSubdomain(t *testing.T) {
	r, _, _ := newTestHandler(t)

	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/tenants", createBody("harvard")).Code)

	rec := doJSON(r, http.MethodPost, "/tenants", createBody("HARVARD"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already in use")
}

func TestGetTenant(t *testing.T) {
	r, _, _ := newTestHandler(t)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/tenants", createBody("harvard")).Code)

	rec := doJSON(r, http.MethodGet, "/tenants/harvard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	missing := doJSON(r, http.MethodGet, "/tenants/nope", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestListTenantsIncludesDefault(t *testing.T) {
	r, _, _ := newTestHandler(t)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/tenants", createBody("harvard")).Code)

	rec := doJSON(r, http.MethodGet, "/tenants", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TenantsListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)

	ids := make([]string, 0, len(resp.Tenants))
	for _, tenant := range resp.Tenants {
		ids = append(ids, tenant.ID)
	}
	assert.Contains(t, ids, "default")
	assert.Contains(t, ids, "harvard")
}

func TestUpdateTenantEvictsCachedClient(t *testing.T) {
	r, _, cache := newTestHandler(t)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/tenants", createBody("harvard")).Code)

	rec := doJSON(r, http.MethodPatch, "/tenants/harvard",
		`{"credentials":{"client_secret":"rotated"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, []string{"harvard"}, cache.invalidated,
		"a config change must evict the cached backend client")
	assert.NotContains(t, rec.Body.String(), "rotated")
}

func TestUpdateTenantStatusFlip(t *testing.T) {
	r, reg, _ := newTestHandler(t)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/tenants", createBody("harvard")).Code)

	rec := doJSON(r, http.MethodPatch, "/tenants/harvard", `{"status":"inactive"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	tenant, err := reg.ResolveByID(context.Background(), "harvard")
	require.NoError(t, err)
	assert.False(t, tenant.IsActive())
}

func TestUpdateTenantRejectsBadStatus(t *testing.T) {
	r, _, cache := newTestHandler(t)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/tenants", createBody("harvard")).Code)

	rec := doJSON(r, http.MethodPatch, "/tenants/harvard", `{"status":"paused"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, cache.invalidated, "rejected updates must not touch the cache")
}

func TestDeleteTenant(t *testing.T) {
	r, _, cache := newTestHandler(t)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/tenants", createBody("harvard")).Code)

	rec := doJSON(r, http.MethodDelete, "/tenants/harvard", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"harvard"}, cache.invalidated)

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/tenants/harvard", "").Code)
}

func TestDeleteDefaultTenantRejected(t *testing.T) {
	r, _, cache := newTestHandler(t)

	rec := doJSON(r, http.MethodDelete, "/tenants/default", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, cache.invalidated)
}

func TestInvalidateEndpoints(t *testing.T) {
	r, _, cache := newTestHandler(t)

	rec := doJSON(r, http.MethodPost, "/tenants/harvard/clients/invalidate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"harvard"}, cache.invalidated)

	flush := doJSON(r, http.MethodPost, "/clients/invalidate", "")
	require.Equal(t, http.StatusOK, flush.Code)
	assert.Equal(t, 1, cache.flushed)
	assert.True(t, strings.Contains(flush.Body.String(), "flushed"))
}

// unreachableStore fails every call the way the postgres store does when
// the database cannot be reached.
type unreachableStore struct{}

func (unreachableStore) Insert(context.Context, *models.Tenant) error { return unreachableErr() }
func (unreachableStore) Update(context.Context, *models.Tenant) error { return unreachableErr() }
func (unreachableStore) Delete(context.Context, string) error         { return unreachableErr() }

func (unreachableStore) FindByID(context.Context, string) (*models.Tenant, error) {
	return nil, unreachableErr()
}

func (unreachableStore) FindBySubdomain(context.Context, string) (*models.Tenant, error) {
	return nil, unreachableErr()
}

func (unreachableStore) List(context.Context) ([]*models.Tenant, error) {
	return nil, unreachableErr()
}

func unreachableErr() error {
	return fmt.Errorf("dial tcp: connection refused: %w", sentinel.ErrUnavailable)
}

func TestUnreachableStoreReturns504(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(unreachableStore{}, registry.WithLogger(logger))

	r := chi.NewRouter()
	New(reg, &recordingCache{}, logger).Register(r)

	rec := doJSON(r, http.MethodGet, "/tenants/harvard", "")
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "store_unavailable", resp["error"])
}
