// Package handler exposes the admin HTTP surface for tenant management:
// marketplace CRUD plus backend client cache invalidation.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"street2ivy/internal/platform/middleware"
	"street2ivy/internal/tenant/registry"
	"street2ivy/pkg/platform/httputil"
)

// ClientCache is the slice of the backend client cache the admin surface
// needs: targeted eviction and a full flush.
type ClientCache interface {
	Invalidate(tenantID string)
	InvalidateAll()
}

// Handler handles admin tenant management endpoints.
type Handler struct {
	registry *registry.Registry
	clients  ClientCache
	logger   *slog.Logger
}

// New creates a new tenant admin handler.
func New(reg *registry.Registry, clients ClientCache, logger *slog.Logger) *Handler {
	return &Handler{
		registry: reg,
		clients:  clients,
		logger:   logger,
	}
}

// Register registers tenant admin routes with the router. The caller is
// expected to mount these behind admin authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/tenants", h.HandleCreate)
	r.Get("/tenants", h.HandleList)
	r.Get("/tenants/{id}", h.HandleGet)
	r.Patch("/tenants/{id}", h.HandleUpdate)
	r.Delete("/tenants/{id}", h.HandleDelete)
	r.Post("/tenants/{id}/clients/invalidate", h.HandleInvalidateClient)
	r.Post("/clients/invalidate", h.HandleInvalidateAllClients)
}

// HandleCreate registers a new marketplace tenant.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[CreateTenantRequest](w, r, h.logger)
	if !ok {
		return
	}

	tenant, err := h.registry.Create(ctx, req.toInput())
	if err != nil {
		h.logger.WarnContext(ctx, "tenant creation rejected",
			"error", err,
			"subdomain", req.Subdomain,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "tenant created",
		"tenant_id", tenant.ID,
		"subdomain", tenant.Subdomain,
		"request_id", middleware.GetRequestID(ctx),
	)

	httputil.WriteJSON(w, http.StatusCreated, toTenantResponse(tenant))
}

// HandleList returns all registered tenants.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenants, err := h.registry.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list tenants",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toTenantsListResponse(tenants))
}

// HandleGet returns a single tenant by id.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	tenant, err := h.registry.ResolveByID(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(tenant))
}

// HandleUpdate applies a partial update and evicts the tenant's cached
// backend client so the next request reflects the new configuration.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	req, ok := httputil.DecodeAndPrepare[UpdateTenantRequest](w, r, h.logger)
	if !ok {
		return
	}

	tenant, err := h.registry.Update(ctx, id, req.toPatch())
	if err != nil {
		h.logger.WarnContext(ctx, "tenant update rejected",
			"error", err,
			"tenant_id", id,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	h.clients.Invalidate(tenant.ID)

	h.logger.InfoContext(ctx, "tenant updated",
		"tenant_id", tenant.ID,
		"request_id", middleware.GetRequestID(ctx),
	)

	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(tenant))
}

// HandleDelete removes a tenant and evicts its cached backend client.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.registry.Delete(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.clients.Invalidate(id)

	h.logger.InfoContext(ctx, "tenant deleted",
		"tenant_id", id,
		"request_id", middleware.GetRequestID(ctx),
	)

	w.WriteHeader(http.StatusNoContent)
}

// HandleInvalidateClient evicts one tenant's cached backend client.
func (h *Handler) HandleInvalidateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	// Eviction is idempotent: evicting an unknown or uncached id is a no-op,
	// so there is no existence check here.
	h.clients.Invalidate(id)

	h.logger.InfoContext(ctx, "backend client invalidated",
		"tenant_id", id,
		"request_id", middleware.GetRequestID(ctx),
	)

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "invalidated", "tenant_id": id})
}

// HandleInvalidateAllClients flushes the entire backend client cache.
func (h *Handler) HandleInvalidateAllClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.clients.InvalidateAll()

	h.logger.InfoContext(ctx, "backend client cache flushed",
		"request_id", middleware.GetRequestID(ctx),
	)

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}
