package report

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"street2ivy/internal/tenant/resolver"

	dErrors "street2ivy/pkg/domain-errors"
	"street2ivy/pkg/platform/httputil"
)

// Handler serves tenant-scoped reporting and search endpoints. It runs
// behind the tenant resolver and reads the tenant from the request context.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/reports/institution", h.HandleInstitutionSummary)
	r.Get("/reports/partners", h.HandlePartnerActivity)
	r.Get("/search/students", h.HandleSearchStudents)
	r.Get("/messaging/eligibility", h.HandleMessagingEligibility)
}

func (h *Handler) HandleInstitutionSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant, ok := resolver.FromContext(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "no tenant on request"))
		return
	}

	summary, err := h.service.InstitutionSummary(ctx, tenant)
	if err != nil {
		h.logger.ErrorContext(ctx, "institution summary failed", "error", err, "tenant_id", tenant.ID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) HandlePartnerActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant, ok := resolver.FromContext(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "no tenant on request"))
		return
	}

	activity, err := h.service.PartnerActivity(ctx, tenant)
	if err != nil {
		h.logger.ErrorContext(ctx, "partner activity failed", "error", err, "tenant_id", tenant.ID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, activity)
}

func (h *Handler) HandleSearchStudents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant, ok := resolver.FromContext(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "no tenant on request"))
		return
	}

	result, err := h.service.SearchStudents(ctx, tenant, r.URL.Query().Get("q"))
	if err != nil {
		h.logger.ErrorContext(ctx, "student search failed", "error", err, "tenant_id", tenant.ID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleMessagingEligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant, ok := resolver.FromContext(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "no tenant on request"))
		return
	}

	email := r.URL.Query().Get("email")
	partnerID := r.URL.Query().Get("partner_id")
	if email == "" || partnerID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "email and partner_id are required"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.service.CheckMessagingEligibility(tenant, email, partnerID))
}
