// Package report aggregates cross-user marketplace data for a tenant's
// administrators. Every query runs through the tenant's cached backend
// client and is narrowed by the tenant's scope before anything is returned.
package report

import (
	"context"
	"log/slog"

	"street2ivy/internal/backend"
	"street2ivy/internal/scope"
	"street2ivy/internal/tenant/models"

	dErrors "street2ivy/pkg/domain-errors"
)

// Clients is the slice of the client cache the report layer needs. Get
// serves user-facing reads; GetIntegration serves privileged reads that use
// the tenant's integration account when one is configured.
type Clients interface {
	Get(tenant *models.Tenant) (backend.API, error)
	GetIntegration(tenant *models.Tenant) (backend.API, error)
}

// Service runs tenant-scoped aggregate queries.
type Service struct {
	clients Clients
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(clients Clients, opts ...Option) *Service {
	s := &Service{clients: clients, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InstitutionSummary aggregates the tenant's student population. The
// institution-domain restriction is applied at the query layer; rows from
// other institutions never reach this process.
type InstitutionSummary struct {
	TenantID     string         `json:"tenant_id"`
	Scoped       bool           `json:"scoped"`
	StudentCount int            `json:"student_count"`
	ByGradYear   map[int]int    `json:"by_grad_year,omitempty"`
	ByMajor      map[string]int `json:"by_major,omitempty"`
}

func (s *Service) InstitutionSummary(ctx context.Context, tenant *models.Tenant) (*InstitutionSummary, error) {
	client, err := s.clients.Get(tenant)
	if err != nil {
		return nil, err
	}
	sc := scope.Derive(tenant)

	students, err := client.Students(ctx, backend.StudentQuery{EmailDomain: sc.InstitutionDomainOrEmpty()})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "institution summary query failed")
	}
	students = filterStudents(sc, students)

	summary := &InstitutionSummary{
		TenantID:     tenant.ID,
		Scoped:       sc.Applied(),
		StudentCount: len(students),
		ByGradYear:   make(map[int]int),
		ByMajor:      make(map[string]int),
	}
	for _, st := range students {
		if st.GradYear != 0 {
			summary.ByGradYear[st.GradYear]++
		}
		if st.Major != "" {
			summary.ByMajor[st.Major]++
		}
	}

	s.metrics.observeReport("institution_summary", summary.Scoped)
	return summary, nil
}

// StudentSearchResult carries scoped search hits.
type StudentSearchResult struct {
	TenantID string            `json:"tenant_id"`
	Scoped   bool              `json:"scoped"`
	Students []backend.Student `json:"students"`
}

// SearchStudents finds students matching the query inside the tenant's
// institution boundary.
func (s *Service) SearchStudents(ctx context.Context, tenant *models.Tenant, query string) (*StudentSearchResult, error) {
	client, err := s.clients.Get(tenant)
	if err != nil {
		return nil, err
	}
	sc := scope.Derive(tenant)

	students, err := client.Students(ctx, backend.StudentQuery{
		EmailDomain: sc.InstitutionDomainOrEmpty(),
		Search:      query,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "student search failed")
	}

	result := &StudentSearchResult{
		TenantID: tenant.ID,
		Scoped:   sc.Applied(),
		Students: filterStudents(sc, students),
	}
	if result.Students == nil {
		result.Students = []backend.Student{}
	}

	s.metrics.observeReport("student_search", result.Scoped)
	return result, nil
}

// PartnerActivity summarizes the corporate partners visible to the tenant
// and their transactions. Transaction amounts are privileged data, so this
// query runs on the tenant's integration account when one is configured.
// Partner visibility is post-filtered against the tenant's permitted id
// set; the transaction query is additionally narrowed at the query layer
// when the set is present.
type PartnerActivity struct {
	TenantID     string            `json:"tenant_id"`
	Scoped       bool              `json:"scoped"`
	Partners     []backend.Partner `json:"partners"`
	Transactions int               `json:"transaction_count"`
	TotalVolume  float64           `json:"total_volume"`
}

func (s *Service) PartnerActivity(ctx context.Context, tenant *models.Tenant) (*PartnerActivity, error) {
	client, err := s.clients.GetIntegration(tenant)
	if err != nil {
		return nil, err
	}
	sc := scope.Derive(tenant)

	partners, err := client.Partners(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "partner listing failed")
	}
	visible := make([]backend.Partner, 0, len(partners))
	for _, p := range partners {
		if sc.AllowsPartner(p.ID) {
			visible = append(visible, p)
		}
	}

	transactions, err := client.Transactions(ctx, sc.PartnerIDs())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "transaction listing failed")
	}

	activity := &PartnerActivity{
		TenantID: tenant.ID,
		Scoped:   sc.Applied(),
		Partners: visible,
	}
	for _, tx := range transactions {
		if !sc.AllowsPartner(tx.PartnerID) {
			continue
		}
		activity.Transactions++
		activity.TotalVolume += tx.Amount
	}

	s.metrics.observeReport("partner_activity", activity.Scoped)
	return activity, nil
}

// MessagingEligibility reports whether a student/partner pair may exchange
// messages under this tenant: both parties must fall inside the tenant's
// boundary.
type MessagingEligibility struct {
	TenantID string `json:"tenant_id"`
	Scoped   bool   `json:"scoped"`
	Eligible bool   `json:"eligible"`
}

func (s *Service) CheckMessagingEligibility(tenant *models.Tenant, studentEmail, partnerID string) *MessagingEligibility {
	sc := scope.Derive(tenant)
	return &MessagingEligibility{
		TenantID: tenant.ID,
		Scoped:   sc.Applied(),
		Eligible: sc.AllowsEmail(studentEmail) && sc.AllowsPartner(partnerID),
	}
}

// filterStudents re-applies the institution boundary to query results so the
// guarantee holds even if the upstream ignores the email_domain parameter.
func filterStudents(sc *scope.Scope, students []backend.Student) []backend.Student {
	if !sc.RestrictsInstitution() {
		return students
	}
	out := make([]backend.Student, 0, len(students))
	for _, st := range students {
		if sc.AllowsEmail(st.Email) {
			out = append(out, st)
		}
	}
	return out
}
