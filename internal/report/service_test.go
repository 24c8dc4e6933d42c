package report

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"street2ivy/internal/backend"
	"street2ivy/internal/tenant/models"
)

// fakeBackend serves a fixed multi-institution dataset. It honors the
// email_domain query parameter like the real API does.
type fakeBackend struct {
	students     []backend.Student
	partners     []backend.Partner
	transactions []backend.Transaction

	lastStudentQuery backend.StudentQuery
	lastPartnerIDs   []string
}

func (f *fakeBackend) Students(_ context.Context, q backend.StudentQuery) ([]backend.Student, error) {
	f.lastStudentQuery = q
	if q.EmailDomain == "" {
		return f.students, nil
	}
	var out []backend.Student
	for _, s := range f.students {
		if strings.HasSuffix(s.Email, "@"+q.EmailDomain) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeBackend) Partners(context.Context) ([]backend.Partner, error) {
	return f.partners, nil
}

func (f *fakeBackend) Transactions(_ context.Context, partnerIDs []string) ([]backend.Transaction, error) {
	f.lastPartnerIDs = partnerIDs
	return f.transactions, nil
}

type staticClients struct {
	api backend.API

	// integration, when set, is what GetIntegration hands out; otherwise
	// it falls back to api like the real cache falls back to the tenant's
	// own credentials.
	integration backend.API
}

func (s staticClients) Get(*models.Tenant) (backend.API, error) {
	return s.api, nil
}

func (s staticClients) GetIntegration(*models.Tenant) (backend.API, error) {
	if s.integration != nil {
		return s.integration, nil
	}
	return s.api, nil
}

func multiInstitutionData() *fakeBackend {
	return &fakeBackend{
		students: []backend.Student{
			{ID: "1", Email: "alice@harvard.edu", Major: "CS", GradYear: 2027},
			{ID: "2", Email: "bob@harvard.edu", Major: "Econ", GradYear: 2026},
			{ID: "3", Email: "carol@yale.edu", Major: "CS", GradYear: 2027},
		},
		partners: []backend.Partner{
			{ID: "p1", Name: "Acme", Active: true},
			{ID: "p2", Name: "Globex", Active: true},
		},
		transactions: []backend.Transaction{
			{ID: "t1", PartnerID: "p1", Amount: 100},
			{ID: "t2", PartnerID: "p2", Amount: 250},
		},
	}
}

func harvardTenant() *models.Tenant {
	return &models.Tenant{ID: "harvard", InstitutionDomain: "harvard.edu"}
}

func TestInstitutionSummaryFiltersAtQueryLayer(t *testing.T) {
	fake := multiInstitutionData()
	svc := New(staticClients{api: fake})

	summary, err := svc.InstitutionSummary(context.Background(), harvardTenant())
	require.NoError(t, err)

	assert.Equal(t, "harvard.edu", fake.lastStudentQuery.EmailDomain,
		"institution restriction must reach the query layer")
	assert.True(t, summary.Scoped)
	assert.Equal(t, 2, summary.StudentCount)
	assert.Equal(t, 1, summary.ByMajor["CS"])
	assert.Equal(t, 1, summary.ByGradYear[2026])
}

func TestScopedSearchNeverLeaksCrossInstitutionRows(t *testing.T) {
	// Backend misbehaves and ignores the domain parameter entirely.
	svc := New(staticClients{api: &ignoreDomainBackend{multiInstitutionData()}})

	result, err := svc.SearchStudents(context.Background(), harvardTenant(), "")
	require.NoError(t, err)

	assert.True(t, result.Scoped)
	require.Len(t, result.Students, 2)
	for _, st := range result.Students {
		assert.Contains(t, st.Email, "@harvard.edu")
	}
}

// ignoreDomainBackend drops the email-domain restriction before delegating.
type ignoreDomainBackend struct {
	inner *fakeBackend
}

func (b *ignoreDomainBackend) Students(ctx context.Context, q backend.StudentQuery) ([]backend.Student, error) {
	q.EmailDomain = ""
	return b.inner.Students(ctx, q)
}

func (b *ignoreDomainBackend) Partners(ctx context.Context) ([]backend.Partner, error) {
	return b.inner.Partners(ctx)
}

func (b *ignoreDomainBackend) Transactions(ctx context.Context, ids []string) ([]backend.Transaction, error) {
	return b.inner.Transactions(ctx, ids)
}

func TestUnscopedTenantSeesEverythingAndReportsIt(t *testing.T) {
	fake := multiInstitutionData()
	svc := New(staticClients{api: fake})

	summary, err := svc.InstitutionSummary(context.Background(), &models.Tenant{ID: "default"})
	require.NoError(t, err)

	assert.False(t, summary.Scoped, "default tenant is legitimately unscoped")
	assert.Equal(t, 3, summary.StudentCount)
}

func TestPartnerActivityPostFiltersToPermittedSet(t *testing.T) {
	fake := multiInstitutionData()
	svc := New(staticClients{api: fake})

	tenant := &models.Tenant{ID: "acme-net", CorporatePartnerIDs: []string{"p1"}}
	activity, err := svc.PartnerActivity(context.Background(), tenant)
	require.NoError(t, err)

	assert.True(t, activity.Scoped)
	require.Len(t, activity.Partners, 1)
	assert.Equal(t, "p1", activity.Partners[0].ID)
	assert.Equal(t, 1, activity.Transactions)
	assert.Equal(t, 100.0, activity.TotalVolume)
	assert.Equal(t, []string{"p1"}, fake.lastPartnerIDs,
		"partner restriction must also narrow the transaction query")
}

func TestMessagingEligibility(t *testing.T) {
	svc := New(staticClients{api: multiInstitutionData()})

	tenant := &models.Tenant{
		ID:                  "harvard",
		InstitutionDomain:   "harvard.edu",
		CorporatePartnerIDs: []string{"p1"},
	}

	ok := svc.CheckMessagingEligibility(tenant, "alice@harvard.edu", "p1")
	assert.True(t, ok.Eligible)
	assert.True(t, ok.Scoped)

	wrongSchool := svc.CheckMessagingEligibility(tenant, "carol@yale.edu", "p1")
	assert.False(t, wrongSchool.Eligible)

	wrongPartner := svc.CheckMessagingEligibility(tenant, "alice@harvard.edu", "p2")
	assert.False(t, wrongPartner.Eligible)

	unscoped := svc.CheckMessagingEligibility(&models.Tenant{ID: "default"}, "anyone@anywhere.io", "p2")
	assert.True(t, unscoped.Eligible)
	assert.False(t, unscoped.Scoped)
}

func TestPartnerActivityUsesIntegrationAccount(t *testing.T) {
	userFacing := &fakeBackend{}
	privileged := multiInstitutionData()
	svc := New(staticClients{api: userFacing, integration: privileged})

	tenant := &models.Tenant{ID: "acme-net", CorporatePartnerIDs: []string{"p1"}}
	activity, err := svc.PartnerActivity(context.Background(), tenant)
	require.NoError(t, err)

	assert.Equal(t, 1, activity.Transactions, "transactions must come from the integration account")
	assert.Equal(t, []string{"p1"}, privileged.lastPartnerIDs)
	assert.Nil(t, userFacing.lastPartnerIDs, "the user-facing client must stay untouched")
}
