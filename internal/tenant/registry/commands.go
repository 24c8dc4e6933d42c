package registry

import (
	"context"
	"strings"
	"time"

	"street2ivy/internal/tenant/models"

	dErrors "street2ivy/pkg/domain-errors"
)

// CreateInput carries a validated tenant-creation request. The tenant id is
// assigned from the subdomain.
type CreateInput struct {
	Subdomain           string
	Name                string
	DisplayName         string
	Status              models.TenantStatus
	Credentials         *models.Credentials
	Integration         *models.Credentials
	InstitutionDomain   string
	CorporatePartnerIDs []string
	Features            map[string]any
	Branding            map[string]any
}

// CredentialsPatch updates a credential pair field-by-field.
type CredentialsPatch struct {
	ClientID     *string `json:"client_id,omitempty"`
	ClientSecret *string `json:"client_secret,omitempty"`
}

// Patch is a partial tenant update: only non-nil fields change. Features and
// Branding deep-merge rather than replace.
type Patch struct {
	Subdomain           *string
	Name                *string
	DisplayName         *string
	Status              *models.TenantStatus
	Credentials         *CredentialsPatch
	Integration         *CredentialsPatch
	InstitutionDomain   *string
	CorporatePartnerIDs *[]string
	Features            map[string]any
	Branding            map[string]any
}

// Create validates and persists a new tenant. The subdomain doubles as the
// tenant id; uniqueness is enforced atomically by the store.
func (r *Registry) Create(ctx context.Context, in CreateInput) (*models.Tenant, error) {
	in.Subdomain = strings.ToLower(strings.TrimSpace(in.Subdomain))
	in.Name = strings.TrimSpace(in.Name)

	if in.Name == "" {
		return nil, dErrors.NewField(dErrors.CodeValidation, "name", "name is required")
	}
	if !models.ValidSubdomain(in.Subdomain) {
		return nil, dErrors.NewField(dErrors.CodeValidation, "subdomain",
			"subdomain must be 3-30 lowercase alphanumeric or hyphen characters")
	}
	if models.ReservedSubdomain(in.Subdomain) {
		return nil, dErrors.NewField(dErrors.CodeValidation, "subdomain", "subdomain is reserved")
	}
	if !in.Credentials.Complete() {
		return nil, dErrors.NewField(dErrors.CodeValidation, "credentials",
			"credentials require both client_id and client_secret")
	}
	if in.Integration.Partial() {
		return nil, dErrors.NewField(dErrors.CodeValidation, "integration_credentials",
			"integration credentials require both client_id and client_secret")
	}
	status := in.Status
	if status == "" {
		status = models.TenantStatusActive
	}
	if !models.ValidStatus(status) {
		return nil, dErrors.NewField(dErrors.CodeValidation, "status", "status must be active, inactive, or pending")
	}

	now := time.Now().UTC()
	t := &models.Tenant{
		ID:                  in.Subdomain,
		Subdomain:           in.Subdomain,
		Name:                in.Name,
		DisplayName:         strings.TrimSpace(in.DisplayName),
		Status:              status,
		Credentials:         in.Credentials,
		Integration:         in.Integration,
		InstitutionDomain:   strings.ToLower(strings.TrimSpace(in.InstitutionDomain)),
		CorporatePartnerIDs: in.CorporatePartnerIDs,
		Features:            in.Features,
		Branding:            in.Branding,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := r.store.Insert(ctx, t); err != nil {
		return nil, wrapStoreErr(err, "create tenant")
	}

	r.logger.InfoContext(ctx, "tenant created",
		"tenant_id", t.ID,
		"subdomain", t.Subdomain,
	)
	r.metrics.IncrementCreated()

	return t, nil
}

// Update applies a partial patch to an existing tenant. Nested credential
// objects merge field-by-field; features and branding deep-merge. The
// default tenant can never change its subdomain.
func (r *Registry) Update(ctx context.Context, id string, patch Patch) (*models.Tenant, error) {
	t, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "load tenant for update")
	}

	if patch.Subdomain != nil {
		sub := strings.ToLower(strings.TrimSpace(*patch.Subdomain))
		if t.IsDefault() {
			return nil, dErrors.NewField(dErrors.CodeValidation, "subdomain",
				"the default tenant's subdomain cannot be changed")
		}
		if !models.ValidSubdomain(sub) {
			return nil, dErrors.NewField(dErrors.CodeValidation, "subdomain",
				"subdomain must be 3-30 lowercase alphanumeric or hyphen characters")
		}
		if models.ReservedSubdomain(sub) {
			return nil, dErrors.NewField(dErrors.CodeValidation, "subdomain", "subdomain is reserved")
		}
		t.Subdomain = sub
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, dErrors.NewField(dErrors.CodeValidation, "name", "name cannot be blank")
		}
		t.Name = name
	}
	if patch.DisplayName != nil {
		t.DisplayName = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.Status != nil {
		if !models.ValidStatus(*patch.Status) {
			return nil, dErrors.NewField(dErrors.CodeValidation, "status", "status must be active, inactive, or pending")
		}
		t.Status = *patch.Status
	}
	if patch.Credentials != nil {
		merged, err := mergeCredentials(t.Credentials, patch.Credentials, "credentials")
		if err != nil {
			return nil, err
		}
		t.Credentials = merged
	}
	if patch.Integration != nil {
		merged, err := mergeCredentials(t.Integration, patch.Integration, "integration_credentials")
		if err != nil {
			return nil, err
		}
		t.Integration = merged
	}
	if patch.InstitutionDomain != nil {
		t.InstitutionDomain = strings.ToLower(strings.TrimSpace(*patch.InstitutionDomain))
	}
	if patch.CorporatePartnerIDs != nil {
		t.CorporatePartnerIDs = *patch.CorporatePartnerIDs
	}
	if patch.Features != nil {
		t.Features = models.DeepMerge(t.Features, patch.Features)
	}
	if patch.Branding != nil {
		t.Branding = models.DeepMerge(t.Branding, patch.Branding)
	}

	t.UpdatedAt = time.Now().UTC()
	if err := r.store.Update(ctx, t); err != nil {
		return nil, wrapStoreErr(err, "update tenant")
	}

	r.logger.InfoContext(ctx, "tenant updated", "tenant_id", t.ID)
	r.metrics.IncrementUpdated()

	return t, nil
}

// Delete removes a tenant permanently. The default tenant is protected.
// Cached backend clients for the deleted tenant stay usable until
// explicitly invalidated; callers owning the cache should evict the key.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if id == models.DefaultTenantID {
		return dErrors.NewField(dErrors.CodeValidation, "id", "the default tenant cannot be deleted")
	}
	if err := r.store.Delete(ctx, id); err != nil {
		return wrapStoreErr(err, "delete tenant")
	}

	r.logger.InfoContext(ctx, "tenant deleted", "tenant_id", id)
	r.metrics.IncrementDeleted()

	return nil
}

// mergeCredentials applies a field-by-field patch onto an existing pair.
// An empty resulting pair means "remove credentials, fall back to the
// process default account". A half-filled result is rejected.
func mergeCredentials(existing *models.Credentials, patch *CredentialsPatch, field string) (*models.Credentials, error) {
	merged := models.Credentials{}
	if existing != nil {
		merged = *existing
	}
	if patch.ClientID != nil {
		merged.ClientID = strings.TrimSpace(*patch.ClientID)
	}
	if patch.ClientSecret != nil {
		merged.ClientSecret = strings.TrimSpace(*patch.ClientSecret)
	}
	if merged.ClientID == "" && merged.ClientSecret == "" {
		return nil, nil
	}
	if merged.Partial() {
		return nil, dErrors.NewField(dErrors.CodeValidation, field,
			"credentials require both client_id and client_secret")
	}
	return &merged, nil
}
