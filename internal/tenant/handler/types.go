package handler

import (
	"strings"
	"time"

	"street2ivy/internal/tenant/models"
	"street2ivy/internal/tenant/registry"
	s "street2ivy/pkg/string"
	"street2ivy/pkg/validation"
)

// CredentialsBody carries an OAuth client pair in admin requests. Both
// fields travel together; partial pairs are rejected downstream.
type CredentialsBody struct {
	ClientID     string `json:"client_id" validate:"required,notblank"`
	ClientSecret string `json:"client_secret" validate:"required,notblank"`
}

// CreateTenantRequest is the admin payload for registering a marketplace.
type CreateTenantRequest struct {
	Subdomain           string           `json:"subdomain" validate:"required,notblank"`
	Name                string           `json:"name" validate:"required,notblank"`
	DisplayName         string           `json:"display_name"`
	Status              string           `json:"status" validate:"omitempty,oneof=active inactive pending"`
	Credentials         *CredentialsBody `json:"credentials" validate:"required"`
	Integration         *CredentialsBody `json:"integration_credentials,omitempty"`
	InstitutionDomain   string           `json:"institution_domain" validate:"omitempty,hostname_rfc1123"`
	CorporatePartnerIDs []string         `json:"corporate_partner_ids,omitempty"`
	Features            map[string]any   `json:"features,omitempty"`
	Branding            map[string]any   `json:"branding,omitempty"`
}

func (r *CreateTenantRequest) Normalize() {
	s.TrimStrings(&r.Subdomain, &r.Name, &r.DisplayName, &r.InstitutionDomain)
	r.Subdomain = strings.ToLower(r.Subdomain)
	r.InstitutionDomain = strings.ToLower(r.InstitutionDomain)
}

func (r *CreateTenantRequest) Validate() error {
	return validation.Validate(r)
}

func (r *CreateTenantRequest) toInput() registry.CreateInput {
	in := registry.CreateInput{
		Subdomain:           r.Subdomain,
		Name:                r.Name,
		DisplayName:         r.DisplayName,
		Status:              models.TenantStatus(r.Status),
		InstitutionDomain:   r.InstitutionDomain,
		CorporatePartnerIDs: r.CorporatePartnerIDs,
		Features:            r.Features,
		Branding:            r.Branding,
	}
	if r.Credentials != nil {
		in.Credentials = &models.Credentials{
			ClientID:     r.Credentials.ClientID,
			ClientSecret: r.Credentials.ClientSecret,
		}
	}
	if r.Integration != nil {
		in.Integration = &models.Credentials{
			ClientID:     r.Integration.ClientID,
			ClientSecret: r.Integration.ClientSecret,
		}
	}
	return in
}

// UpdateTenantRequest is a partial update: only present fields change.
type UpdateTenantRequest struct {
	Subdomain           *string                    `json:"subdomain,omitempty"`
	Name                *string                    `json:"name,omitempty"`
	DisplayName         *string                    `json:"display_name,omitempty"`
	Status              *string                    `json:"status,omitempty" validate:"omitempty,oneof=active inactive pending"`
	Credentials         *registry.CredentialsPatch `json:"credentials,omitempty"`
	Integration         *registry.CredentialsPatch `json:"integration_credentials,omitempty"`
	InstitutionDomain   *string                    `json:"institution_domain,omitempty"`
	CorporatePartnerIDs *[]string                  `json:"corporate_partner_ids,omitempty"`
	Features            map[string]any             `json:"features,omitempty"`
	Branding            map[string]any             `json:"branding,omitempty"`
}

func (r *UpdateTenantRequest) Normalize() {
	for _, f := range []*string{r.Subdomain, r.Name, r.DisplayName, r.InstitutionDomain} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	if r.Subdomain != nil {
		*r.Subdomain = strings.ToLower(*r.Subdomain)
	}
	if r.InstitutionDomain != nil {
		*r.InstitutionDomain = strings.ToLower(*r.InstitutionDomain)
	}
}

func (r *UpdateTenantRequest) Validate() error {
	return validation.Validate(r)
}

func (r *UpdateTenantRequest) toPatch() registry.Patch {
	p := registry.Patch{
		Subdomain:           r.Subdomain,
		Name:                r.Name,
		DisplayName:         r.DisplayName,
		Credentials:         r.Credentials,
		Integration:         r.Integration,
		InstitutionDomain:   r.InstitutionDomain,
		CorporatePartnerIDs: r.CorporatePartnerIDs,
		Features:            r.Features,
		Branding:            r.Branding,
	}
	if r.Status != nil {
		status := models.TenantStatus(*r.Status)
		p.Status = &status
	}
	return p
}

// TenantResponse is the admin view of a tenant. Client secrets never leave
// the service; only the client id is echoed back.
type TenantResponse struct {
	ID                  string         `json:"id"`
	Subdomain           string         `json:"subdomain,omitempty"`
	Name                string         `json:"name"`
	DisplayName         string         `json:"display_name"`
	Status              string         `json:"status"`
	ClientID            string         `json:"client_id,omitempty"`
	IntegrationClientID string         `json:"integration_client_id,omitempty"`
	InstitutionDomain   string         `json:"institution_domain,omitempty"`
	CorporatePartnerIDs []string       `json:"corporate_partner_ids,omitempty"`
	Features            map[string]any `json:"features,omitempty"`
	Branding            map[string]any `json:"branding,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// TenantsListResponse wraps the admin tenant listing.
type TenantsListResponse struct {
	Tenants []*TenantResponse `json:"tenants"`
	Total   int               `json:"total"`
}

func toTenantResponse(t *models.Tenant) *TenantResponse {
	resp := &TenantResponse{
		ID:                  t.ID,
		Subdomain:           t.Subdomain,
		Name:                t.Name,
		DisplayName:         t.Display(),
		Status:              string(t.Status),
		InstitutionDomain:   t.InstitutionDomain,
		CorporatePartnerIDs: t.CorporatePartnerIDs,
		Features:            t.Features,
		Branding:            t.Branding,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
	if t.Credentials != nil {
		resp.ClientID = t.Credentials.ClientID
	}
	if t.Integration != nil {
		resp.IntegrationClientID = t.Integration.ClientID
	}
	return resp
}

func toTenantsListResponse(tenants []*models.Tenant) *TenantsListResponse {
	responses := make([]*TenantResponse, len(tenants))
	for i, t := range tenants {
		responses[i] = toTenantResponse(t)
	}
	return &TenantsListResponse{
		Tenants: responses,
		Total:   len(responses),
	}
}
