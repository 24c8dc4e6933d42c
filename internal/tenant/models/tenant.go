package models

import (
	"regexp"
	"strings"
	"time"
)

// PlatformName brands default display names.
const PlatformName = "Street2Ivy"

// DefaultTenantID is reserved for the bootstrap tenant. The default tenant
// serves bare-domain traffic, can never be deleted, and never has a subdomain.
const DefaultTenantID = "default"

type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
	TenantStatusPending  TenantStatus = "pending"
)

// ValidStatus reports whether s is a known tenant status.
func ValidStatus(s TenantStatus) bool {
	switch s {
	case TenantStatusActive, TenantStatusInactive, TenantStatusPending:
		return true
	}
	return false
}

// subdomainPattern: lowercase alphanumeric plus hyphen, 3-30 chars,
// no leading or trailing hyphen.
var subdomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,28}[a-z0-9]$`)

// reservedSubdomains cannot be claimed by any tenant.
var reservedSubdomains = map[string]struct{}{
	"default": {},
	"www":     {},
	"api":     {},
}

// ValidSubdomain reports whether s matches the subdomain shape rules.
func ValidSubdomain(s string) bool {
	return subdomainPattern.MatchString(s)
}

// ReservedSubdomain reports whether s is reserved by the platform.
func ReservedSubdomain(s string) bool {
	_, ok := reservedSubdomains[strings.ToLower(s)]
	return ok
}

// Credentials is a client-id/secret pair for the upstream marketplace API.
// Either both halves are present or the pair is absent entirely.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Complete reports whether both halves of the pair are present.
func (c *Credentials) Complete() bool {
	return c != nil && c.ClientID != "" && c.ClientSecret != ""
}

// Partial reports a half-filled pair, which is rejected at creation time.
func (c *Credentials) Partial() bool {
	if c == nil {
		return false
	}
	return (c.ClientID == "") != (c.ClientSecret == "")
}

// Tenant is the unit of isolation: one institution or partner network
// operating a logical marketplace on a shared backend.
type Tenant struct {
	ID          string       `json:"id"`
	Subdomain   string       `json:"subdomain,omitempty"`
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name,omitempty"`
	Status      TenantStatus `json:"status"`

	// Credentials authenticate user-facing backend calls; Integration
	// carries the privileged integration account when it differs. Absent
	// credentials fall back to the process-wide default account.
	Credentials *Credentials `json:"credentials,omitempty"`
	Integration *Credentials `json:"integration_credentials,omitempty"`

	// InstitutionDomain scopes student queries to one institution's email
	// domain; CorporatePartnerIDs limits visible corporate accounts.
	InstitutionDomain   string   `json:"institution_domain,omitempty"`
	CorporatePartnerIDs []string `json:"corporate_partner_ids,omitempty"`

	Features map[string]any `json:"features,omitempty"`
	Branding map[string]any `json:"branding,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

func (t *Tenant) IsDefault() bool {
	return t.ID == DefaultTenantID
}

// Display returns the branding display name, defaulting to
// "{name} on {platform}" when unset.
func (t *Tenant) Display() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Name + " on " + PlatformName
}

// Clone returns a deep copy so callers never share mutable state with the
// store. Concurrent readers must not observe in-place mutations.
func (t *Tenant) Clone() *Tenant {
	if t == nil {
		return nil
	}
	c := *t
	if t.Credentials != nil {
		creds := *t.Credentials
		c.Credentials = &creds
	}
	if t.Integration != nil {
		creds := *t.Integration
		c.Integration = &creds
	}
	if t.CorporatePartnerIDs != nil {
		c.CorporatePartnerIDs = append([]string(nil), t.CorporatePartnerIDs...)
	}
	c.Features = cloneMap(t.Features)
	c.Branding = cloneMap(t.Branding)
	return &c
}
