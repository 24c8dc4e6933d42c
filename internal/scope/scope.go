// Package scope narrows a tenant's view of cross-user data down to its
// permitted boundary: one institution's email domain and/or an explicit set
// of corporate partner accounts.
package scope

import (
	"strings"

	"street2ivy/internal/tenant/models"
)

// Scope is the restriction set applied to aggregate queries. A nil *Scope
// means no additional restriction, which is legitimate only for the default
// tenant or genuine platform-wide administration.
type Scope struct {
	InstitutionDomain   string
	CorporatePartnerIDs map[string]struct{}
}

// Derive produces the restriction set for a tenant. Tenants with neither an
// institution domain nor partner ids get nil (unrestricted); this is never
// used as a fallback for errors, only for genuinely unscoped tenants.
func Derive(t *models.Tenant) *Scope {
	if t == nil {
		return nil
	}
	if t.InstitutionDomain == "" && len(t.CorporatePartnerIDs) == 0 {
		return nil
	}
	s := &Scope{
		InstitutionDomain: strings.ToLower(t.InstitutionDomain),
	}
	if len(t.CorporatePartnerIDs) > 0 {
		s.CorporatePartnerIDs = make(map[string]struct{}, len(t.CorporatePartnerIDs))
		for _, id := range t.CorporatePartnerIDs {
			s.CorporatePartnerIDs[id] = struct{}{}
		}
	}
	return s
}

// RestrictsInstitution reports whether student and educational-admin queries
// must be filtered by email domain.
func (s *Scope) RestrictsInstitution() bool {
	return s != nil && s.InstitutionDomain != ""
}

// RestrictsPartners reports whether corporate-partner records must be
// post-filtered to the permitted id set.
func (s *Scope) RestrictsPartners() bool {
	return s != nil && len(s.CorporatePartnerIDs) > 0
}

// AllowsPartner reports whether the given corporate account is visible.
// An unrestricted scope allows everything.
func (s *Scope) AllowsPartner(partnerID string) bool {
	if !s.RestrictsPartners() {
		return true
	}
	_, ok := s.CorporatePartnerIDs[partnerID]
	return ok
}

// AllowsEmail reports whether a user email falls inside the institution
// boundary. Matching is by full domain segment: "alice@harvard.edu" matches
// "harvard.edu", "alice@notharvard.edu" does not.
func (s *Scope) AllowsEmail(email string) bool {
	if !s.RestrictsInstitution() {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return strings.ToLower(email[at+1:]) == s.InstitutionDomain
}

// InstitutionDomainOrEmpty returns the institution domain for query-layer
// filtering, or "" when unrestricted.
func (s *Scope) InstitutionDomainOrEmpty() string {
	if s == nil {
		return ""
	}
	return s.InstitutionDomain
}

// PartnerIDs returns the permitted partner ids, for query-layer filtering.
func (s *Scope) PartnerIDs() []string {
	if !s.RestrictsPartners() {
		return nil
	}
	out := make([]string, 0, len(s.CorporatePartnerIDs))
	for id := range s.CorporatePartnerIDs {
		out = append(out, id)
	}
	return out
}

// Applied reports whether any restriction dimension is present. Aggregate
// responses carry this flag so "zero results, no data" is distinguishable
// from "zero results, scoping never applied".
func (s *Scope) Applied() bool {
	return s.RestrictsInstitution() || s.RestrictsPartners()
}
