package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"street2ivy/internal/sentinel"
	"street2ivy/internal/tenant/models"
)

// InMemory keeps tenants in process memory. Suitable for single-node
// deployments and tests; rows are cloned on the way in and out so readers
// only ever observe complete records.
type InMemory struct {
	mu           sync.RWMutex
	tenants      map[string]*models.Tenant
	subdomainIdx map[string]string
}

// NewInMemory creates an in-memory tenant store.
func NewInMemory() *InMemory {
	return &InMemory{
		tenants:      make(map[string]*models.Tenant),
		subdomainIdx: make(map[string]string),
	}
}

// Insert atomically creates the tenant if its subdomain is available (case-insensitive).
func (s *InMemory) Insert(_ context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tenants[t.ID]; exists {
		return fmt.Errorf("tenant id taken: %w", sentinel.ErrAlreadyUsed)
	}
	sub := strings.ToLower(t.Subdomain)
	if sub != "" {
		if _, exists := s.subdomainIdx[sub]; exists {
			return fmt.Errorf("subdomain taken: %w", sentinel.ErrAlreadyUsed)
		}
		s.subdomainIdx[sub] = t.ID
	}
	s.tenants[t.ID] = t.Clone()
	return nil
}

// Update replaces an existing tenant row, maintaining the subdomain index.
func (s *InMemory) Update(_ context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, exists := s.tenants[t.ID]
	if !exists {
		return sentinel.ErrNotFound
	}
	newSub := strings.ToLower(t.Subdomain)
	oldSub := strings.ToLower(prev.Subdomain)
	if newSub != oldSub {
		if newSub != "" {
			if owner, taken := s.subdomainIdx[newSub]; taken && owner != t.ID {
				return fmt.Errorf("subdomain taken: %w", sentinel.ErrAlreadyUsed)
			}
		}
		if oldSub != "" {
			delete(s.subdomainIdx, oldSub)
		}
		if newSub != "" {
			s.subdomainIdx[newSub] = t.ID
		}
	}
	s.tenants[t.ID] = t.Clone()
	return nil
}

// Delete removes a tenant row permanently.
func (s *InMemory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.tenants[id]
	if !exists {
		return sentinel.ErrNotFound
	}
	if t.Subdomain != "" {
		delete(s.subdomainIdx, strings.ToLower(t.Subdomain))
	}
	delete(s.tenants, id)
	return nil
}

// FindByID retrieves a tenant by id.
func (s *InMemory) FindByID(_ context.Context, id string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tenants[id]; ok {
		return t.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

// FindBySubdomain retrieves a tenant by subdomain (case-insensitive).
func (s *InMemory) FindBySubdomain(_ context.Context, subdomain string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.subdomainIdx[strings.ToLower(subdomain)]; ok {
		return s.tenants[id].Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

// List returns all tenants ordered by id.
func (s *InMemory) List(_ context.Context) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
