package backend

import (
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"street2ivy/internal/tenant/models"

	dErrors "street2ivy/pkg/domain-errors"
)

// DefaultKey is the cache key used when no tenant is supplied.
const DefaultKey = models.DefaultTenantID

// Factory constructs an API client for a resolved credential pair.
// Injectable so tests can count constructions or substitute fakes.
type Factory func(creds models.Credentials) API

// Cache maps tenant identity to a lazily-constructed backend client.
// Entries never expire; staleness after a credential rotation is resolved
// only by explicit invalidation. Isolation is keyed by tenant id, never by
// credential value: two tenants sharing the default account still get
// distinct client instances.
type Cache struct {
	mu      sync.RWMutex
	clients map[string]API

	group    singleflight.Group
	factory  Factory
	defaults models.Credentials
	metrics  *Metrics
	logger   *slog.Logger
}

// CacheOption configures a Cache.
type CacheOption func(c *Cache)

func WithCacheMetrics(m *Metrics) CacheOption {
	return func(c *Cache) {
		c.metrics = m
	}
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache creates a client cache. defaults is the process-wide fallback
// account used by tenants with no credentials of their own; it may be empty,
// in which case such tenants fail with a ConfigurationError.
func NewCache(factory Factory, defaults models.Credentials, opts ...CacheOption) *Cache {
	c := &Cache{
		clients:  make(map[string]API),
		factory:  factory,
		defaults: defaults,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDefaultFactory wires the real resty client as the cache factory.
func NewDefaultFactory(cfg Config, logger *slog.Logger) Factory {
	return func(creds models.Credentials) API {
		return NewClient(cfg, creds, logger)
	}
}

// Get returns the cached client for the tenant, constructing one on first
// access. A nil tenant maps to the default key. Concurrent misses for the
// same tenant collapse into a single construction; unrelated tenants never
// serialize on each other.
func (c *Cache) Get(tenant *models.Tenant) (API, error) {
	return c.lookup(cacheKey(tenant), effectiveCredentials(tenant, c.defaults))
}

// GetIntegration returns a client bound to the tenant's privileged
// integration account, falling back to its user-facing credentials and then
// to the process defaults. Cached under a separate key.
func (c *Cache) GetIntegration(tenant *models.Tenant) (API, error) {
	creds := c.defaults
	if tenant != nil {
		if tenant.Integration.Complete() {
			creds = *tenant.Integration
		} else if tenant.Credentials.Complete() {
			creds = *tenant.Credentials
		}
	}
	return c.lookup(cacheKey(tenant)+":integration", creds)
}

func (c *Cache) lookup(key string, creds models.Credentials) (API, error) {
	c.mu.RLock()
	client, ok := c.clients[key]
	c.mu.RUnlock()
	if ok {
		c.metrics.observeHit()
		return client, nil
	}

	if !creds.Complete() {
		return nil, dErrors.New(dErrors.CodeConfiguration,
			"no backend credentials available for tenant")
	}

	// singleflight collapses concurrent misses per key; construction happens
	// outside the map lock so other tenants' lookups proceed unblocked.
	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		existing, ok := c.clients[key]
		c.mu.RUnlock()
		if ok {
			return existing, nil
		}

		built := c.factory(creds)

		c.mu.Lock()
		// A racing Invalidate between construction and store is benign: the
		// entry lands and the next rotation evicts it again.
		if current, ok := c.clients[key]; ok {
			c.mu.Unlock()
			return current, nil
		}
		c.clients[key] = built
		c.mu.Unlock()

		c.metrics.observeMiss()
		c.metrics.observeConstructed(key)
		c.logger.Info("backend client constructed", "cache_key", key)
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(API), nil
}

// Invalidate evicts one tenant's cached clients (user-facing and
// integration). The next Get rebuilds from current credentials.
func (c *Cache) Invalidate(tenantID string) {
	key := tenantID
	if key == "" {
		key = DefaultKey
	}
	c.mu.Lock()
	for k := range c.clients {
		if k == key || strings.HasPrefix(k, key+":") {
			delete(c.clients, k)
			c.metrics.observeInvalidation()
		}
	}
	c.mu.Unlock()
	c.logger.Info("backend client invalidated", "tenant_id", key)
}

// InvalidateAll clears the entire cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	n := len(c.clients)
	c.clients = make(map[string]API)
	c.mu.Unlock()
	for i := 0; i < n; i++ {
		c.metrics.observeInvalidation()
	}
	c.logger.Info("backend client cache flushed", "entries", n)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clients)
}

func cacheKey(tenant *models.Tenant) string {
	if tenant == nil || tenant.ID == "" {
		return DefaultKey
	}
	return tenant.ID
}

// effectiveCredentials resolves the credential chain: the tenant's own pair
// when complete, else the process-wide defaults. Credential-less tenants
// deliberately operate against the shared default account.
func effectiveCredentials(tenant *models.Tenant, defaults models.Credentials) models.Credentials {
	if tenant != nil && tenant.Credentials.Complete() {
		return *tenant.Credentials
	}
	return defaults
}
