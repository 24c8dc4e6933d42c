package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks client cache behavior. ClientsConstructed is the
// instrumentation point proving a tenant's client is built once and reused.
type Metrics struct {
	ClientsConstructed *prometheus.CounterVec
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	CacheInvalidations prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		ClientsConstructed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "s2i_backend_clients_constructed_total",
			Help: "Backend API clients constructed, by tenant",
		}, []string{"tenant"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "s2i_backend_client_cache_hits_total",
			Help: "Client cache lookups served from an existing entry",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "s2i_backend_client_cache_misses_total",
			Help: "Client cache lookups that constructed a new client",
		}),
		CacheInvalidations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "s2i_backend_client_cache_invalidations_total",
			Help: "Client cache entries evicted by administrative action",
		}),
	}
}

func (m *Metrics) observeConstructed(tenantKey string) {
	if m != nil {
		m.ClientsConstructed.WithLabelValues(tenantKey).Inc()
	}
}

func (m *Metrics) observeHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) observeMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) observeInvalidation() {
	if m != nil {
		m.CacheInvalidations.Inc()
	}
}
