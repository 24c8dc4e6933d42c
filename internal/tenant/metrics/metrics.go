package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks tenant lifecycle and resolution outcomes.
type Metrics struct {
	TenantsCreated prometheus.Counter
	TenantsUpdated prometheus.Counter
	TenantsDeleted prometheus.Counter
	Resolutions    *prometheus.CounterVec
}

// Resolution outcomes for the Resolutions counter.
const (
	OutcomeResolved    = "resolved"
	OutcomeDefault     = "default"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
)

func New() *Metrics {
	return &Metrics{
		TenantsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "s2i_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		TenantsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "s2i_tenants_updated_total",
			Help: "Total number of tenant updates applied",
		}),
		TenantsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "s2i_tenants_deleted_total",
			Help: "Total number of tenants deleted",
		}),
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "s2i_tenant_resolutions_total",
			Help: "Tenant resolution attempts by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.TenantsCreated.Inc()
	}
}

func (m *Metrics) IncrementUpdated() {
	if m != nil {
		m.TenantsUpdated.Inc()
	}
}

func (m *Metrics) IncrementDeleted() {
	if m != nil {
		m.TenantsDeleted.Inc()
	}
}

func (m *Metrics) ObserveResolution(outcome string) {
	if m != nil {
		m.Resolutions.WithLabelValues(outcome).Inc()
	}
}
