package report

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts aggregate reports served, split by whether tenant scoping
// was applied. An unscoped report for a scoped tenant would show up here.
type Metrics struct {
	ReportsServed *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		ReportsServed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "s2i_reports_served_total",
			Help: "Aggregate reports served, by kind and scoping",
		}, []string{"kind", "scoped"}),
	}
}

func (m *Metrics) observeReport(kind string, scoped bool) {
	if m != nil {
		m.ReportsServed.WithLabelValues(kind, strconv.FormatBool(scoped)).Inc()
	}
}
