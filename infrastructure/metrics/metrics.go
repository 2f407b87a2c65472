// Package metrics exposes Prometheus counters for sheet activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so tests and multiple servers never collide
// on the default one.
type Metrics struct {
	registry *prometheus.Registry

	Transitions   *prometheus.CounterVec
	Conflicts     *prometheus.CounterVec
	CellRejects   prometheus.Counter
	Exports       *prometheus.CounterVec
	RequestErrors *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loadsheet_transitions_total",
			Help: "Sheet lifecycle transitions by target status",
		}, []string{"status"}),
		Conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loadsheet_conflicts_total",
			Help: "Writes rejected because another operation got there first",
		}, []string{"operation"}),
		CellRejects: f.NewCounter(prometheus.CounterOpts{
			Name: "loadsheet_cell_rejections_total",
			Help: "Loading cells cleared for breaking the cases-per-pallet contract",
		}),
		Exports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loadsheet_exports_total",
			Help: "Sheet exports by format",
		}, []string{"format"}),
		RequestErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loadsheet_request_errors_total",
			Help: "API errors by HTTP status",
		}, []string{"status"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// The helpers below accept a nil receiver so callers can run without
// metrics.

func (m *Metrics) Transition(status string) {
	if m != nil {
		m.Transitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) Conflict(operation string) {
	if m != nil {
		m.Conflicts.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) CellRejected() {
	if m != nil {
		m.CellRejects.Inc()
	}
}

func (m *Metrics) Exported(format string) {
	if m != nil {
		m.Exports.WithLabelValues(format).Inc()
	}
}

func (m *Metrics) RequestError(status string) {
	if m != nil {
		m.RequestErrors.WithLabelValues(status).Inc()
	}
}
