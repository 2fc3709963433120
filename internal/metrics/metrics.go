// Package metrics counts kiosk activity for Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the kiosk's collectors.
type Metrics struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	lookups     *prometheus.CounterVec
	prints      *prometheus.CounterVec
	printTime   prometheus.Histogram
}

// New registers the kiosk collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "memberbooth_state_transitions_total",
			Help: "Total number of state machine transitions, by entered state.",
		}, []string{"state"}),
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "memberbooth_member_lookups_total",
			Help: "Total number of member lookups, by login method and outcome.",
		}, []string{"method", "result"}),
		prints: f.NewCounterVec(prometheus.CounterOpts{
			Name: "memberbooth_prints_total",
			Help: "Total number of print attempts, by label kind and outcome.",
		}, []string{"kind", "result"}),
		printTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "memberbooth_print_duration_seconds",
			Help:    "Histogram of print orchestration latencies.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16},
		}),
	}
}

// Registry returns the registry to expose.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Transition counts entering state.
func (m *Metrics) Transition(state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(state).Inc()
}

// Lookup counts a member lookup.
func (m *Metrics) Lookup(method, result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(method, result).Inc()
}

// Print counts a finished print and its duration in seconds.
func (m *Metrics) Print(kind, result string, seconds float64) {
	if m == nil {
		return
	}
	m.prints.WithLabelValues(kind, result).Inc()
	m.printTime.Observe(seconds)
}
