package server

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks per-kind request counts and in-flight gauges for the
// router, exposed for scraping via promhttp in whatever process embeds
// this package (wiring the listener itself is out of scope here).
type Metrics struct {
	requestsTotal  *prometheus.CounterVec
	requestsActive *prometheus.GaugeVec

	mu sync.Mutex
}

// NewMetrics registers the router's collectors against reg. Pass
// prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_requests_total",
			Help: "Total number of routed requests by kind.",
		}, []string{"kind"}),
		requestsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "assistant_requests_active",
			Help: "Number of requests currently being handled by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.requestsTotal, m.requestsActive)
	return m
}

// RequestStarted records the start of a request of the given kind.
func (m *Metrics) RequestStarted(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal.WithLabelValues(kind).Inc()
	m.requestsActive.WithLabelValues(kind).Inc()
}

// RequestFinished records the completion of a request of the given kind.
func (m *Metrics) RequestFinished(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsActive.WithLabelValues(kind).Dec()
}
