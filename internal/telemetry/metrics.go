// Package telemetry exposes slideshow metrics to Prometheus.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var states = []string{"idle", "running", "paused"}

// Metrics owns a private registry so several schedulers (and tests) do not
// collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	misses      prometheus.Counter
	latency     prometheus.Histogram
	state       *prometheus.GaugeVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kenburns_transitions_total",
			Help: "Crossfades started, by kind of the outgoing item.",
		}, []string{"kind"}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kenburns_prefetch_misses_total",
			Help: "Prefetches the source answered with no item.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kenburns_item_latency_seconds",
			Help:    "Time from requesting an item to presenting it.",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kenburns_scheduler_state",
			Help: "1 for the current scheduler state.",
		}, []string{"state"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kenburns_control_requests_total",
			Help: "Control API requests.",
		}, []string{"method", "endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kenburns_control_request_duration_seconds",
			Help:    "Control API latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint", "status"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kenburns_control_active_requests",
			Help: "Control API requests in flight.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.transitions, m.misses, m.latency, m.state,
		m.requests, m.requestDuration, m.activeRequests,
	)
	return m
}

func (m *Metrics) Transition(kind string) {
	m.transitions.WithLabelValues(kind).Inc()
}

func (m *Metrics) PrefetchMiss() {
	m.misses.Inc()
}

func (m *Metrics) Latency(d time.Duration) {
	m.latency.Observe(d.Seconds())
}

// State sets the gauge of s to 1 and the others to 0.
func (m *Metrics) State(s string) {
	for _, st := range states {
		v := 0.0
		if st == s {
			v = 1
		}
		m.state.WithLabelValues(st).Set(v)
	}
}

// Registry is the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
