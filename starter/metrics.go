package starter

import (
	"net/http"
	"regexp"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "axis"

// Metrics records starter activity on its own prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	resolved      *prometheus.CounterVec
	hooks         *prometheus.CounterVec
	startDuration *prometheus.HistogramVec
	started       prometheus.Gauge
}

// NewMetrics creates the starter collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		resolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_resolved_total",
			Help:      "Components instantiated by a resolver.",
		}, []string{"slug", "resolver"}),
		hooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hooks_registered_total",
			Help:      "Hook descriptors registered on the bus.",
		}, []string{"slug", "operation"}),
		startDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "start_duration_seconds",
			Help:      "Duration of Starter.Start.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"slug"}),
		started: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "starters_started",
			Help:      "Starters that completed Start.",
		}),
	}

	m.registry.MustRegister(m.resolved, m.hooks, m.startDuration, m.started)
	return m
}

func (m *Metrics) WithGoCollectorRuntimeMetrics() {
	m.registry.MustRegister(collectors.NewGoCollector(
		collectors.WithGoCollectorRuntimeMetrics(collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/.*")}),
	))
}

func (m *Metrics) WithBuildInfoCollector() {
	m.registry.MustRegister(collectors.NewBuildInfoCollector())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) componentResolved(slug, resolver string) {
	if m != nil {
		m.resolved.WithLabelValues(slug, resolver).Inc()
	}
}

func (m *Metrics) hookRegistered(slug, operation string) {
	if m != nil {
		m.hooks.WithLabelValues(slug, operation).Inc()
	}
}

func (m *Metrics) starterStarted(slug string, d time.Duration) {
	if m != nil {
		m.startDuration.WithLabelValues(slug).Observe(d.Seconds())
		m.started.Inc()
	}
}
