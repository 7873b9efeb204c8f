// Package metrics exposes the daemon's Prometheus instrumentation: how long
// a reflow takes end to end, and how many accessibility-port operations are
// in flight against the worker pool's semaphore bound.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the metrics collectors the engine and reconciler report
// to, registered against a private prometheus.Registry rather than the
// global default so tests can construct one freely.
type Registry struct {
	reg *prometheus.Registry

	ReflowDuration  prometheus.Histogram
	PortOpsInFlight prometheus.Gauge
	ReflowsTotal    *prometheus.CounterVec
}

// New builds and registers a Registry.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		ReflowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "windesk",
			Subsystem: "engine",
			Name:      "reflow_duration_seconds",
			Help:      "Time to classify, compute, and dispatch one ApplyTiling reflow.",
			Buckets:   prometheus.DefBuckets,
		}),
		PortOpsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "windesk",
			Subsystem: "engine",
			Name:      "port_ops_in_flight",
			Help:      "Accessibility-port operations currently holding a worker-pool slot.",
		}),
		ReflowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "windesk",
			Subsystem: "engine",
			Name:      "reflows_total",
			Help:      "Completed reflows, partitioned by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(r.ReflowDuration, r.PortOpsInFlight, r.ReflowsTotal)
	return r
}

// Handler returns the /metrics HTTP handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
