package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// #region metrics
// Metrics instruments evaluations and RPCs. It implements eval.Observer.
type Metrics struct {
	reg *prometheus.Registry

	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	unresolved  *prometheus.CounterVec
	requests    *prometheus.CounterVec
}

// New registers the dexi collectors, plus the Go and process collectors, on
// a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexi",
			Name:      "evaluations_total",
			Help:      "Evaluations by mode and outcome.",
		}, []string{"mode", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dexi",
			Name:      "evaluation_duration_seconds",
			Help:      "Time to evaluate one alternative.",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"mode"}),
		unresolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexi",
			Name:      "unresolved_attributes_total",
			Help:      "Attributes left without a distribution, by mode.",
		}, []string{"mode"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexi",
			Name:      "rpc_requests_total",
			Help:      "RPC requests by method and status code.",
		}, []string{"method", "code"}),
	}
}

// Registry exposes the underlying registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
// #endregion metrics

// #region observer
// ObserveEvaluation counts one evaluation and records its duration.
func (m *Metrics) ObserveEvaluation(mode string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.evaluations.WithLabelValues(mode, outcome).Inc()
	m.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// ObserveUnresolved counts one unresolved attribute. Attribute names stay
// out of the labels; the engine logs them at debug level.
func (m *Metrics) ObserveUnresolved(mode, _, _ string) {
	m.unresolved.WithLabelValues(mode).Inc()
}

// ObserveRequest counts one RPC by its final status code.
func (m *Metrics) ObserveRequest(method, code string) {
	m.requests.WithLabelValues(method, code).Inc()
}
// #endregion observer
