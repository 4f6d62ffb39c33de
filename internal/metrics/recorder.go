package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provider call outcomes
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomePanic   = "panic"
)

// Recorder counts provider calls and verdicts on its own registry, so several
// engines (and tests) never collide on the global default registry
type Recorder struct {
	registry *prometheus.Registry

	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	verdicts         *prometheus.CounterVec
}

// NewRecorder creates a recorder with all collectors registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corroborate_provider_requests_total",
				Help: "Provider invocations by outcome",
			},
			[]string{"provider", "outcome"},
		),
		providerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corroborate_provider_latency_seconds",
				Help:    "Provider response latency",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"provider"},
		),
		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corroborate_verdicts_total",
				Help: "Composed verdicts by result",
			},
			[]string{"verdict"},
		),
	}

	r.registry.MustRegister(r.providerRequests, r.providerLatency, r.verdicts)
	return r
}

// ObserveProvider records one finished provider invocation.
// A nil recorder is a no-op.
func (r *Recorder) ObserveProvider(provider, outcome string, latency time.Duration) {
	if r == nil {
		return
	}
	r.providerRequests.WithLabelValues(provider, outcome).Inc()
	r.providerLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

// ObserveVerdict records a composed report: "true", "false" or "unverified"
// when no provider answered
func (r *Recorder) ObserveVerdict(verdict string) {
	if r == nil {
		return
	}
	r.verdicts.WithLabelValues(verdict).Inc()
}

// Registry exposes the underlying registry for gathering
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's metrics in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
