package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the scheduler's Prometheus collectors. Attach with
// WithMetrics; a nil Metrics on the scheduler disables instrumentation.
type Metrics struct {
	passes     prometheus.Counter
	executions prometheus.Counter
	fresh      prometheus.Counter
	failures   *prometheus.CounterVec
}

// NewMetrics builds the scheduler collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reverb_passes_total",
			Help: "Total number of scheduler passes",
		}),
		executions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reverb_executions_total",
			Help: "Total number of reaction executions",
		}),
		fresh: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reverb_fresh_skips_total",
			Help: "Total number of records skipped as fresh (not stale)",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reverb_failures_total",
			Help: "Total number of per-record failures by code",
		}, []string{"code"}),
	}
	reg.MustRegister(m.passes, m.executions, m.fresh, m.failures)
	return m
}

func (m *Metrics) observePass(result PassResult) {
	m.passes.Inc()
}

func (m *Metrics) observeFailures(failures []Failure) {
	for _, f := range failures {
		m.failures.WithLabelValues(string(f.Code)).Inc()
	}
}
