package internal

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MutationMetrics records one observation per mutation call.
// A nil *MutationMetrics is valid and records nothing.
type MutationMetrics struct {
	calls     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	batchSize *prometheus.HistogramVec
	breaker   *prometheus.CounterVec
}

// NewMutationMetrics creates the collectors and registers them with reg.
func NewMutationMetrics(reg prometheus.Registerer, namespace string) (*MutationMetrics, error) {
	m := &MutationMetrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutation_calls_total",
				Help:      "Total number of mutation calls by outcome",
			},
			[]string{"mutation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mutation_duration_seconds",
				Help:      "Duration of mutation calls",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"mutation"},
		),
		batchSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mutation_batch_size",
				Help:      "Number of inputs per mutation call",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
			},
			[]string{"mutation"},
		),
		breaker: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_breaker_rejections_total",
				Help:      "Transactions refused while the store circuit breaker was open",
			},
			[]string{"store"},
		),
	}

	for _, c := range []prometheus.Collector{m.calls, m.duration, m.batchSize, m.breaker} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records the outcome, latency and size of one call.
func (m *MutationMetrics) Observe(mutation, outcome string, inputs int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(mutation, outcome).Inc()
	m.duration.WithLabelValues(mutation).Observe(elapsed.Seconds())
	m.batchSize.WithLabelValues(mutation).Observe(float64(inputs))
}

// BreakerRejected counts a transaction refused by an open breaker.
func (m *MutationMetrics) BreakerRejected(store string) {
	if m == nil {
		return
	}
	m.breaker.WithLabelValues(store).Inc()
}
