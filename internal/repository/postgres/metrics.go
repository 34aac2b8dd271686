package postgres

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records repository operation counts and latencies.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the repository collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "clinicapi",
				Subsystem: "repository",
				Name:      "operations_total",
				Help:      "Total number of repository operations by outcome.",
			},
			[]string{"entity", "operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "clinicapi",
				Subsystem: "repository",
				Name:      "operation_duration_seconds",
				Help:      "Latency of repository operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"entity", "operation"},
		),
	}

	for _, c := range []prometheus.Collector{m.operations, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe is a no-op on a nil receiver so repositories work without metrics.
func (m *Metrics) observe(entity, operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(entity, operation, outcome).Inc()
	m.duration.WithLabelValues(entity, operation).Observe(elapsed.Seconds())
}
