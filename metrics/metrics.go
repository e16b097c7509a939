// Package metrics provides Prometheus metrics for the expiring cache.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/krisalay/page-cache/types"
)

// Metrics holds all Prometheus metrics for one cache and implements types.Metrics.
type Metrics struct {
	Hits             prometheus.Counter
	Misses           prometheus.Counter
	Expirations      prometheus.Counter
	ProducerFailures prometheus.Counter
	ProduceLatency   prometheus.Histogram
}

var _ types.Metrics = (*Metrics)(nil)

// NewMetrics creates the metrics under namespace and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hits_total",
			Help:      "Total number of lookups served from a fresh entry",
		}),
		Misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "misses_total",
			Help:      "Total number of lookups that ran the producer",
		}),
		Expirations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expirations_total",
			Help:      "Total number of producer runs that replaced a stale entry",
		}),
		ProducerFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "producer_failures_total",
			Help:      "Total number of failed producer calls",
		}),
		ProduceLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "produce_duration_seconds",
			Help:      "Producer latency in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) Hit()    { m.Hits.Inc() }
func (m *Metrics) Miss()   { m.Misses.Inc() }
func (m *Metrics) Expire() { m.Expirations.Inc() }

// Produced records one producer call.
func (m *Metrics) Produced(d time.Duration, err error) {
	m.ProduceLatency.Observe(d.Seconds())
	if err != nil {
		m.ProducerFailures.Inc()
	}
}
