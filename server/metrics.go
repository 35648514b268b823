package server

import (
	"time"

	"github.com/poiesic/embedsync/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "embedsync"

// outcomeSuccess labels requests that completed without error.
const outcomeSuccess = "success"

type metrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

// newMetrics registers the update metrics, plus process and Go runtime
// collectors, on reg.
func newMetrics(reg *prometheus.Registry) *metrics {
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_requests_total",
			Help:      "Single-record update requests by result category",
		}, []string{"category"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_duration_seconds",
			Help:      "Duration of single-record update requests",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *metrics) observe(category core.Category, elapsed time.Duration) {
	label := string(category)
	if category == core.CategoryNone {
		label = outcomeSuccess
	}
	m.requests.WithLabelValues(label).Inc()
	m.duration.Observe(elapsed.Seconds())
}
