package client

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the Prometheus collectors updated by the client.
// A nil *Metrics disables instrumentation.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	retriesTotal    prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates the client collectors and registers them with reg.
// When reg is nil prometheus.DefaultRegisterer is used.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "espace_membre",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Requests sent to the Espace Membre API, by method and status.",
		}, []string{"method", "status"}),
		retriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "espace_membre",
			Subsystem: "client",
			Name:      "retries_total",
			Help:      "Requests retried after a 429 response.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "espace_membre",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Latency of a single attempt against the Espace Membre API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	for _, c := range []prometheus.Collector{m.requestsTotal, m.retriesTotal, m.requestDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) observeAttempt(method string, status int, started time.Time) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(method, label).Inc()
	m.requestDuration.WithLabelValues(method).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeRetry() {
	if m == nil {
		return
	}
	m.retriesTotal.Inc()
}
