package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics is a per-server registry so several servers can coexist in tests.
type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	runs     prometheus.Counter
	people   prometheus.Counter
	duration prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dynastygen",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dynastygen",
			Name:      "generated_runs_total",
			Help:      "Dynasties generated through the API.",
		}),
		people: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dynastygen",
			Name:      "generated_people_total",
			Help:      "People created by dynasties generated through the API.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dynastygen",
			Name:      "generate_duration_seconds",
			Help:      "Wall time of one generate request's engine run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	m.registry.MustRegister(m.requests, m.runs, m.people, m.duration)
	return m
}

// instrument counts requests served by h under the route label.
func (m *metrics) instrument(route string, h http.HandlerFunc) http.Handler {
	return promhttp.InstrumentHandlerCounter(
		m.requests.MustCurryWith(prometheus.Labels{"route": route}), h)
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
