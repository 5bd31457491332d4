// Package metrics exposes Prometheus collectors for store mutations and
// HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tracker"

// Recorder groups the tracker's collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry     *prometheus.Registry
	mutations    *prometheus.CounterVec
	transactions prometheus.Gauge
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// NewRecorder creates the collectors on a dedicated registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_mutations_total",
			Help:      "Store mutations by operation and result.",
		}, []string{"operation", "result"}),
		transactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transactions",
			Help:      "Number of transactions currently held by the store.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	r.registry.MustRegister(r.mutations, r.transactions, r.requests, r.latency)
	return r
}

// Mutation counts one store mutation; result is "ok", "invalid" or "persist_error".
func (r *Recorder) Mutation(operation, result string) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(operation, result).Inc()
}

// SetTransactions records the current collection size.
func (r *Recorder) SetTransactions(n int) {
	if r == nil {
		return
	}
	r.transactions.Set(float64(n))
}

// Request records one served HTTP request.
func (r *Recorder) Request(route string, code int, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	r.latency.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
