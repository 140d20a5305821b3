// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nethunter"

// Metrics owns a private registry so tests can build independent instances
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration      *prometheus.HistogramVec
	Signups              prometheus.Counter
	Signins              *prometheus.CounterVec
	EntitlementMutations *prometheus.CounterVec
	Accounts             *prometheus.GaugeVec
	Extractions          *prometheus.CounterVec
	ExtractedURLs        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method, route pattern and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		Signups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signups_total",
			Help:      "Accounts created.",
		}),
		Signins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signins_total",
			Help:      "Signin attempts by result.",
		}, []string{"result"}),
		EntitlementMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entitlement_mutations_total",
			Help:      "Premium grants, revocations and trial resets by action.",
		}, []string{"action"}),
		Accounts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accounts",
			Help:      "Accounts by access tier at the last census.",
		}, []string{"tier"}),
		Extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "URL extractions by tier and outcome.",
		}, []string{"tier", "result"}),
		ExtractedURLs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extracted_urls_total",
			Help:      "URLs returned by extractions, by tier.",
		}, []string{"tier"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestDuration,
		m.Signups,
		m.Signins,
		m.EntitlementMutations,
		m.Accounts,
		m.Extractions,
		m.ExtractedURLs,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
