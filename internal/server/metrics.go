// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/lexdef-engine/pkg/types"
)

const namespace = "lexdef_engine"

// Metrics holds the collectors for the HTTP surface. Each Metrics owns its
// registry so tests can build several without clashing on the default one.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Extractions     *prometheus.CounterVec
	ArchiveErrors   prometheus.Counter
}

// NewMetrics creates and registers all collectors, including the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total lookup requests by status code and error kind",
			},
			[]string{"code", "kind"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Lookup request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"code"},
		),

		Extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "extract",
				Name:      "results_total",
				Help:      "Successful extractions by cascade strategy",
			},
			[]string{"strategy"},
		),

		ArchiveErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "archive",
				Name:      "errors_total",
				Help:      "Results that could not be written to the archive",
			},
		),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.Extractions,
		m.ArchiveErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// observe records one finished lookup. kind is empty on success.
func (m *Metrics) observe(code int, kind types.ErrorKind, strategy types.Strategy, elapsed time.Duration) {
	c := strconv.Itoa(code)
	m.RequestsTotal.WithLabelValues(c, string(kind)).Inc()
	m.RequestDuration.WithLabelValues(c).Observe(elapsed.Seconds())
	if kind == "" && strategy != "" {
		m.Extractions.WithLabelValues(string(strategy)).Inc()
	}
}
