package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// ActionsTotal counts moderation and social actions by outcome
	// (ok, or the denial kind).
	ActionsTotal *prometheus.CounterVec

	EventsPublishFailures *prometheus.CounterVec
	WSConnections         prometheus.Gauge
}

// New creates the metrics and registers them on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parentingo_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parentingo_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ActionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parentingo_actions_total",
				Help: "Total number of group, post and social actions by outcome",
			},
			[]string{"action", "outcome"},
		),
		EventsPublishFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parentingo_events_publish_failures_total",
				Help: "Total number of domain events that could not be published",
			},
			[]string{"publisher"},
		),
		WSConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "parentingo_ws_connections",
				Help: "Number of open live feed connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ActionsTotal,
		m.EventsPublishFailures,
		m.WSConnections,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveAction records the outcome of a service action. A nil *Metrics is
// a no-op so services can run without instrumentation in tests.
func (m *Metrics) ObserveAction(action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = apperror.KindOf(err).String()
	}
	m.ActionsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) PublishFailed(publisher string) {
	if m == nil {
		return
	}
	m.EventsPublishFailures.WithLabelValues(publisher).Inc()
}

func (m *Metrics) WSConnected() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

func (m *Metrics) WSDisconnected() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}
