package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GatewayMetrics captures request metrics for the HTTP gateway.
type GatewayMetrics interface {
	ObserveRequest(method, route, status string, durationSeconds float64)
	IncAuthFailure(kind string)
	IncThrottled()
}

// RealtimeMetrics captures connection-level metrics for the realtime gateway.
type RealtimeMetrics interface {
	IncConnections()
	DecConnections()
	IncSubscriptions(kind, outcome string)
	IncLivenessChecks()
	IncLivenessFailures()
	IncEventsDelivered(kind string)
}

// Noop implements both metric interfaces without emitting anything.
type Noop struct{}

func (Noop) ObserveRequest(string, string, string, float64) {}
func (Noop) IncAuthFailure(string)                          {}
func (Noop) IncThrottled()                                  {}
func (Noop) IncConnections()                                {}
func (Noop) DecConnections()                                {}
func (Noop) IncSubscriptions(string, string)                {}
func (Noop) IncLivenessChecks()                             {}
func (Noop) IncLivenessFailures()                           {}
func (Noop) IncEventsDelivered(string)                      {}

// Prom implements GatewayMetrics backed by Prometheus collectors.
type Prom struct {
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	authFailures *prometheus.CounterVec
	throttled    prometheus.Counter
	once         sync.Once
}

// NewProm constructs gateway metrics registered under the given namespace.
func NewProm(namespace string) *Prom {
	p := &Prom{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method/route/status",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method/route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected requests by failure kind",
		}, []string{"kind"}),
		throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_throttled_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
	p.once.Do(func() {
		prometheus.MustRegister(p.requests, p.latency, p.authFailures, p.throttled)
	})
	return p
}

func (p *Prom) ObserveRequest(method, route, status string, durationSeconds float64) {
	p.requests.WithLabelValues(method, route, status).Inc()
	p.latency.WithLabelValues(method, route).Observe(durationSeconds)
}

func (p *Prom) IncAuthFailure(kind string) {
	p.authFailures.WithLabelValues(kind).Inc()
}

func (p *Prom) IncThrottled() {
	p.throttled.Inc()
}

// Handler returns an HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// --- Realtime metrics ---

type realtimeProm struct {
	connections      prometheus.Gauge
	subscriptions    *prometheus.CounterVec
	livenessChecks   prometheus.Counter
	livenessFailures prometheus.Counter
	eventsDelivered  *prometheus.CounterVec
	once             sync.Once
}

// NewRealtimeProm constructs RealtimeMetrics with gauges/counters.
func NewRealtimeProm(namespace string) RealtimeMetrics {
	r := &realtimeProm{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_connections",
			Help:      "Currently active realtime connections",
		}),
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_subscriptions_total",
			Help:      "Subscription attempts by channel kind and outcome",
		}, []string{"kind", "outcome"}),
		livenessChecks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_liveness_checks_total",
			Help:      "Liveness pings written to active connections",
		}),
		livenessFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_liveness_failures_total",
			Help:      "Connections torn down after a failed liveness check",
		}),
		eventsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_events_delivered_total",
			Help:      "Events fanned out to attached connections by channel kind",
		}, []string{"kind"}),
	}
	r.once.Do(func() {
		prometheus.MustRegister(r.connections, r.subscriptions, r.livenessChecks, r.livenessFailures, r.eventsDelivered)
	})
	return r
}

func (r *realtimeProm) IncConnections() {
	r.connections.Inc()
}

func (r *realtimeProm) DecConnections() {
	r.connections.Dec()
}

func (r *realtimeProm) IncSubscriptions(kind, outcome string) {
	r.subscriptions.WithLabelValues(kind, outcome).Inc()
}

func (r *realtimeProm) IncLivenessChecks() {
	r.livenessChecks.Inc()
}

func (r *realtimeProm) IncLivenessFailures() {
	r.livenessFailures.Inc()
}

func (r *realtimeProm) IncEventsDelivered(kind string) {
	r.eventsDelivered.WithLabelValues(kind).Inc()
}
