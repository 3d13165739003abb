package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func withTestRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	origReg := prometheus.DefaultRegisterer
	origGather := prometheus.DefaultGatherer
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGather
	})
	return reg
}

func TestNoopMetrics(t *testing.T) {
	var m Noop
	m.ObserveRequest("GET", "/v1/orders", "200", 0.01)
	m.IncAuthFailure("expired")
	m.IncThrottled()
	m.IncConnections()
	m.DecConnections()
	m.IncSubscriptions("order_channel", "attach")
	m.IncLivenessChecks()
	m.IncLivenessFailures()
	m.IncEventsDelivered("order_channel")
}

func TestGatewayProm(t *testing.T) {
	reg := withTestRegistry(t)
	m := NewProm("tablerail")
	m.ObserveRequest("GET", "/v1/orders", "200", 0.01)
	m.IncAuthFailure("expired")
	m.IncThrottled()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if !hasMetric(families, "tablerail_http_requests_total", map[string]string{"method": "GET", "route": "/v1/orders", "status": "200"}) {
		t.Fatalf("expected http_requests metric")
	}
	if !hasMetric(families, "tablerail_http_request_duration_seconds", map[string]string{"method": "GET", "route": "/v1/orders"}) {
		t.Fatalf("expected http_request_duration metric")
	}
	if !hasMetric(families, "tablerail_auth_failures_total", map[string]string{"kind": "expired"}) {
		t.Fatalf("expected auth_failures metric")
	}
	if !hasMetric(families, "tablerail_requests_throttled_total", nil) {
		t.Fatalf("expected requests_throttled metric")
	}
}

func TestRealtimeProm(t *testing.T) {
	reg := withTestRegistry(t)
	m := NewRealtimeProm("tablerail")
	m.IncConnections()
	m.IncSubscriptions("order_channel", "attach")
	m.IncSubscriptions("inventory_channel", "reject")
	m.IncLivenessChecks()
	m.IncLivenessFailures()
	m.IncEventsDelivered("order_channel")
	m.DecConnections()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if !hasMetric(families, "tablerail_realtime_connections", nil) {
		t.Fatalf("expected connections gauge")
	}
	if !hasMetric(families, "tablerail_realtime_subscriptions_total", map[string]string{"kind": "order_channel", "outcome": "attach"}) {
		t.Fatalf("expected subscriptions metric")
	}
	if !hasMetric(families, "tablerail_realtime_liveness_checks_total", nil) {
		t.Fatalf("expected liveness_checks metric")
	}
	if !hasMetric(families, "tablerail_realtime_liveness_failures_total", nil) {
		t.Fatalf("expected liveness_failures metric")
	}
	if !hasMetric(families, "tablerail_realtime_events_delivered_total", map[string]string{"kind": "order_channel"}) {
		t.Fatalf("expected events_delivered metric")
	}
}

func TestHandler(t *testing.T) {
	withTestRegistry(t)
	m := NewProm("tablerail")
	m.IncThrottled()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("expected metrics output")
	}
}

func hasMetric(families []*dto.MetricFamily, name string, labels map[string]string) bool {
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if matchLabels(metric.GetLabel(), labels) {
				return true
			}
		}
	}
	return false
}

func matchLabels(pairs []*dto.LabelPair, labels map[string]string) bool {
	if len(labels) == 0 {
		return true
	}
	found := 0
	for _, pair := range pairs {
		if val, ok := labels[pair.GetName()]; ok && pair.GetValue() == val {
			found++
		}
	}
	return found == len(labels)
}
