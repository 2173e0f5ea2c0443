// Package metrics holds the Prometheus collectors of the back office.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fuego_backoffice"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RemoteCalls     *prometheus.CounterVec
	RemoteDuration  *prometheus.HistogramVec
	Fallbacks       *prometheus.CounterVec
	LocalWrites     *prometheus.CounterVec
	Online          prometheus.Gauge
	SchemaReady     prometheus.Gauge
	BoardRefreshes  *prometheus.CounterVec
	CheckoutCreated *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, together with the Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RemoteCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "Remote store calls by table, operation and outcome.",
		}, []string{"table", "op", "outcome"}),

		RemoteDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_duration_seconds",
			Help:      "Duration of remote store calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"table", "op"}),

		Fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "local_fallbacks_total",
			Help:      "Reads or writes served by the local cache instead of the remote store.",
		}, []string{"entity", "path"}),

		LocalWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "local_cache_writes_total",
			Help:      "Local cache writes by entity and outcome.",
		}, []string{"entity", "outcome"}),

		Online: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remote_online",
			Help:      "1 when the last connection probe succeeded.",
		}),

		SchemaReady: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remote_schema_ready",
			Help:      "1 when the orders relation exists.",
		}),

		BoardRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_board_refreshes_total",
			Help:      "Order board refreshes by outcome.",
		}, []string{"outcome"}),

		CheckoutCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_total",
			Help:      "Checkout session attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
	}
}

// Handler exposes the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRemote records one remote call.
func (m *Metrics) ObserveRemote(table, op string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RemoteCalls.WithLabelValues(table, op, outcome).Inc()
	m.RemoteDuration.WithLabelValues(table, op).Observe(time.Since(started).Seconds())
}

// Fallback records a read or write served locally.
func (m *Metrics) Fallback(entity, path string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(entity, path).Inc()
}

// LocalWrite records a cache write.
func (m *Metrics) LocalWrite(entity string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.LocalWrites.WithLabelValues(entity, outcome).Inc()
}

// SetConnectivity mirrors the probe results.
func (m *Metrics) SetConnectivity(online, schemaReady bool) {
	if m == nil {
		return
	}
	m.Online.Set(boolGauge(online))
	m.SchemaReady.Set(boolGauge(schemaReady))
}

// BoardRefresh records one poll of the order board.
func (m *Metrics) BoardRefresh(outcome string) {
	if m == nil {
		return
	}
	m.BoardRefreshes.WithLabelValues(outcome).Inc()
}

// Checkout records one checkout session attempt.
func (m *Metrics) Checkout(provider string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.CheckoutCreated.WithLabelValues(provider, outcome).Inc()
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
