// Package metrics exposes ledger and HTTP counters through a private Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for purse.
type Metrics struct {
	// Registry owns these metrics and backs the /metrics handler.
	Registry *prometheus.Registry

	operations      *prometheus.CounterVec
	alerts          *prometheus.CounterVec
	transfers       *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates a dedicated registry so repeated construction in tests cannot collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purse_operations_recorded_total",
				Help: "Operations appended to wallets.",
			},
			[]string{"type"},
		),
		alerts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purse_alerts_emitted_total",
				Help: "Alerts returned after wallet mutations.",
			},
			[]string{"kind"},
		),
		transfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purse_transfers_total",
				Help: "Transfer attempts by outcome.",
			},
			[]string{"result"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "purse_http_request_duration_seconds",
				Help:    "Duration of API requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
	}
}

// OperationRecorded counts a new operation.
func (m *Metrics) OperationRecorded(op model.Operation) {
	m.operations.WithLabelValues(string(op.Type)).Inc()
}

// AlertsEmitted counts alerts by kind.
func (m *Metrics) AlertsEmitted(alerts []service.Alert) {
	for _, a := range alerts {
		m.alerts.WithLabelValues(string(a.Kind)).Inc()
	}
}

// TransferFinished counts a transfer attempt.
func (m *Metrics) TransferFinished(outcome string) {
	m.transfers.WithLabelValues(outcome).Inc()
}

// ObserveRequest records the duration of one API request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
