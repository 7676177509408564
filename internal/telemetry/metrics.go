package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcome labels.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	CarrierErrors      *prometheus.CounterVec
	SideEffectFailures *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them on reg. A nil reg uses
// the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carrierlink_requests_total",
				Help: "Carrier operations by operation, carrier and status",
			},
			[]string{"operation", "carrier", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "carrierlink_request_duration_seconds",
				Help:    "Carrier operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "carrier"},
		),
		CarrierErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carrierlink_carrier_errors_total",
				Help: "Failed carrier operations by carrier and error kind",
			},
			[]string{"carrier", "error_type"},
		),
		SideEffectFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carrierlink_side_effect_failures_total",
				Help: "Best-effort side effects that failed after the primary operation",
			},
			[]string{"operation", "side_effect"},
		),
	}
}

// RecordRequest records one operation and its duration.
func (m *Metrics) RecordRequest(operation, carrier, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, carrier, status).Inc()
	m.RequestDuration.WithLabelValues(operation, carrier).Observe(elapsed.Seconds())
}

// RecordError records a failed operation by error kind.
func (m *Metrics) RecordError(carrier, errorType string) {
	if m == nil {
		return
	}
	m.CarrierErrors.WithLabelValues(carrier, errorType).Inc()
}

// RecordSideEffectFailure records a failed best-effort step.
func (m *Metrics) RecordSideEffectFailure(operation, sideEffect string) {
	if m == nil {
		return
	}
	m.SideEffectFailures.WithLabelValues(operation, sideEffect).Inc()
}
