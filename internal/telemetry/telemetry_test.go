package telemetry_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/tournevent/carrierlink/internal/telemetry"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"Error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, telemetry.ParseLevel(in), in)
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := telemetry.NewLogger("debug", "carrierlink")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func counterTotal(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(reg)

	m.RecordRequest("book", "canpar", telemetry.StatusSuccess, 120*time.Millisecond)
	m.RecordRequest("book", "canpar", telemetry.StatusSuccess, 80*time.Millisecond)
	m.RecordError("eshipplus", "network")
	m.RecordSideEffectFailure("book", "label")

	assert.Equal(t, 2.0, counterTotal(t, reg, "carrierlink_requests_total"))
	assert.Equal(t, 1.0, counterTotal(t, reg, "carrierlink_carrier_errors_total"))
	assert.Equal(t, 1.0, counterTotal(t, reg, "carrierlink_side_effect_failures_total"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *telemetry.Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("rate", "canpar", telemetry.StatusFailure, time.Second)
		m.RecordError("canpar", "carrier")
		m.RecordSideEffectFailure("cancel", "event")
	})
}
