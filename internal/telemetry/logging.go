// Package telemetry sets up logging, metrics and tracing.
package telemetry

import (
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a LOG_LEVEL value to a zap level. Unknown values are info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// NewLogger builds a JSON zap logger wrapped by otelzap so that
// logger.Ctx(ctx) attaches trace ids.
func NewLogger(level, serviceName string) (*otelzap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.Encoding = "json"
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if serviceName != "" {
		cfg.InitialFields = map[string]any{"service": serviceName}
	}

	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return otelzap.New(zl, otelzap.WithMinLevel(zapcore.WarnLevel)), nil
}
