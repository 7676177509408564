// Package booking orchestrates carrier operations: it resolves the carrier
// configuration, calls the carrier and applies the persistence and event
// side effects around the call.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/carrierlink/internal/events"
	"github.com/tournevent/carrierlink/internal/store"
	"github.com/tournevent/carrierlink/internal/telemetry"
	"github.com/tournevent/carrierlink/pkg/shipper"
)

// ConfigResolver resolves the APIConfig of a carrier operation.
type ConfigResolver interface {
	Resolve(ctx context.Context, carrierID string, op shipper.Operation) (*shipper.APIConfig, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Resolver ConfigResolver
	Registry *shipper.Registry
	Store    store.Store
	Recorder events.Recorder
	Logger   *otelzap.Logger
	Metrics  *telemetry.Metrics
}

// Service runs the orchestrated operations.
type Service struct {
	resolver ConfigResolver
	registry *shipper.Registry
	store    store.Store
	recorder events.Recorder
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
	now      func() time.Time
}

// NewService creates a Service. Recorder and Logger are optional.
func NewService(d Deps) *Service {
	s := &Service{
		resolver: d.Resolver,
		registry: d.Registry,
		store:    d.Store,
		recorder: d.Recorder,
		logger:   d.Logger,
		metrics:  d.Metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
	if s.recorder == nil {
		s.recorder = events.Nop{}
	}
	if s.logger == nil {
		s.logger = otelzap.New(zap.NewNop())
	}
	return s
}

// carrier resolves the configuration for op and the registered client
// serving the resolved record.
func (s *Service) carrier(ctx context.Context, carrierID string, op shipper.Operation) (*shipper.APIConfig, shipper.Shipper, error) {
	cfg, err := s.resolver.Resolve(ctx, carrierID, op)
	if err != nil {
		return nil, nil, err
	}

	client, err := s.registry.Get(cfg.CarrierName)
	if err != nil {
		var fallbackErr error
		if client, fallbackErr = s.registry.Get(carrierID); fallbackErr != nil {
			return nil, nil, shipper.NewNotFoundError(cfg.CarrierName, "no client is registered for carrier "+cfg.CarrierName).WithCause(err)
		}
	}
	return cfg, client, nil
}

// loadShipment returns the stored shipment, or nil when it does not exist.
func (s *Service) loadShipment(ctx context.Context, id string) (store.Document, error) {
	if id == "" {
		return nil, nil
	}
	doc, err := s.store.Get(ctx, store.CollectionShipments, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return doc, err
}

// observe records metrics for a finished operation.
func (s *Service) observe(op shipper.Operation, carrier string, start time.Time, success bool, kind shipper.ErrorKind) {
	status := telemetry.StatusSuccess
	if !success {
		status = telemetry.StatusFailure
		s.metrics.RecordError(carrier, string(kind))
	}
	s.metrics.RecordRequest(string(op), carrier, status, time.Since(start))
}

// sideEffect logs and counts a failed best-effort step.
func (s *Service) sideEffect(ctx context.Context, op shipper.Operation, name, entityID string, err error) {
	if err == nil {
		return
	}
	s.metrics.RecordSideEffectFailure(string(op), name)
	s.logger.Ctx(ctx).Warn("Side effect failed",
		zap.String("operation", string(op)),
		zap.String("side_effect", name),
		zap.String("entity_id", entityID),
		zap.Error(err),
	)
}

func carrierLabel(client shipper.Shipper, carrierID string) string {
	if client != nil {
		return client.Name()
	}
	return carrierID
}
