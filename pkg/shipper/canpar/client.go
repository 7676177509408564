// Package canpar provides integration with the Canpar CanShip SOAP services.
package canpar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tournevent/carrierlink/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	carrierName = "canpar"
	carrierCode = "CANPAR"
)

// DefaultTimeout bounds every CanShip call.
const DefaultTimeout = 30 * time.Second

// Aliases are the spellings Canpar carrier records use.
var Aliases = []string{"Canpar", "Canpar Express", "CANPAR", "Canpar Courier"}

// Config holds Canpar client configuration. Credentials and endpoints come
// per call from the resolved shipper.APIConfig.
type Config struct {
	Timeout      time.Duration
	Thermal      bool
	CancelPolicy shipper.AmbiguousCancelPolicy
}

// Client is the Canpar API client.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *otelzap.Logger
	tracer     trace.Tracer
}

// New creates a new Canpar client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return NewWithHTTPClient(cfg, &http.Client{Timeout: timeout}, logger, tracer)
}

// NewWithHTTPClient creates a new Canpar client with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *http.Client, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if cfg.CancelPolicy == "" {
		cfg.CancelPolicy = shipper.AssumeCancelled
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(carrierName)
	}
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
		tracer:     tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// Mode returns the shipment mode; Canpar is a parcel carrier and prints labels.
func (c *Client) Mode() shipper.ShipmentMode {
	return shipper.ModeCourier
}

// Rate prices s with rateShipment.
func (c *Client) Rate(ctx context.Context, cfg *shipper.APIConfig, s *shipper.Shipment) (*shipper.RateResult, error) {
	ctx, span := c.tracer.Start(ctx, "canpar.Rate")
	defer span.End()

	body, err := BuildRateRequest(s, cfg)
	if err != nil {
		return nil, fail(span, err)
	}

	c.logger.Ctx(ctx).Info("Getting Canpar rate",
		zap.String("origin_postal", s.Origin.PostalCode),
		zap.String("destination_postal", s.Destination.PostalCode),
		zap.Int("package_count", len(s.Packages)),
	)

	data, err := c.doSOAPRequest(ctx, cfg, opRate, body)
	if err != nil {
		return nil, fail(span, err)
	}

	result, err := ParseRateResponse(data)
	if err != nil {
		c.logger.Ctx(ctx).Error("Canpar rate failed", zap.Error(err))
		return nil, fail(span, err)
	}
	return result, nil
}

// Book creates the shipment with processShipment.
func (c *Client) Book(ctx context.Context, cfg *shipper.APIConfig, s *shipper.Shipment) (*shipper.BookingResult, error) {
	ctx, span := c.tracer.Start(ctx, "canpar.Book")
	defer span.End()

	body, err := BuildBookRequest(s, cfg)
	if err != nil {
		return nil, fail(span, err)
	}

	c.logger.Ctx(ctx).Info("Creating Canpar shipment",
		zap.String("service", s.Service),
		zap.String("recipient", s.Destination.Name),
		zap.Int("package_count", len(s.Packages)),
	)

	data, err := c.doSOAPRequest(ctx, cfg, opProcess, body)
	if err != nil {
		return nil, fail(span, err)
	}

	result, err := ParseBookResponse(data)
	if err != nil {
		c.logger.Ctx(ctx).Error("Canpar booking failed", zap.Error(err))
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("carrier.shipment_id", result.ShipmentID))
	return result, nil
}

// Cancel voids the shipment with voidShipment.
func (c *Client) Cancel(ctx context.Context, cfg *shipper.APIConfig, shipmentID string) (*shipper.CancelResult, error) {
	ctx, span := c.tracer.Start(ctx, "canpar.Cancel", trace.WithAttributes(attribute.String("carrier.shipment_id", shipmentID)))
	defer span.End()

	body, err := BuildCancelRequest(shipmentID, cfg)
	if err != nil {
		return nil, fail(span, err)
	}

	c.logger.Ctx(ctx).Info("Voiding Canpar shipment", zap.String("shipment_id", shipmentID))

	data, err := c.doSOAPRequest(ctx, cfg, opVoid, body)
	if err != nil {
		return nil, fail(span, err)
	}

	result, err := ParseCancelResponse(data, shipmentID, c.config.CancelPolicy)
	if err != nil {
		return nil, fail(span, err)
	}
	if result.Message == shipper.UnconfirmedCancelMessage {
		c.logger.Ctx(ctx).Warn("Canpar void not confirmed",
			zap.String("shipment_id", shipmentID),
			zap.String("policy", string(c.config.CancelPolicy)),
		)
	}
	return result, nil
}

// Label fetches the labels of a booked shipment with getLabels.
func (c *Client) Label(ctx context.Context, cfg *shipper.APIConfig, shipmentID string) (*shipper.LabelResult, error) {
	ctx, span := c.tracer.Start(ctx, "canpar.Label", trace.WithAttributes(attribute.String("carrier.shipment_id", shipmentID)))
	defer span.End()

	body, err := BuildLabelRequest(shipmentID, c.config.Thermal, cfg)
	if err != nil {
		return nil, fail(span, err)
	}

	data, err := c.doSOAPRequest(ctx, cfg, opLabels, body)
	if err != nil {
		return nil, fail(span, err)
	}

	result, err := ParseLabelResponse(data, shipmentID, c.config.Thermal)
	if err != nil {
		c.logger.Ctx(ctx).Error("Canpar label failed", zap.String("shipment_id", shipmentID), zap.Error(err))
		return nil, fail(span, err)
	}
	return result, nil
}

// History fetches the tracking history of a barcode with trackByBarcode.
func (c *Client) History(ctx context.Context, cfg *shipper.APIConfig, trackingNumber string) (*shipper.ShipmentHistory, error) {
	ctx, span := c.tracer.Start(ctx, "canpar.History", trace.WithAttributes(attribute.String("carrier.tracking_number", trackingNumber)))
	defer span.End()

	body, err := BuildHistoryRequest(trackingNumber, cfg)
	if err != nil {
		return nil, fail(span, err)
	}

	data, err := c.doSOAPRequest(ctx, cfg, opTracking, body)
	if err != nil {
		return nil, fail(span, err)
	}

	result, err := ParseHistoryResponse(data, trackingNumber)
	if err != nil {
		return nil, fail(span, err)
	}
	return result, nil
}

// ============================================================================
// SOAP transport
// ============================================================================

func (c *Client) doSOAPRequest(ctx context.Context, cfg *shipper.APIConfig, action string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, shipper.NewConfigurationError(carrierName, fmt.Sprintf("invalid endpoint %q", cfg.APIURL)).WithCause(err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "urn:"+action)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Ctx(ctx).Error("Canpar request failed",
			zap.String("action", action),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, shipper.NewNetworkError(carrierName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, shipper.NewNetworkError(carrierName, fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.Ctx(ctx).Debug("Canpar response",
		zap.String("action", action),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, data)
	}
	return data, nil
}

// statusError prefers the SOAP fault carried by an error response.
func statusError(status int, data []byte) error {
	if _, err := decode(data); err != nil {
		var se *shipper.ShipperError
		if errors.As(err, &se) && se.Kind == shipper.KindCarrier {
			return se.WithStatusCode(status)
		}
	}
	return shipper.NewCarrierError(carrierName, fmt.Sprintf("HTTP_%d", status),
		fmt.Sprintf("canpar returned HTTP %d", status)).
		WithStatusCode(status).
		WithRetryable(status >= 500 || status == http.StatusTooManyRequests)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

var _ shipper.Shipper = (*Client)(nil)
