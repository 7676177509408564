// Package eshipplus provides integration with the eShipPlus LTL freight API.
package eshipplus

import (
	"bytes"
	"context"
	"encoding/json"
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

const carrierName = "eshipplus"

// DefaultTimeout bounds every eShipPlus call.
const DefaultTimeout = 30 * time.Second

// Aliases are the spellings eShipPlus carrier records use.
var Aliases = []string{"eShipPlus", "EShipPlus", "eShip Plus", "ESHIPPLUS", "eship-plus"}

// Config holds eShipPlus client configuration.
type Config struct {
	Timeout      time.Duration
	CancelPolicy shipper.AmbiguousCancelPolicy
}

// Client is the eShipPlus API client.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *otelzap.Logger
	tracer     trace.Tracer
}

// New creates a new eShipPlus client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
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
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		tracer:     tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// Mode returns the shipment mode; eShipPlus books LTL freight without labels.
func (c *Client) Mode() shipper.ShipmentMode {
	return shipper.ModeFreight
}

// Rate fetches available LTL rates.
func (c *Client) Rate(ctx context.Context, cfg *shipper.APIConfig, s *shipper.Shipment) (*shipper.RateResult, error) {
	ctx, span := c.tracer.Start(ctx, "eshipplus.Rate")
	defer span.End()

	req, err := BuildRateRequest(s)
	if err != nil {
		return nil, fail(span, err)
	}

	c.logger.Ctx(ctx).Info("Getting eShipPlus rates",
		zap.String("origin_postal", req.Origin.PostalCode),
		zap.String("destination_postal", req.Destination.PostalCode),
		zap.Int("item_count", len(req.Items)),
	)

	data, err := c.doRequest(ctx, cfg, req)
	if err != nil {
		return nil, fail(span, err)
	}

	result, err := ParseRateResponse(data)
	if err != nil {
		c.logger.Ctx(ctx).Error("eShipPlus rate failed", zap.Error(err))
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("carrier.quote_count", len(result.Quotes)))
	return result, nil
}

// Book books the shipment with the carrier named by s.Service.
func (c *Client) Book(ctx context.Context, cfg *shipper.APIConfig, s *shipper.Shipment) (*shipper.BookingResult, error) {
	ctx, span := c.tracer.Start(ctx, "eshipplus.Book")
	defer span.End()

	req, err := BuildBookRequest(s)
	if err != nil {
		return nil, fail(span, err)
	}

	c.logger.Ctx(ctx).Info("Booking eShipPlus shipment",
		zap.String("scac", req.CarrierScac),
		zap.Int("item_count", len(req.Items)),
	)

	data, err := c.doRequest(ctx, cfg, req)
	if err != nil {
		return nil, fail(span, err)
	}

	result, err := ParseBookResponse(data)
	if err != nil {
		c.logger.Ctx(ctx).Error("eShipPlus booking failed", zap.Error(err))
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("carrier.shipment_id", result.ShipmentID))
	return result, nil
}

// Cancel voids a booked shipment.
func (c *Client) Cancel(ctx context.Context, cfg *shipper.APIConfig, shipmentNumber string) (*shipper.CancelResult, error) {
	ctx, span := c.tracer.Start(ctx, "eshipplus.Cancel", trace.WithAttributes(attribute.String("carrier.shipment_id", shipmentNumber)))
	defer span.End()

	req, err := BuildCancelRequest(shipmentNumber)
	if err != nil {
		return nil, fail(span, err)
	}

	data, err := c.doRequest(ctx, cfg, req)
	if err != nil {
		return nil, fail(span, err)
	}

	result, err := ParseCancelResponse(data, req.ShipmentNumber, c.config.CancelPolicy)
	if err != nil {
		return nil, fail(span, err)
	}
	return result, nil
}

// Label is not offered for freight bookings.
func (c *Client) Label(_ context.Context, _ *shipper.APIConfig, _ string) (*shipper.LabelResult, error) {
	return nil, shipper.NewUnsupportedError(carrierName, "label")
}

// History is not offered by the eShipPlus API.
func (c *Client) History(_ context.Context, _ *shipper.APIConfig, _ string) (*shipper.ShipmentHistory, error) {
	return nil, shipper.NewUnsupportedError(carrierName, "history")
}

// doRequest performs a JSON POST with the eShipPlusAuth header.
func (c *Client) doRequest(ctx context.Context, cfg *shipper.APIConfig, body any) ([]byte, error) {
	if cfg == nil {
		return nil, shipper.NewConfigurationError(carrierName, "carrier configuration is missing")
	}
	token, err := AuthToken(cfg.Credentials)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, shipper.NewConfigurationError(carrierName, fmt.Sprintf("invalid endpoint %q", cfg.APIURL)).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(AuthHeader, token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Ctx(ctx).Error("eShipPlus request failed",
			zap.String("operation", string(cfg.Operation)),
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

	c.logger.Ctx(ctx).Debug("eShipPlus response",
		zap.String("operation", string(cfg.Operation)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseError(resp.StatusCode, data)
	}
	return data, nil
}

// parseError extracts the carrier messages of an error response.
func parseError(status int, data []byte) error {
	code := fmt.Sprintf("HTTP_%d", status)
	retryable := status >= 500 || status == http.StatusTooManyRequests

	var h responseHeader
	if err := json.Unmarshal(data, &h); err == nil && (h.ContainsErrorMessage || len(h.Messages) > 0) {
		return shipper.NewCarrierError(carrierName, code, errorText(h)).WithStatusCode(status).WithRetryable(retryable)
	}

	var simple struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &simple); err == nil {
		if msg := firstNonEmpty(simple.Error, simple.Message); msg != "" {
			return shipper.NewCarrierError(carrierName, code, msg).WithStatusCode(status).WithRetryable(retryable)
		}
	}

	return shipper.NewCarrierError(carrierName, code, fmt.Sprintf("eshipplus returned HTTP %d", status)).
		WithStatusCode(status).
		WithRetryable(retryable)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

var _ shipper.Shipper = (*Client)(nil)
