// Package mock provides a mock shipper implementation for testing.
package mock

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/carrierlink/pkg/shipper"
)

// Client is a mock shipper for testing. Each operation can be overridden
// with an On* hook; calls are counted per operation.
type Client struct {
	name string
	mode shipper.ShipmentMode

	OnRate    func(ctx context.Context, cfg *shipper.APIConfig, s *shipper.Shipment) (*shipper.RateResult, error)
	OnBook    func(ctx context.Context, cfg *shipper.APIConfig, s *shipper.Shipment) (*shipper.BookingResult, error)
	OnCancel  func(ctx context.Context, cfg *shipper.APIConfig, shipmentID string) (*shipper.CancelResult, error)
	OnLabel   func(ctx context.Context, cfg *shipper.APIConfig, shipmentID string) (*shipper.LabelResult, error)
	OnHistory func(ctx context.Context, cfg *shipper.APIConfig, trackingNumber string) (*shipper.ShipmentHistory, error)

	mu    sync.Mutex
	calls map[shipper.Operation]int
}

// New creates a new courier-mode mock shipper.
func New(name string) *Client {
	return NewWithMode(name, shipper.ModeCourier)
}

// NewWithMode creates a mock shipper with an explicit shipment mode.
func NewWithMode(name string, mode shipper.ShipmentMode) *Client {
	return &Client{name: name, mode: mode, calls: make(map[shipper.Operation]int)}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// Mode returns the carrier mode.
func (c *Client) Mode() shipper.ShipmentMode {
	return c.mode
}

// Calls returns how many times op was invoked.
func (c *Client) Calls(op shipper.Operation) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func (c *Client) record(op shipper.Operation) {
	c.mu.Lock()
	c.calls[op]++
	c.mu.Unlock()
}

// Rate returns mock shipping quotes.
func (c *Client) Rate(ctx context.Context, cfg *shipper.APIConfig, s *shipper.Shipment) (*shipper.RateResult, error) {
	c.record(shipper.OpRate)
	if c.OnRate != nil {
		return c.OnRate(ctx, cfg, s)
	}

	return &shipper.RateResult{
		Carrier: c.name,
		Quotes: []shipper.RateQuote{
			{
				QuoteID:     c.name + "-quote-" + uuid.New().String()[:8],
				Carrier:     c.name,
				ServiceCode: "1",
				ServiceName: c.name + " Ground",
				Charges:     shipper.Charges{Freight: 12.50, Fuel: 1.50, Tax1: 1.82, Subtotal: 14.00, Total: 15.82},
				Currency:    "CAD",
				TransitTime: 5,
			},
			{
				QuoteID:     c.name + "-quote-" + uuid.New().String()[:8],
				Carrier:     c.name,
				ServiceCode: "2",
				ServiceName: c.name + " Express",
				Charges:     shipper.Charges{Freight: 24.00, Fuel: 2.50, Tax1: 3.45, Subtotal: 26.50, Total: 29.95},
				Currency:    "CAD",
				TransitTime: 2,
				Guaranteed:  true,
			},
		},
	}, nil
}

// Book creates a mock booking.
func (c *Client) Book(ctx context.Context, cfg *shipper.APIConfig, s *shipper.Shipment) (*shipper.BookingResult, error) {
	c.record(shipper.OpBook)
	if c.OnBook != nil {
		return c.OnBook(ctx, cfg, s)
	}

	now := time.Now()
	id := fmt.Sprintf("%d", now.UnixNano()%1000000000)
	origin, destination := s.Origin, s.Destination
	return &shipper.BookingResult{
		ConfirmationNumber:    id,
		TrackingNumber:        "D" + id,
		ShipmentID:            id,
		Carrier:               c.name,
		CarrierCode:           c.name,
		ServiceType:           s.Service,
		ShippingDate:          now.Format("2006-01-02"),
		EstimatedDeliveryDate: now.AddDate(0, 0, 5).Format("2006-01-02"),
		Charges:               shipper.Charges{Freight: 12.50, Fuel: 1.50, Tax1: 1.82, Subtotal: 14.00, Total: 15.82},
		TransitTime:           5,
		PickupAddress:         &origin,
		DeliveryAddress:       &destination,
	}, nil
}

// Cancel voids a mock booking.
func (c *Client) Cancel(ctx context.Context, cfg *shipper.APIConfig, shipmentID string) (*shipper.CancelResult, error) {
	c.record(shipper.OpCancel)
	if c.OnCancel != nil {
		return c.OnCancel(ctx, cfg, shipmentID)
	}
	return &shipper.CancelResult{
		Success:                true,
		Cancelled:              true,
		CanCancel:              true,
		Message:                "Shipment voided",
		BookingReferenceNumber: shipmentID,
	}, nil
}

// Label returns a mock PDF label.
func (c *Client) Label(ctx context.Context, cfg *shipper.APIConfig, shipmentID string) (*shipper.LabelResult, error) {
	c.record(shipper.OpLabel)
	if c.OnLabel != nil {
		return c.OnLabel(ctx, cfg, shipmentID)
	}
	return &shipper.LabelResult{
		ShipmentID: shipmentID,
		Documents: []shipper.ShippingDocument{{
			Type:      "label",
			Format:    shipper.LabelPDF,
			Data:      base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 mock label " + shipmentID)),
			CreatedAt: time.Now().UTC(),
		}},
	}, nil
}

// History returns a mock tracking history.
func (c *Client) History(ctx context.Context, cfg *shipper.APIConfig, trackingNumber string) (*shipper.ShipmentHistory, error) {
	c.record(shipper.OpHistory)
	if c.OnHistory != nil {
		return c.OnHistory(ctx, cfg, trackingNumber)
	}
	now := time.Now().UTC()
	return &shipper.ShipmentHistory{
		TrackingNumber: trackingNumber,
		Status:         "In Transit",
		Events: []shipper.HistoryEvent{
			{Timestamp: now.Format(time.RFC3339), Code: "IT", Description: "In Transit", Location: "Toronto, ON"},
			{Timestamp: now.Add(-6 * time.Hour).Format(time.RFC3339), Code: "PU", Description: "Picked Up", Location: "Toronto, ON"},
		},
	}, nil
}

var _ shipper.Shipper = (*Client)(nil)
