// Package shipper provides the carrier-agnostic data model and the
// abstraction every carrier adapter implements.
package shipper

import (
	"context"
)

// Shipper defines the interface that all shipping carriers must implement.
// Every call receives the APIConfig resolved for that operation; adapters
// never look credentials up themselves.
type Shipper interface {
	// Name returns the carrier identifier (e.g., "canpar", "eshipplus").
	Name() string

	// Mode reports whether the carrier ships parcels (labels) or freight.
	Mode() ShipmentMode

	// Rate returns priced service options for a shipment.
	Rate(ctx context.Context, cfg *APIConfig, s *Shipment) (*RateResult, error)

	// Book creates a shipment with the carrier.
	Book(ctx context.Context, cfg *APIConfig, s *Shipment) (*BookingResult, error)

	// Cancel voids a booked shipment by its carrier shipment ID.
	Cancel(ctx context.Context, cfg *APIConfig, shipmentID string) (*CancelResult, error)

	// Label retrieves shipping documents for a booked shipment.
	Label(ctx context.Context, cfg *APIConfig, shipmentID string) (*LabelResult, error)

	// History returns tracking events for a tracking number.
	History(ctx context.Context, cfg *APIConfig, trackingNumber string) (*ShipmentHistory, error)
}
