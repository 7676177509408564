package shipper

import (
	"fmt"
	"strings"
)

// AmbiguousCancelPolicy decides what a cancel parser reports when the carrier
// answers without the node that says whether the void went through.
type AmbiguousCancelPolicy string

const (
	// AssumeCancelled reports the shipment as cancelled and flags the result
	// for manual verification.
	AssumeCancelled AmbiguousCancelPolicy = "assume_cancelled"
	// ReportUnconfirmed reports the call as successful but the shipment as
	// not (yet) cancelled, leaving it cancellable.
	ReportUnconfirmed AmbiguousCancelPolicy = "report_unconfirmed"
	// RejectAmbiguous turns the response into a protocol error.
	RejectAmbiguous AmbiguousCancelPolicy = "reject"
)

// UnconfirmedCancelMessage is attached to results produced from an
// ambiguous cancel response.
const UnconfirmedCancelMessage = "carrier did not confirm the void; verify the shipment status manually"

// ParseCancelPolicy parses a policy name. Empty input yields AssumeCancelled.
func ParseCancelPolicy(s string) (AmbiguousCancelPolicy, error) {
	switch AmbiguousCancelPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", AssumeCancelled:
		return AssumeCancelled, nil
	case ReportUnconfirmed:
		return ReportUnconfirmed, nil
	case RejectAmbiguous:
		return RejectAmbiguous, nil
	}
	return "", fmt.Errorf("unknown cancel policy %q", s)
}

// Ambiguous builds the CancelResult for an unconfirmed void according to p.
func (p AmbiguousCancelPolicy) Ambiguous(carrier, shipmentID string) (*CancelResult, error) {
	switch p {
	case ReportUnconfirmed:
		return &CancelResult{
			Success:                true,
			Cancelled:              false,
			CanCancel:              true,
			Message:                UnconfirmedCancelMessage,
			BookingReferenceNumber: shipmentID,
		}, nil
	case RejectAmbiguous:
		return nil, NewProtocolError(carrier, "cancel response did not say whether the shipment was voided")
	default:
		return &CancelResult{
			Success:                true,
			Cancelled:              true,
			CanCancel:              true,
			Message:                UnconfirmedCancelMessage,
			BookingReferenceNumber: shipmentID,
		}, nil
	}
}
