package shipper

import (
	"fmt"
	"strings"
	"time"

	"github.com/tournevent/carrierlink/pkg/shipper/sanitize"
)

// RateRequest is the caller-supplied shipment description. Callers have
// used several address shapes over time and all of them are still accepted;
// Normalize reduces them to a single Shipment.
type RateRequest struct {
	Shipment *ShipmentInfo `json:"shipment,omitempty"`

	PickupAddress   *LegacyAddress      `json:"pickup_address,omitempty"`
	DeliveryAddress *LegacyAddress      `json:"delivery_address,omitempty"`
	ShipFrom        *ModernAddress      `json:"shipFrom,omitempty"`
	ShipTo          *ModernAddress      `json:"shipTo,omitempty"`
	Origin          *CapitalizedAddress `json:"Origin,omitempty"`
	Destination     *CapitalizedAddress `json:"Destination,omitempty"`

	Packages          []PackageInput `json:"packages,omitempty"`
	Service           string         `json:"service,omitempty"`
	ServiceCode       string         `json:"serviceCode,omitempty"`
	ShippingDate      string         `json:"shippingDate,omitempty"`
	SignatureRequired bool           `json:"signatureRequired,omitempty"`
	Reference         string         `json:"reference,omitempty"`
	Instructions      string         `json:"instructions,omitempty"`
	WeightUnit        string         `json:"weightUnit,omitempty"`
	DimensionUnit     string         `json:"dimensionUnit,omitempty"`
	ShipmentType      string         `json:"shipmentType,omitempty"`
}

// ShipmentInfo is the nested legacy shipment object.
type ShipmentInfo struct {
	PickupAddress     *LegacyAddress `json:"pickup_address,omitempty"`
	DeliveryAddress   *LegacyAddress `json:"delivery_address,omitempty"`
	ServiceType       string         `json:"service_type,omitempty"`
	ShippingDate      string         `json:"shipping_date,omitempty"`
	Reference         string         `json:"reference,omitempty"`
	Instructions      string         `json:"instructions,omitempty"`
	SignatureRequired *bool          `json:"signature_required,omitempty"`
}

// PackageInput is a package as sent by callers. Numbers may arrive as JSON
// numbers or numeric strings.
type PackageInput struct {
	Weight        sanitize.Number `json:"weight"`
	Length        sanitize.Number `json:"length"`
	Width         sanitize.Number `json:"width"`
	Height        sanitize.Number `json:"height"`
	DeclaredValue sanitize.Number `json:"declaredValue"`
	Quantity      sanitize.Number `json:"quantity"`
	Description   string          `json:"description,omitempty"`
	FreightClass  string          `json:"freightClass,omitempty"`
}

var shippingDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Normalize resolves every optional shape on req into a canonical Shipment.
// Missing package numbers default to 1 (dimensions, weight, quantity) and
// declared value defaults to 0.
func Normalize(req *RateRequest) (*Shipment, error) {
	if req == nil {
		return nil, NewValidationError("", "rate request is empty")
	}

	origin, _, ok := ResolveOrigin(req)
	if !ok {
		return nil, NewValidationError("", "origin address is missing").WithCause(ErrInvalidAddress)
	}
	destination, _, ok := ResolveDestination(req)
	if !ok {
		return nil, NewValidationError("", "destination address is missing").WithCause(ErrInvalidAddress)
	}

	packages, err := normalizePackages(req.Packages)
	if err != nil {
		return nil, err
	}

	s := &Shipment{
		Origin:            origin.Normalize(),
		Destination:       destination.Normalize(),
		Packages:          packages,
		Service:           firstNonEmpty(req.Service, req.ServiceCode),
		SignatureRequired: req.SignatureRequired,
		Reference:         req.Reference,
		Instructions:      req.Instructions,
		WeightUnit:        sanitize.WeightUnit(req.WeightUnit),
		DimensionUnit:     sanitize.DimensionUnit(req.DimensionUnit),
		Mode:              parseMode(req.ShipmentType),
	}

	date := req.ShippingDate
	if info := req.Shipment; info != nil {
		s.Service = firstNonEmpty(s.Service, info.ServiceType)
		s.Reference = firstNonEmpty(s.Reference, info.Reference)
		s.Instructions = firstNonEmpty(s.Instructions, info.Instructions)
		date = firstNonEmpty(date, info.ShippingDate)
		if info.SignatureRequired != nil {
			s.SignatureRequired = *info.SignatureRequired
		}
	}
	s.ShippingDate = parseShippingDate(date)

	return s, nil
}

// MaxPieces caps the number of pieces one shipment may expand to.
const MaxPieces = 200

// CheckPieces fails with a validation error when packages expand to more
// than MaxPieces pieces. A quantity below 1 counts as one piece.
func CheckPieces(carrier string, packages []PackageSpec) error {
	total := 0
	for _, p := range packages {
		qty := p.Quantity
		if qty < 1 {
			qty = 1
		}
		if qty > MaxPieces || total+qty > MaxPieces {
			return NewValidationError(carrier, fmt.Sprintf("shipment exceeds %d pieces", MaxPieces)).WithCause(ErrInvalidPackage)
		}
		total += qty
	}
	return nil
}

func normalizePackages(in []PackageInput) ([]PackageSpec, error) {
	if len(in) == 0 {
		return []PackageSpec{{Weight: 1, Length: 1, Width: 1, Height: 1, Quantity: 1}}, nil
	}
	if len(in) > MaxPieces {
		return nil, NewValidationError("", fmt.Sprintf("shipment exceeds %d pieces", MaxPieces)).WithCause(ErrInvalidPackage)
	}
	out := make([]PackageSpec, len(in))
	for i, p := range in {
		qty := sanitize.PositiveOr(p.Quantity.Float64(), 1)
		if qty > MaxPieces {
			return nil, NewValidationError("", fmt.Sprintf("package quantity exceeds %d", MaxPieces)).WithCause(ErrInvalidPackage)
		}
		out[i] = PackageSpec{
			Weight:        sanitize.PositiveOr(p.Weight.Float64(), 1),
			Length:        sanitize.PositiveOr(p.Length.Float64(), 1),
			Width:         sanitize.PositiveOr(p.Width.Float64(), 1),
			Height:        sanitize.PositiveOr(p.Height.Float64(), 1),
			DeclaredValue: sanitize.PositiveOr(p.DeclaredValue.Float64(), 0),
			Quantity:      int(qty),
			Description:   p.Description,
			FreightClass:  p.FreightClass,
		}
	}
	if err := CheckPieces("", out); err != nil {
		return nil, err
	}
	return out, nil
}

func parseShippingDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range shippingDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseMode(s string) ShipmentMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "freight", "ltl", "ftl":
		return ModeFreight
	case "courier", "parcel":
		return ModeCourier
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
