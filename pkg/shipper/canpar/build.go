package canpar

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tournevent/carrierlink/pkg/shipper"
	"github.com/tournevent/carrierlink/pkg/shipper/sanitize"
)

// CanShip wants midnight UTC in this exact shape: 2026-03-04T00:00:00.000Z.
const (
	shippingDateLayout = "2006-01-02"
	midnightSuffix     = "T00:00:00.000Z"
)

// now is replaced in tests.
var now = time.Now

// BuildRateRequest builds the rateShipment envelope for s.
func BuildRateRequest(s *shipper.Shipment, cfg *shipper.APIConfig) ([]byte, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	shipment, err := toXMLShipment(s, cfg)
	if err != nil {
		return nil, err
	}

	req := &rateShipmentRequest{}
	req.Request.Password = cfg.Credentials.Password
	req.Request.UserID = cfg.Credentials.Username
	req.Request.Shipment = *shipment
	return marshal(nsRating, req)
}

// BuildBookRequest builds the processShipment envelope for s.
func BuildBookRequest(s *shipper.Shipment, cfg *shipper.APIConfig) ([]byte, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	shipment, err := toXMLShipment(s, cfg)
	if err != nil {
		return nil, err
	}

	req := &processShipmentRequest{}
	req.Request.Password = cfg.Credentials.Password
	req.Request.UserID = cfg.Credentials.Username
	req.Request.Shipment = *shipment
	return marshal(nsBusiness, req)
}

// BuildCancelRequest builds the voidShipment envelope for a CanShip shipment id.
func BuildCancelRequest(shipmentID string, cfg *shipper.APIConfig) ([]byte, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(shipmentID)
	if id == "" {
		return nil, shipper.NewValidationError(carrierName, "shipment id is required to void a shipment")
	}

	req := &voidShipmentRequest{}
	req.Request.ID = id
	req.Request.Password = cfg.Credentials.Password
	req.Request.UserID = cfg.Credentials.Username
	return marshal(nsBusiness, req)
}

// BuildLabelRequest builds the getLabels envelope. Thermal asks for ZPL
// instead of PDF.
func BuildLabelRequest(shipmentID string, thermal bool, cfg *shipper.APIConfig) ([]byte, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(shipmentID)
	if id == "" {
		return nil, shipper.NewValidationError(carrierName, "shipment id is required to fetch labels")
	}

	req := &getLabelsRequest{}
	req.Request.ID = id
	req.Request.Thermal = thermal
	req.Request.Password = cfg.Credentials.Password
	req.Request.UserID = cfg.Credentials.Username
	return marshal(nsBusiness, req)
}

// BuildHistoryRequest builds the trackByBarcode envelope.
func BuildHistoryRequest(barcode string, cfg *shipper.APIConfig) ([]byte, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	code := sanitize.PostalCode(barcode)
	if code == "" {
		return nil, shipper.NewValidationError(carrierName, "tracking number is required")
	}

	req := &trackByBarcodeRequest{}
	req.Request.Barcode = code
	req.Request.Password = cfg.Credentials.Password
	req.Request.UserID = cfg.Credentials.Username
	return marshal(nsAddons, req)
}

// ServiceType maps free-form service text to a CanShip service code.
// The result is always 1, 2 or 3. A numeric code in that range is used as
// is. Otherwise the first matching keyword group wins: ground/standard, then
// express/priority, then overnight/next day. Anything else is ground.
func ServiceType(text string) int {
	t := strings.ToLower(strings.TrimSpace(text))
	if n, err := strconv.Atoi(t); err == nil && n >= 1 && n <= 3 {
		return n
	}
	switch {
	case strings.Contains(t, "ground"), strings.Contains(t, "standard"):
		return 1
	case strings.Contains(t, "express"), strings.Contains(t, "priority"):
		return 2
	case strings.Contains(t, "overnight"), strings.Contains(t, "next-day"), strings.Contains(t, "next day"):
		return 3
	}
	return 1
}

// ServiceName is the display name for a CanShip service code.
func ServiceName(code int) string {
	switch code {
	case 1:
		return "Canpar Ground"
	case 2:
		return "Canpar Express"
	case 3:
		return "Canpar Overnight"
	}
	return fmt.Sprintf("Canpar Service %d", code)
}

// ShippingDate formats t the way CanShip expects, defaulting to today.
func ShippingDate(t time.Time) string {
	if t.IsZero() {
		t = now()
	}
	return t.Format(shippingDateLayout) + midnightSuffix
}

func checkConfig(cfg *shipper.APIConfig) error {
	if cfg == nil {
		return shipper.NewConfigurationError(carrierName, "carrier configuration is missing")
	}
	if cfg.Credentials.Username == "" || cfg.Credentials.Password == "" {
		return shipper.NewConfigurationError(carrierName, "canpar credentials are incomplete")
	}
	return nil
}

func toXMLShipment(s *shipper.Shipment, cfg *shipper.APIConfig) (*xmlShipment, error) {
	if s == nil {
		return nil, shipper.NewValidationError(carrierName, "shipment is required")
	}
	if err := shipper.CheckPieces(carrierName, s.Packages); err != nil {
		return nil, err
	}

	out := &xmlShipment{
		PickupAddress:      toXMLAddress(s.Origin),
		DeliveryAddress:    toXMLAddress(s.Destination),
		NSR:                !s.SignatureRequired,
		ServiceType:        ServiceType(s.Service),
		ShipperNum:         cfg.Credentials.AccountNumber,
		ShippingDate:       ShippingDate(s.ShippingDate),
		ReportedWeightUnit: weightUnit(s.WeightUnit),
		DimentionUnit:      dimensionUnit(s.DimensionUnit),
		Instruction:        sanitize.Trim(s.Instructions),
		OrderID:            sanitize.Trim(s.Reference),
	}

	for _, p := range s.Packages {
		pkg := xmlPackage{
			ReportedWeight: sanitize.PositiveOr(p.Weight, 1),
			Length:         sanitize.PositiveOr(p.Length, 1),
			Width:          sanitize.PositiveOr(p.Width, 1),
			Height:         sanitize.PositiveOr(p.Height, 1),
			DeclaredValue:  nonNegative(p.DeclaredValue),
			Reference:      sanitize.Trim(s.Reference),
		}
		qty := p.Quantity
		if qty < 1 {
			qty = 1
		}
		for i := 0; i < qty; i++ {
			out.Packages = append(out.Packages, pkg)
		}
	}
	if len(out.Packages) == 0 {
		out.Packages = []xmlPackage{{ReportedWeight: 1, Length: 1, Width: 1, Height: 1}}
	}

	return out, nil
}

func toXMLAddress(a shipper.NormalizedAddress) xmlAddress {
	attention := a.ContactName
	if attention == "" {
		attention = a.Name
	}
	name := a.Company
	if name == "" {
		name = a.Name
	}
	return xmlAddress{
		AddressLine1: sanitize.Trim(a.Street),
		AddressLine2: sanitize.Trim(a.Street2),
		Attention:    sanitize.Trim(attention),
		City:         sanitize.Trim(a.City),
		Country:      strings.ToUpper(sanitize.Trim(a.Country)),
		Email:        strings.TrimSpace(a.Email),
		Name:         sanitize.Trim(name),
		Phone:        sanitize.Phone(a.Phone),
		PostalCode:   sanitize.PostalCode(a.PostalCode),
		Province:     strings.ToUpper(sanitize.Trim(a.State)),
		Residential:  a.Residential,
	}
}

func weightUnit(unit string) string {
	if sanitize.WeightUnit(unit) == "kg" {
		return "K"
	}
	return "L"
}

func dimensionUnit(unit string) string {
	if sanitize.DimensionUnit(unit) == "cm" {
		return "C"
	}
	return "I"
}

func nonNegative(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

func marshal(wsNamespace string, content any) ([]byte, error) {
	body, err := xml.Marshal(newEnvelope(wsNamespace, content))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal canpar request: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
