package eshipplus

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tournevent/carrierlink/pkg/shipper"
	"github.com/tournevent/carrierlink/pkg/shipper/sanitize"
)

// AuthHeader is the header carrying the encoded credentials.
const AuthHeader = "eShipPlusAuth"

// Accessorial codes.
const (
	AccessorialSignature           = "SIGN"
	AccessorialResidentialDelivery = "RESDEL"
)

type authToken struct {
	UserName      string `json:"UserName"`
	Password      string `json:"Password"`
	AccessKey     string `json:"AccessKey"`
	AccountNumber string `json:"AccountNumber"`
}

// AuthToken encodes the credentials for the eShipPlusAuth header.
func AuthToken(creds shipper.CarrierCredentials) (string, error) {
	if creds.Username == "" || creds.Password == "" || creds.AccessKey == "" {
		return "", shipper.NewConfigurationError(carrierName, "eshipplus credentials need a username, password and access key")
	}
	raw, err := json.Marshal(authToken{
		UserName:      creds.Username,
		Password:      creds.Password,
		AccessKey:     creds.AccessKey,
		AccountNumber: creds.AccountNumber,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode eshipplus credentials: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// BuildRateRequest maps s to a rating request.
func BuildRateRequest(s *shipper.Shipment) (*RateRequest, error) {
	if s == nil {
		return nil, shipper.NewValidationError(carrierName, "shipment is required")
	}
	if err := shipper.CheckPieces(carrierName, s.Packages); err != nil {
		return nil, err
	}

	req := &RateRequest{
		Origin:        toLocation(s.Origin),
		Destination:   toLocation(s.Destination),
		ShipmentDate:  shipmentDate(s.ShippingDate),
		WeightUnit:    sanitize.WeightUnit(s.WeightUnit),
		DimensionUnit: sanitize.DimensionUnit(s.DimensionUnit),
		Accessorials:  []Accessorial{},
	}

	for _, p := range s.Packages {
		qty := p.Quantity
		if qty < 1 {
			qty = 1
		}
		req.Items = append(req.Items, Item{
			Weight:        sanitize.PositiveOr(p.Weight, 1),
			Length:        sanitize.PositiveOr(p.Length, 1),
			Width:         sanitize.PositiveOr(p.Width, 1),
			Height:        sanitize.PositiveOr(p.Height, 1),
			DeclaredValue: nonNegative(p.DeclaredValue),
			Quantity:      qty,
			FreightClass:  strings.TrimSpace(p.FreightClass),
			Description:   sanitize.Trim(p.Description),
		})
	}
	if len(req.Items) == 0 {
		req.Items = []Item{{Weight: 1, Length: 1, Width: 1, Height: 1, Quantity: 1}}
	}

	if s.SignatureRequired {
		req.Accessorials = append(req.Accessorials, Accessorial{Code: AccessorialSignature})
	}
	if s.Destination.Residential {
		req.Accessorials = append(req.Accessorials, Accessorial{Code: AccessorialResidentialDelivery})
	}
	return req, nil
}

// BuildBookRequest maps s to a booking request. The shipment's service is
// the SCAC of the carrier picked from a rate.
func BuildBookRequest(s *shipper.Shipment) (*BookRequest, error) {
	rate, err := BuildRateRequest(s)
	if err != nil {
		return nil, err
	}
	return &BookRequest{
		RateRequest:  *rate,
		CarrierScac:  strings.ToUpper(strings.TrimSpace(s.Service)),
		ServiceMode:  "LessThanTruckload",
		Reference:    sanitize.Trim(s.Reference),
		Instructions: sanitize.Trim(s.Instructions),
	}, nil
}

// BuildCancelRequest builds a void request for an eShipPlus shipment number.
func BuildCancelRequest(shipmentNumber string) (*CancelRequest, error) {
	id := strings.TrimSpace(shipmentNumber)
	if id == "" {
		return nil, shipper.NewValidationError(carrierName, "shipment number is required to cancel")
	}
	return &CancelRequest{ShipmentNumber: id}, nil
}

func toLocation(a shipper.NormalizedAddress) Location {
	description := a.Company
	if description == "" {
		description = a.Name
	}
	return Location{
		Description: sanitize.Trim(description),
		Street:      sanitize.Trim(a.Street),
		StreetExtra: sanitize.Trim(a.Street2),
		City:        sanitize.Trim(a.City),
		State:       strings.ToUpper(sanitize.Trim(a.State)),
		PostalCode:  strings.ToUpper(sanitize.Trim(a.PostalCode)),
		Country:     strings.ToUpper(sanitize.Trim(a.Country)),
		Contact:     sanitize.Trim(a.ContactName),
		Phone:       sanitize.Phone(a.Phone),
		Email:       strings.TrimSpace(a.Email),
	}
}

func shipmentDate(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("2006-01-02")
}

func nonNegative(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
