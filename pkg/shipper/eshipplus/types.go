package eshipplus

import (
	"encoding/json"
	"strings"

	"github.com/tournevent/carrierlink/pkg/shipper/sanitize"
)

// ============================================================================
// Request types (match the eShipPlus JSON API)
// ============================================================================

// Location is an origin or destination.
type Location struct {
	Description string `json:"Description"`
	Street      string `json:"Street"`
	StreetExtra string `json:"StreetExtra,omitempty"`
	City        string `json:"City"`
	State       string `json:"State"`
	PostalCode  string `json:"PostalCode"`
	Country     string `json:"Country"`
	Contact     string `json:"Contact,omitempty"`
	Phone       string `json:"Phone,omitempty"`
	Email       string `json:"Email,omitempty"`
}

// Item is one handling unit line.
type Item struct {
	Weight        float64 `json:"Weight"`
	Length        float64 `json:"Length"`
	Width         float64 `json:"Width"`
	Height        float64 `json:"Height"`
	DeclaredValue float64 `json:"DeclaredValue"`
	Quantity      int     `json:"Quantity"`
	FreightClass  string  `json:"FreightClass,omitempty"`
	Description   string  `json:"Description,omitempty"`
}

// Accessorial is an extra service requested on the shipment.
type Accessorial struct {
	Code string `json:"Code"`
}

// RateRequest asks for available LTL rates.
type RateRequest struct {
	Origin        Location      `json:"Origin"`
	Destination   Location      `json:"Destination"`
	Items         []Item        `json:"Items"`
	Accessorials  []Accessorial `json:"Accessorials"`
	ShipmentDate  string        `json:"ShipmentDate"`
	WeightUnit    string        `json:"WeightUnit"`
	DimensionUnit string        `json:"DimensionUnit"`
}

// BookRequest books a shipment with the carrier chosen from a rate.
type BookRequest struct {
	RateRequest
	CarrierScac  string `json:"CarrierScac,omitempty"`
	ServiceMode  string `json:"ServiceMode"`
	Reference    string `json:"ReferenceNumber,omitempty"`
	Instructions string `json:"SpecialInstructions,omitempty"`
}

// CancelRequest voids a booked shipment.
type CancelRequest struct {
	ShipmentNumber string `json:"ShipmentNumber"`
}

// ============================================================================
// Response types
// ============================================================================

// MessageType is "Error", "Warning" or "Information". eShipPlus sends it
// either as a name or as the enum ordinal.
type MessageType string

// UnmarshalJSON implements json.Unmarshaler.
func (t *MessageType) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = MessageType(s)
		return nil
	}
	switch sanitize.Int(string(b)) {
	case 0:
		*t = "Error"
	case 1:
		*t = "Warning"
	default:
		*t = "Information"
	}
	return nil
}

// IsError reports whether the message is an error.
func (t MessageType) IsError() bool {
	return strings.EqualFold(string(t), "error")
}

// Message is one entry of the Messages list every response carries. A
// single message may arrive as a bare object.
type Message struct {
	Type  MessageType `json:"Type"`
	Value string      `json:"Value"`
}

// responseHeader is embedded in every response.
type responseHeader struct {
	ContainsErrorMessage bool      `json:"ContainsErrorMessage"`
	Messages             sanitize.List[Message] `json:"Messages"`
}

// Rate is one entry of AvailableRates.
type Rate struct {
	CarrierScac           string          `json:"CarrierScac"`
	CarrierName           string          `json:"CarrierName"`
	ServiceMode           string          `json:"ServiceMode"`
	TransitTime           sanitize.Number `json:"TransitTime"`
	EstimatedDeliveryDate string          `json:"EstimatedDeliveryDate"`
	FreightCharges        sanitize.Number `json:"FreightCharges"`
	FuelCharges           sanitize.Number `json:"FuelCharges"`
	AccessorialCharges    sanitize.Number `json:"AccessorialCharges"`
	TotalCharge           sanitize.Number `json:"TotalCharge"`
	BilledWeight          sanitize.Number `json:"BilledWeight"`
	Guaranteed            bool            `json:"Guaranteed"`
}

// RateResponse is the rating response.
type RateResponse struct {
	responseHeader
	AvailableRates sanitize.List[Rate] `json:"AvailableRates"`
}

// BookResponse is the booking response.
type BookResponse struct {
	responseHeader
	ShipmentNumber        string          `json:"ShipmentNumber"`
	BolNumber             string          `json:"BolNumber"`
	ProNumber             string          `json:"ProNumber"`
	CarrierScac           string          `json:"CarrierScac"`
	CarrierName           string          `json:"CarrierName"`
	ServiceMode           string          `json:"ServiceMode"`
	ShipmentDate          string          `json:"ShipmentDate"`
	EstimatedDeliveryDate string          `json:"EstimatedDeliveryDate"`
	TransitTime           sanitize.Number `json:"TransitTime"`
	BilledWeight          sanitize.Number `json:"BilledWeight"`
	FreightCharges        sanitize.Number `json:"FreightCharges"`
	FuelCharges           sanitize.Number `json:"FuelCharges"`
	AccessorialCharges    sanitize.Number `json:"AccessorialCharges"`
	TotalCharge           sanitize.Number `json:"TotalCharge"`
}

// CancelResponse is the void response. Success is absent on some error paths.
type CancelResponse struct {
	responseHeader
	Success *bool `json:"Success"`
}
