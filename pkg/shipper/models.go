package shipper

import (
	"time"
)

// ShipmentMode separates parcel carriers, which produce labels, from
// freight carriers, which do not.
type ShipmentMode string

const (
	ModeCourier ShipmentMode = "courier"
	ModeFreight ShipmentMode = "freight"
)

// ShipmentStatus is the status stored on a shipment record.
type ShipmentStatus string

const (
	StatusDraft         ShipmentStatus = "draft"
	StatusPending       ShipmentStatus = "pending"
	StatusBookingFailed ShipmentStatus = "booking_failed"
	StatusInTransit     ShipmentStatus = "in_transit"
	StatusDelivered     ShipmentStatus = "delivered"
	StatusCancelled     ShipmentStatus = "cancelled"
)

// LabelFormat represents the format of shipping labels.
type LabelFormat string

const (
	LabelPDF LabelFormat = "pdf"
	LabelPNG LabelFormat = "png"
	LabelZPL LabelFormat = "zpl"
)

// NormalizedAddress is the single address shape every builder consumes.
type NormalizedAddress struct {
	Name        string `json:"name" bson:"name"`
	Company     string `json:"company,omitempty" bson:"company,omitempty"`
	Street      string `json:"street" bson:"street"`
	Street2     string `json:"street2,omitempty" bson:"street2,omitempty"`
	City        string `json:"city" bson:"city"`
	State       string `json:"state" bson:"state"`
	PostalCode  string `json:"postalCode" bson:"postalCode"`
	Country     string `json:"country" bson:"country"`
	Phone       string `json:"phone,omitempty" bson:"phone,omitempty"`
	Email       string `json:"email,omitempty" bson:"email,omitempty"`
	ContactName string `json:"contactName,omitempty" bson:"contactName,omitempty"`
	Residential bool   `json:"residential,omitempty" bson:"residential,omitempty"`
}

// PackageSpec is one package of a shipment.
type PackageSpec struct {
	Weight        float64 `json:"weight" bson:"weight"`
	Length        float64 `json:"length" bson:"length"`
	Width         float64 `json:"width" bson:"width"`
	Height        float64 `json:"height" bson:"height"`
	DeclaredValue float64 `json:"declaredValue" bson:"declaredValue"`
	Quantity      int     `json:"quantity" bson:"quantity"`
	Description   string  `json:"description,omitempty" bson:"description,omitempty"`
	FreightClass  string  `json:"freightClass,omitempty" bson:"freightClass,omitempty"`
}

// Charges is the canonical charge breakdown. Fields are never NaN.
type Charges struct {
	Freight  float64 `json:"freight" bson:"freight"`
	Fuel     float64 `json:"fuel" bson:"fuel"`
	Tax1     float64 `json:"tax1" bson:"tax1"`
	Tax2     float64 `json:"tax2" bson:"tax2"`
	Subtotal float64 `json:"subtotal" bson:"subtotal"`
	Total    float64 `json:"total" bson:"total"`
}

// ShippingDocument is a label or other carrier document attached to a booking.
type ShippingDocument struct {
	Type      string      `json:"type" bson:"type"`
	Format    LabelFormat `json:"format" bson:"format"`
	Data      string      `json:"data,omitempty" bson:"data,omitempty"` // base64
	URL       string      `json:"url,omitempty" bson:"url,omitempty"`
	CreatedAt time.Time   `json:"createdAt" bson:"createdAt"`
}

// Shipment is the canonical request handed to carrier builders. It is
// produced once by Normalize and never carries more than one address shape.
type Shipment struct {
	Origin            NormalizedAddress
	Destination       NormalizedAddress
	Packages          []PackageSpec
	Service           string
	ShippingDate      time.Time
	SignatureRequired bool
	Reference         string
	Instructions      string
	WeightUnit        string // "lb" or "kg"
	DimensionUnit     string // "in" or "cm"
	Mode              ShipmentMode
}

// RateQuote is a single priced service option.
type RateQuote struct {
	QuoteID               string  `json:"quoteId" bson:"quoteId"`
	Carrier               string  `json:"carrier" bson:"carrier"`
	CarrierCode           string  `json:"carrierCode,omitempty" bson:"carrierCode,omitempty"`
	ServiceCode           string  `json:"serviceCode" bson:"serviceCode"`
	ServiceName           string  `json:"serviceName" bson:"serviceName"`
	Charges               Charges `json:"charges" bson:"charges"`
	Currency              string  `json:"currency" bson:"currency"`
	BilledWeight          float64 `json:"billedWeight" bson:"billedWeight"`
	TransitTime           int     `json:"transitTime" bson:"transitTime"`
	Guaranteed            bool    `json:"guaranteed" bson:"guaranteed"`
	EstimatedDeliveryDate string  `json:"estimatedDeliveryDate,omitempty" bson:"estimatedDeliveryDate,omitempty"`
}

// RateResult is the canonical response of a rate call.
type RateResult struct {
	Carrier string      `json:"carrier" bson:"carrier"`
	Quotes  []RateQuote `json:"quotes" bson:"quotes"`
}

// BookingResult is the canonical, carrier-agnostic booking.
type BookingResult struct {
	ConfirmationNumber    string             `json:"confirmationNumber" bson:"confirmationNumber"`
	TrackingNumber        string             `json:"trackingNumber" bson:"trackingNumber"`
	ShipmentID            string             `json:"shipmentId" bson:"shipmentId"`
	Carrier               string             `json:"carrier" bson:"carrier"`
	CarrierCode           string             `json:"carrierCode" bson:"carrierCode"`
	ServiceType           string             `json:"serviceType" bson:"serviceType"`
	ShippingDate          string             `json:"shippingDate" bson:"shippingDate"`
	EstimatedDeliveryDate string             `json:"estimatedDeliveryDate" bson:"estimatedDeliveryDate"`
	Charges               Charges            `json:"charges" bson:"charges"`
	BilledWeight          float64            `json:"billedWeight" bson:"billedWeight"`
	TransitTime           int                `json:"transitTime" bson:"transitTime"`
	TransitTimeGuaranteed bool               `json:"transitTimeGuaranteed" bson:"transitTimeGuaranteed"`
	Zone                  string             `json:"zone" bson:"zone"`
	PickupAddress         *NormalizedAddress `json:"pickupAddress" bson:"pickupAddress"`
	DeliveryAddress       *NormalizedAddress `json:"deliveryAddress" bson:"deliveryAddress"`
	ShippingDocuments     []ShippingDocument `json:"shippingDocuments,omitempty" bson:"shippingDocuments,omitempty"`
}

// AppendDocuments adds documents produced after the booking was created.
func (b *BookingResult) AppendDocuments(docs ...ShippingDocument) {
	b.ShippingDocuments = append(b.ShippingDocuments, docs...)
}

// CancelResult is the canonical cancel outcome. Success reports whether the
// API call went through; Cancelled reports whether the shipment was voided.
// UIs must read both together.
type CancelResult struct {
	Success                bool   `json:"success" bson:"success"`
	Cancelled              bool   `json:"cancelled" bson:"cancelled"`
	CanCancel              bool   `json:"canCancel" bson:"canCancel"`
	Message                string `json:"message,omitempty" bson:"message,omitempty"`
	BookingReferenceNumber string `json:"bookingReferenceNumber" bson:"bookingReferenceNumber"`
	RawData                string `json:"rawData,omitempty" bson:"rawData,omitempty"`
}

// LabelResult holds the documents returned by a label call.
type LabelResult struct {
	ShipmentID string             `json:"shipmentId" bson:"shipmentId"`
	Documents  []ShippingDocument `json:"documents" bson:"documents"`
}

// HistoryEvent is one tracking scan.
type HistoryEvent struct {
	Timestamp   string `json:"timestamp" bson:"timestamp"`
	Code        string `json:"code" bson:"code"`
	Description string `json:"description" bson:"description"`
	Location    string `json:"location,omitempty" bson:"location,omitempty"`
}

// ShipmentHistory is the canonical tracking history, newest event first.
type ShipmentHistory struct {
	TrackingNumber string         `json:"trackingNumber" bson:"trackingNumber"`
	Status         string         `json:"status" bson:"status"`
	Events         []HistoryEvent `json:"events" bson:"events"`
}
