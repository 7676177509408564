package shipper

import (
	"strings"

	"github.com/tournevent/carrierlink/pkg/shipper/sanitize"
)

const defaultCountry = "CA"

// AddressShape names the input shape an address was resolved from.
type AddressShape string

const (
	ShapeShipmentLegacy AddressShape = "shipment.pickup_address"
	ShapeRootLegacy     AddressShape = "pickup_address"
	ShapeModern         AddressShape = "shipFrom"
	ShapeCapitalized    AddressShape = "Origin"
)

// AddressSource is one of the historically supported address shapes.
// The set is closed: LegacyAddress, ModernAddress and CapitalizedAddress.
type AddressSource interface {
	Normalize() NormalizedAddress
	addressSource()
}

// LegacyAddress is the snake_case shape used by pickup_address and
// delivery_address, either at the request root or under shipment.
type LegacyAddress struct {
	Name         string `json:"name"`
	Company      string `json:"company,omitempty"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	City         string `json:"city"`
	Province     string `json:"province"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Attention    string `json:"attention,omitempty"`
	Residential  bool   `json:"residential,omitempty"`
}

// ModernAddress is the camelCase shape used by shipFrom and shipTo.
type ModernAddress struct {
	Name        string `json:"name"`
	Company     string `json:"company,omitempty"`
	Street      string `json:"street"`
	Street2     string `json:"street2,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	ContactName string `json:"contactName,omitempty"`
	Residential bool   `json:"residential,omitempty"`
}

// CountryRef is the nested country object of CapitalizedAddress.
type CountryRef struct {
	Code string `json:"Code"`
	Name string `json:"Name,omitempty"`
}

// CapitalizedAddress is the Origin/Destination shape with capitalized keys
// and a nested Country.Code.
type CapitalizedAddress struct {
	Name        string     `json:"Name"`
	Company     string     `json:"Company,omitempty"`
	Street      string     `json:"Street"`
	StreetExtra string     `json:"StreetExtra,omitempty"`
	City        string     `json:"City"`
	State       string     `json:"State"`
	PostalCode  string     `json:"PostalCode"`
	Country     CountryRef `json:"Country"`
	Phone       string     `json:"Phone,omitempty"`
	Email       string     `json:"Email,omitempty"`
	Contact     string     `json:"Contact,omitempty"`
	Residential bool       `json:"Residential,omitempty"`
}

func (LegacyAddress) addressSource()      {}
func (ModernAddress) addressSource()      {}
func (CapitalizedAddress) addressSource() {}

// Normalize implements AddressSource.
func (a LegacyAddress) Normalize() NormalizedAddress {
	return normalized(NormalizedAddress{
		Name:        a.Name,
		Company:     a.Company,
		Street:      a.AddressLine1,
		Street2:     a.AddressLine2,
		City:        a.City,
		State:       a.Province,
		PostalCode:  a.PostalCode,
		Country:     a.Country,
		Phone:       a.Phone,
		Email:       a.Email,
		ContactName: a.Attention,
		Residential: a.Residential,
	})
}

// Normalize implements AddressSource.
func (a ModernAddress) Normalize() NormalizedAddress {
	return normalized(NormalizedAddress{
		Name:        a.Name,
		Company:     a.Company,
		Street:      a.Street,
		Street2:     a.Street2,
		City:        a.City,
		State:       a.State,
		PostalCode:  a.PostalCode,
		Country:     a.Country,
		Phone:       a.Phone,
		Email:       a.Email,
		ContactName: a.ContactName,
		Residential: a.Residential,
	})
}

// Normalize implements AddressSource.
func (a CapitalizedAddress) Normalize() NormalizedAddress {
	return normalized(NormalizedAddress{
		Name:        a.Name,
		Company:     a.Company,
		Street:      a.Street,
		Street2:     a.StreetExtra,
		City:        a.City,
		State:       a.State,
		PostalCode:  a.PostalCode,
		Country:     a.Country.Code,
		Phone:       a.Phone,
		Email:       a.Email,
		ContactName: a.Contact,
		Residential: a.Residential,
	})
}

func normalized(a NormalizedAddress) NormalizedAddress {
	a.Name = sanitize.Trim(a.Name)
	a.Company = sanitize.Trim(a.Company)
	a.Street = sanitize.Trim(a.Street)
	a.Street2 = sanitize.Trim(a.Street2)
	a.City = sanitize.Trim(a.City)
	a.State = strings.ToUpper(sanitize.Trim(a.State))
	a.PostalCode = strings.ToUpper(sanitize.Trim(a.PostalCode))
	a.Country = strings.ToUpper(sanitize.Trim(a.Country))
	if a.Country == "" {
		a.Country = defaultCountry
	}
	a.Phone = strings.TrimSpace(a.Phone)
	a.Email = strings.TrimSpace(a.Email)
	a.ContactName = sanitize.Trim(a.ContactName)
	if a.ContactName == "" {
		a.ContactName = a.Name
	}
	return a
}

// ResolveOrigin walks the origin fallback chain and returns the first
// shape present on req.
func ResolveOrigin(req *RateRequest) (AddressSource, AddressShape, bool) {
	if req == nil {
		return nil, "", false
	}
	if req.Shipment != nil && req.Shipment.PickupAddress != nil {
		return *req.Shipment.PickupAddress, ShapeShipmentLegacy, true
	}
	if req.PickupAddress != nil {
		return *req.PickupAddress, ShapeRootLegacy, true
	}
	if req.ShipFrom != nil {
		return *req.ShipFrom, ShapeModern, true
	}
	if req.Origin != nil {
		return *req.Origin, ShapeCapitalized, true
	}
	return nil, "", false
}

// ResolveDestination walks the destination fallback chain.
func ResolveDestination(req *RateRequest) (AddressSource, AddressShape, bool) {
	if req == nil {
		return nil, "", false
	}
	if req.Shipment != nil && req.Shipment.DeliveryAddress != nil {
		return *req.Shipment.DeliveryAddress, ShapeShipmentLegacy, true
	}
	if req.DeliveryAddress != nil {
		return *req.DeliveryAddress, ShapeRootLegacy, true
	}
	if req.ShipTo != nil {
		return *req.ShipTo, ShapeModern, true
	}
	if req.Destination != nil {
		return *req.Destination, ShapeCapitalized, true
	}
	return nil, "", false
}
