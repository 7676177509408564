package shipper_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/carrierlink/pkg/shipper"
)

func legacy() *shipper.LegacyAddress {
	return &shipper.LegacyAddress{
		Name:         "Acme Widgets",
		AddressLine1: "1 Main St",
		City:         "Toronto",
		Province:     "on",
		PostalCode:   "M5V 2H1",
		Country:      "CA",
		Phone:        "416-555-1234",
	}
}

func modern() *shipper.ModernAddress {
	return &shipper.ModernAddress{
		Name:       "Acme Widgets",
		Street:     "1 Main St",
		City:       "Toronto",
		State:      "ON",
		PostalCode: "M5V 2H1",
		Country:    "ca",
		Phone:      "416-555-1234",
	}
}

func capitalized() *shipper.CapitalizedAddress {
	return &shipper.CapitalizedAddress{
		Name:       "Acme Widgets",
		Street:     " 1 Main St ",
		City:       "Toronto",
		State:      "ON",
		PostalCode: "M5V 2H1",
		Country:    shipper.CountryRef{Code: "CA"},
		Phone:      "416-555-1234",
	}
}

func TestResolveOrigin_AllShapesNormalizeEqually(t *testing.T) {
	requests := map[string]*shipper.RateRequest{
		"shipment.pickup_address": {Shipment: &shipper.ShipmentInfo{PickupAddress: legacy()}},
		"pickup_address":          {PickupAddress: legacy()},
		"shipFrom":                {ShipFrom: modern()},
		"Origin":                  {Origin: capitalized()},
	}

	want := legacy().Normalize()
	for name, req := range requests {
		t.Run(name, func(t *testing.T) {
			src, shape, ok := shipper.ResolveOrigin(req)
			require.True(t, ok)
			assert.Equal(t, shipper.AddressShape(name), shape)
			assert.Equal(t, want, src.Normalize())
		})
	}
}

func TestResolveOrigin_FallbackOrder(t *testing.T) {
	nested := legacy()
	nested.City = "Nested"
	root := legacy()
	root.City = "Root"
	from := modern()
	from.City = "Modern"

	req := &shipper.RateRequest{
		Shipment:      &shipper.ShipmentInfo{PickupAddress: nested},
		PickupAddress: root,
		ShipFrom:      from,
		Origin:        capitalized(),
	}
	src, shape, _ := shipper.ResolveOrigin(req)
	assert.Equal(t, shipper.ShapeShipmentLegacy, shape)
	assert.Equal(t, "Nested", src.Normalize().City)

	req.Shipment = nil
	src, shape, _ = shipper.ResolveOrigin(req)
	assert.Equal(t, shipper.ShapeRootLegacy, shape)
	assert.Equal(t, "Root", src.Normalize().City)

	req.PickupAddress = nil
	src, shape, _ = shipper.ResolveOrigin(req)
	assert.Equal(t, shipper.ShapeModern, shape)
	assert.Equal(t, "Modern", src.Normalize().City)

	req.ShipFrom = nil
	_, shape, _ = shipper.ResolveOrigin(req)
	assert.Equal(t, shipper.ShapeCapitalized, shape)

	req.Origin = nil
	_, _, ok := shipper.ResolveOrigin(req)
	assert.False(t, ok)
}

func TestResolveDestination_Shapes(t *testing.T) {
	want := legacy().Normalize()
	for _, req := range []*shipper.RateRequest{
		{Shipment: &shipper.ShipmentInfo{DeliveryAddress: legacy()}},
		{DeliveryAddress: legacy()},
		{ShipTo: modern()},
		{Destination: capitalized()},
	} {
		src, _, ok := shipper.ResolveDestination(req)
		require.True(t, ok)
		assert.Equal(t, want, src.Normalize())
	}
}

func TestNormalize_ContactDefaultsAndCountry(t *testing.T) {
	addr := shipper.ModernAddress{Name: "Jane", City: "Ottawa"}.Normalize()
	assert.Equal(t, "Jane", addr.ContactName)
	assert.Equal(t, "CA", addr.Country)
}

func TestNormalize_MissingOrigin(t *testing.T) {
	_, err := shipper.Normalize(&shipper.RateRequest{ShipTo: modern()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrInvalidAddress))
	assert.True(t, errors.Is(err, shipper.ErrValidation))
}

func TestNormalize_MissingDestination(t *testing.T) {
	_, err := shipper.Normalize(&shipper.RateRequest{ShipFrom: modern()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrInvalidAddress))
}

func TestNormalize_PackageDefaults(t *testing.T) {
	var req shipper.RateRequest
	err := json.Unmarshal([]byte(`{
		"shipFrom": {"name": "A", "city": "Toronto"},
		"shipTo": {"name": "B", "city": "Montreal"},
		"packages": [
			{"weight": 10, "length": "12", "width": 12, "height": 12},
			{"weight": null, "declaredValue": "abc"}
		]
	}`), &req)
	require.NoError(t, err)

	s, err := shipper.Normalize(&req)
	require.NoError(t, err)
	require.Len(t, s.Packages, 2)

	assert.Equal(t, shipper.PackageSpec{Weight: 10, Length: 12, Width: 12, Height: 12, Quantity: 1}, s.Packages[0])
	assert.Equal(t, shipper.PackageSpec{Weight: 1, Length: 1, Width: 1, Height: 1, Quantity: 1}, s.Packages[1])
}

func TestNormalize_NoPackagesGetsOneDefault(t *testing.T) {
	s, err := shipper.Normalize(&shipper.RateRequest{ShipFrom: modern(), ShipTo: modern()})
	require.NoError(t, err)
	require.Len(t, s.Packages, 1)
	assert.Equal(t, 1.0, s.Packages[0].Weight)
}

func TestNormalize_ShipmentInfoFields(t *testing.T) {
	yes := true
	req := &shipper.RateRequest{
		Shipment: &shipper.ShipmentInfo{
			PickupAddress:     legacy(),
			DeliveryAddress:   legacy(),
			ServiceType:       "Express",
			ShippingDate:      "2026-03-04",
			Reference:         "PO-77",
			SignatureRequired: &yes,
		},
		ShipmentType: "LTL",
		WeightUnit:   "kgs",
	}
	s, err := shipper.Normalize(req)
	require.NoError(t, err)

	assert.Equal(t, "Express", s.Service)
	assert.Equal(t, "PO-77", s.Reference)
	assert.True(t, s.SignatureRequired)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), s.ShippingDate)
	assert.Equal(t, shipper.ModeFreight, s.Mode)
	assert.Equal(t, "kg", s.WeightUnit)
	assert.Equal(t, "in", s.DimensionUnit)
}

func TestNormalize_ServicePrecedence(t *testing.T) {
	req := &shipper.RateRequest{
		ShipFrom:    modern(),
		ShipTo:      modern(),
		ServiceCode: "overnight",
		Shipment:    &shipper.ShipmentInfo{ServiceType: "ground"},
	}
	s, err := shipper.Normalize(req)
	require.NoError(t, err)
	assert.Equal(t, "overnight", s.Service)
}

func TestNormalize_Nil(t *testing.T) {
	_, err := shipper.Normalize(nil)
	assert.True(t, errors.Is(err, shipper.ErrValidation))
}

func TestBookingResult_AppendDocuments(t *testing.T) {
	var b shipper.BookingResult
	b.AppendDocuments(shipper.ShippingDocument{Type: "label"})
	b.AppendDocuments(shipper.ShippingDocument{Type: "invoice"})
	assert.Len(t, b.ShippingDocuments, 2)
}

func TestOperation_EndpointKey(t *testing.T) {
	assert.Equal(t, "ratingEndpoint", shipper.OpRate.EndpointKey())
	assert.Equal(t, "bookingEndpoint", shipper.OpBook.EndpointKey())
	assert.Equal(t, "cancelEndpoint", shipper.OpCancel.EndpointKey())
	assert.Equal(t, "labelEndpoint", shipper.OpLabel.EndpointKey())
	assert.Equal(t, "historyEndpoint", shipper.OpHistory.EndpointKey())
}

func TestNormalize_QuantityCap(t *testing.T) {
	tests := map[string]string{
		"one huge line":    `[{"weight": 1, "quantity": 200000}]`,
		"sum over the cap": `[{"weight": 1, "quantity": 150}, {"weight": 1, "quantity": 51}]`,
		"absurd quantity":  `[{"weight": 1, "quantity": 1e20}]`,
	}
	for name, packages := range tests {
		t.Run(name, func(t *testing.T) {
			var req shipper.RateRequest
			require.NoError(t, json.Unmarshal([]byte(`{"shipFrom": {"name": "A", "city": "Toronto"}, "shipTo": {"name": "B", "city": "Montreal"}, "packages": `+packages+`}`), &req))

			_, err := shipper.Normalize(&req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, shipper.ErrValidation))
			assert.True(t, errors.Is(err, shipper.ErrInvalidPackage))
		})
	}
}

func TestNormalize_QuantityAtCap(t *testing.T) {
	var req shipper.RateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"shipFrom": {"name": "A", "city": "Toronto"}, "shipTo": {"name": "B", "city": "Montreal"},
		"packages": [{"weight": 1, "quantity": 150}, {"weight": 1, "quantity": 50}]}`), &req))

	s, err := shipper.Normalize(&req)
	require.NoError(t, err)
	assert.Equal(t, 150, s.Packages[0].Quantity)
}

func TestCheckPieces(t *testing.T) {
	assert.NoError(t, shipper.CheckPieces("canpar", []shipper.PackageSpec{{Quantity: 0}, {Quantity: shipper.MaxPieces - 1}}))
	err := shipper.CheckPieces("canpar", []shipper.PackageSpec{{Quantity: shipper.MaxPieces + 1}})
	assert.True(t, errors.Is(err, shipper.ErrValidation))
}
