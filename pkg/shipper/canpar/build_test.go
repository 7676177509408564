package canpar_test

import (
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/carrierlink/pkg/shipper"
	"github.com/tournevent/carrierlink/pkg/shipper/canpar"
)

func apiConfig(url string) *shipper.APIConfig {
	return &shipper.APIConfig{
		APIURL:      url,
		CarrierID:   "carrier-1",
		CarrierName: "Canpar Express",
		Credentials: shipper.CarrierCredentials{
			Username:      "user@example.com",
			Password:      "s3cret",
			AccountNumber: "46000041",
		},
	}
}

func sampleShipment() *shipper.Shipment {
	return &shipper.Shipment{
		Origin: shipper.NormalizedAddress{
			Name:       "Acme Widgets",
			Street:     "1 Main St",
			City:       "Toronto",
			State:      "ON",
			PostalCode: "M5V 2H1",
			Country:    "CA",
			Phone:      "(416) 555-1234",
		},
		Destination: shipper.NormalizedAddress{
			Name:       "Jane Doe",
			Street:     "22 Rue Ste-Catherine",
			City:       "Montreal",
			State:      "QC",
			PostalCode: "h3b 1a7",
			Country:    "CA",
		},
		Packages:      []shipper.PackageSpec{{Weight: 10, Length: 12, Width: 8, Height: 6, DeclaredValue: 100, Quantity: 1}},
		Service:       "Ground",
		ShippingDate:  time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC),
		WeightUnit:    "lb",
		DimensionUnit: "in",
		Mode:          shipper.ModeCourier,
	}
}

func TestBuildBookRequest_EndToEnd(t *testing.T) {
	body, err := canpar.BuildBookRequest(sampleShipment(), apiConfig("https://example.com"))
	require.NoError(t, err)
	xmlText := string(body)

	assert.True(t, strings.HasPrefix(xmlText, xml.Header))
	assert.Contains(t, xmlText, `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"`)
	assert.Contains(t, xmlText, "<ws:processShipment>")
	assert.Contains(t, xmlText, "<xsd:postal_code>M5V2H1</xsd:postal_code>")
	assert.Contains(t, xmlText, "<xsd:postal_code>H3B1A7</xsd:postal_code>")
	assert.Equal(t, 1, strings.Count(xmlText, "<xsd:packages>"))
	assert.Contains(t, xmlText, "<xsd:reported_weight>10</xsd:reported_weight>")
	assert.Contains(t, xmlText, "<xsd:shipper_num>46000041</xsd:shipper_num>")
	assert.Contains(t, xmlText, "<xsd:user_id>user@example.com</xsd:user_id>")
	assert.Contains(t, xmlText, "<xsd:service_type>1</xsd:service_type>")
	assert.Contains(t, xmlText, "<xsd:shipping_date>2026-03-04T00:00:00.000Z</xsd:shipping_date>")
	assert.Contains(t, xmlText, "<xsd:reported_weight_unit>L</xsd:reported_weight_unit>")
	assert.Contains(t, xmlText, "<xsd:dimention_unit>I</xsd:dimention_unit>")
	assert.Contains(t, xmlText, "<xsd:phone>4165551234</xsd:phone>")
}

func TestBuildBookRequest_QuantityExpandsPackages(t *testing.T) {
	s := sampleShipment()
	s.Packages = []shipper.PackageSpec{
		{Weight: 5, Quantity: 3},
		{Weight: 2, Quantity: 0},
	}

	body, err := canpar.BuildBookRequest(s, apiConfig("https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(body), "<xsd:packages>"))
	assert.Contains(t, string(body), "<xsd:length>1</xsd:length>")
	assert.Contains(t, string(body), "<xsd:declared_value>0</xsd:declared_value>")
}

func TestBuildBookRequest_QuantityCap(t *testing.T) {
	s := sampleShipment()
	s.Packages = []shipper.PackageSpec{{Weight: 1, Quantity: 200000}}

	body, err := canpar.BuildBookRequest(s, apiConfig("https://example.com"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrValidation))
	assert.Nil(t, body)

	s.Packages = []shipper.PackageSpec{{Weight: 1, Quantity: shipper.MaxPieces}}
	body, err = canpar.BuildBookRequest(s, apiConfig("https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, shipper.MaxPieces, strings.Count(string(body), "<xsd:packages>"))
}

func TestBuildBookRequest_NoPackages(t *testing.T) {
	s := sampleShipment()
	s.Packages = nil

	body, err := canpar.BuildBookRequest(s, apiConfig("https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(body), "<xsd:packages>"))
}

func TestBuildBookRequest_SignaturePolarity(t *testing.T) {
	s := sampleShipment()

	s.SignatureRequired = true
	body, err := canpar.BuildBookRequest(s, apiConfig("https://example.com"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "<xsd:nsr>false</xsd:nsr>")

	s.SignatureRequired = false
	body, err = canpar.BuildBookRequest(s, apiConfig("https://example.com"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "<xsd:nsr>true</xsd:nsr>")
}

func TestBuildBookRequest_MetricUnits(t *testing.T) {
	s := sampleShipment()
	s.WeightUnit = "kg"
	s.DimensionUnit = "cm"

	body, err := canpar.BuildBookRequest(s, apiConfig("https://example.com"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "<xsd:reported_weight_unit>K</xsd:reported_weight_unit>")
	assert.Contains(t, string(body), "<xsd:dimention_unit>C</xsd:dimention_unit>")
}

func TestBuildBookRequest_EscapesText(t *testing.T) {
	s := sampleShipment()
	s.Origin.Name = `Smith & Sons <"HQ">`

	body, err := canpar.BuildBookRequest(s, apiConfig("https://example.com"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "Smith &amp; Sons &lt;&#34;HQ&#34;&gt;")

	var probe struct{}
	assert.NoError(t, xml.Unmarshal(body, &probe))
}

func TestBuildBookRequest_DefaultShippingDate(t *testing.T) {
	restore := canpar.SetNow(func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) })
	defer restore()

	s := sampleShipment()
	s.ShippingDate = time.Time{}

	body, err := canpar.BuildBookRequest(s, apiConfig("https://example.com"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "<xsd:shipping_date>2026-10-15T00:00:00.000Z</xsd:shipping_date>")
}

func TestBuildRequests_Validation(t *testing.T) {
	cfg := apiConfig("https://example.com")

	_, err := canpar.BuildBookRequest(nil, cfg)
	assert.True(t, errors.Is(err, shipper.ErrValidation))

	_, err = canpar.BuildRateRequest(sampleShipment(), nil)
	assert.True(t, errors.Is(err, shipper.ErrConfiguration))

	noPassword := apiConfig("https://example.com")
	noPassword.Credentials.Password = ""
	_, err = canpar.BuildBookRequest(sampleShipment(), noPassword)
	assert.True(t, errors.Is(err, shipper.ErrConfiguration))

	_, err = canpar.BuildCancelRequest(" ", cfg)
	assert.True(t, errors.Is(err, shipper.ErrValidation))

	_, err = canpar.BuildLabelRequest("", false, cfg)
	assert.True(t, errors.Is(err, shipper.ErrValidation))

	_, err = canpar.BuildHistoryRequest("", cfg)
	assert.True(t, errors.Is(err, shipper.ErrValidation))
}

func TestBuildRateRequest(t *testing.T) {
	body, err := canpar.BuildRateRequest(sampleShipment(), apiConfig("https://example.com"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "<ws:rateShipment>")
	assert.Contains(t, string(body), `xmlns:ws="http://ws.onlinerating.canshipws.canpar.com"`)
	assert.Contains(t, string(body), "<xsd:apply_association_discount>false</xsd:apply_association_discount>")
}

func TestBuildCancelRequest(t *testing.T) {
	body, err := canpar.BuildCancelRequest(" 123456 ", apiConfig("https://example.com"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "<ws:voidShipment>")
	assert.Contains(t, string(body), "<xsd:id>123456</xsd:id>")
}

func TestBuildLabelRequest(t *testing.T) {
	body, err := canpar.BuildLabelRequest("123456", true, apiConfig("https://example.com"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "<ws:getLabels>")
	assert.Contains(t, string(body), "<xsd:thermal>true</xsd:thermal>")
}

func TestBuildHistoryRequest(t *testing.T) {
	body, err := canpar.BuildHistoryRequest(" d4000 1234 ", apiConfig("https://example.com"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "<ws:trackByBarcode>")
	assert.Contains(t, string(body), "<xsd:barcode>D40001234</xsd:barcode>")
}

func TestServiceType(t *testing.T) {
	tests := map[string]int{
		"":                   1,
		"Ground":             1,
		"STANDARD delivery":  1,
		"Express":            2,
		"priority":           2,
		"Overnight":          3,
		"next-day":           3,
		"Next Day Air":       3,
		"express ground":     1,
		"overnight express":  2,
		"something else":     1,
		"5":                  1,
		"999":                1,
		"0":                  1,
		"3":                  3,
		"-3":                 1,
		"  2 ":               2,
		"Canpar Select 10AM": 1,
	}
	for in, want := range tests {
		assert.Equal(t, want, canpar.ServiceType(in), in)
	}
}

func TestServiceType_AlwaysKnownCode(t *testing.T) {
	inputs := []string{"", "1", "2", "3", "4", "42", "999", "-1", "2147483648", "express 7", "ÉXPRESS", "\x00", "overnight-ish", "<xml/>"}
	for _, in := range inputs {
		assert.Contains(t, []int{1, 2, 3}, canpar.ServiceType(in), in)
	}
}

func TestBuildBookRequest_UnknownServiceCodeIsGround(t *testing.T) {
	s := sampleShipment()
	s.Service = "999"

	body, err := canpar.BuildBookRequest(s, apiConfig("https://example.com"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "<xsd:service_type>1</xsd:service_type>")
	assert.NotContains(t, string(body), "<xsd:service_type>999</xsd:service_type>")
}

func TestServiceName(t *testing.T) {
	assert.Equal(t, "Canpar Ground", canpar.ServiceName(1))
	assert.Equal(t, "Canpar Express", canpar.ServiceName(2))
	assert.Equal(t, "Canpar Overnight", canpar.ServiceName(3))
	assert.Equal(t, "Canpar Service 7", canpar.ServiceName(7))
}
