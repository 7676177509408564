package canpar_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/carrierlink/pkg/shipper"
	"github.com/tournevent/carrierlink/pkg/shipper/canpar"
)

func soap(body string) []byte {
	return []byte(`<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"
	xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
	xmlns:ns="http://ws.business.canshipws.canpar.com"
	xmlns:ax="http://dto.canshipws.canpar.com/xsd">
<soapenv:Body>` + body + `</soapenv:Body></soapenv:Envelope>`)
}

const processShipmentOK = `<ns:processShipmentResponse><ns:return>
<ax:error xsi:nil="true"/>
<ax:processShipmentResult><ax:shipment>
	<ax:id>10238841</ax:id>
	<ax:shipping_date>2026-03-04T00:00:00.000Z</ax:shipping_date>
	<ax:estimated_delivery_date>2026-03-06T00:00:00.000Z</ax:estimated_delivery_date>
	<ax:packages><ax:barcode>D420352470000000001001</ax:barcode></ax:packages>
	<ax:packages><ax:barcode>D420352470000000002001</ax:barcode></ax:packages>
	<ax:billed_weight>12.5</ax:billed_weight>
	<ax:service_type>1</ax:service_type>
	<ax:transit_time>2</ax:transit_time>
	<ax:transit_time_guaranteed>false</ax:transit_time_guaranteed>
	<ax:zone>3</ax:zone>
	<ax:freight_charge>18.40</ax:freight_charge>
	<ax:fuel_surcharge>3.10</ax:fuel_surcharge>
	<ax:tax_charge_1>2.80</ax:tax_charge_1>
	<ax:tax_charge_2>0</ax:tax_charge_2>
	<ax:total>24.30</ax:total>
	<ax:pickup_address>
		<ax:name>Acme Widgets</ax:name>
		<ax:address_line_1>1 Main St</ax:address_line_1>
		<ax:city>Toronto</ax:city>
		<ax:province>on</ax:province>
		<ax:postal_code>M5V 2H1</ax:postal_code>
		<ax:country>CA</ax:country>
	</ax:pickup_address>
	<ax:delivery_address xsi:nil="true"/>
</ax:shipment></ax:processShipmentResult>
</ns:return></ns:processShipmentResponse>`

func TestParseBookResponse_Success(t *testing.T) {
	result, err := canpar.ParseBookResponse(soap(processShipmentOK))
	require.NoError(t, err)

	assert.Equal(t, "10238841", result.ShipmentID)
	assert.Equal(t, "10238841", result.ConfirmationNumber)
	assert.Equal(t, "D420352470000000001001", result.TrackingNumber)
	assert.Equal(t, "canpar", result.Carrier)
	assert.Equal(t, "2026-03-04", result.ShippingDate)
	assert.Equal(t, "2026-03-06", result.EstimatedDeliveryDate)
	assert.Equal(t, 12.5, result.BilledWeight)
	assert.Equal(t, 2, result.TransitTime)
	assert.False(t, result.TransitTimeGuaranteed)
	assert.Equal(t, "3", result.Zone)
	assert.InDelta(t, 18.40, result.Charges.Freight, 0.001)
	assert.InDelta(t, 21.50, result.Charges.Subtotal, 0.001)
	assert.InDelta(t, 24.30, result.Charges.Total, 0.001)

	require.NotNil(t, result.PickupAddress)
	assert.Equal(t, "ON", result.PickupAddress.State)
	assert.Equal(t, "M5V2H1", result.PickupAddress.PostalCode)
	assert.Nil(t, result.DeliveryAddress)
}

func TestParseBookResponse_TrackingFallsBackToID(t *testing.T) {
	body := `<ns:processShipmentResponse><ns:return><ax:error xsi:nil="true"/>
<ax:processShipmentResult><ax:shipment><ax:id>777</ax:id></ax:shipment></ax:processShipmentResult>
</ns:return></ns:processShipmentResponse>`

	result, err := canpar.ParseBookResponse(soap(body))
	require.NoError(t, err)
	assert.Equal(t, "777", result.TrackingNumber)
	assert.Nil(t, result.PickupAddress)
}

func TestParseBookResponse_ErrorText(t *testing.T) {
	body := `<ns:processShipmentResponse><ns:return>
<ax:error>Invalid postal code for delivery address</ax:error>
</ns:return></ns:processShipmentResponse>`

	_, err := canpar.ParseBookResponse(soap(body))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrCarrier))
	assert.Equal(t, "Invalid postal code for delivery address", shipper.Message(err))
}

func TestParseBookResponse_MissingShipmentNode(t *testing.T) {
	body := `<ns:processShipmentResponse><ns:return><ax:error xsi:nil="true"/>
<ax:processShipmentResult/></ns:return></ns:processShipmentResponse>`

	_, err := canpar.ParseBookResponse(soap(body))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrProtocol))
}

func TestParseBookResponse_MissingReturn(t *testing.T) {
	_, err := canpar.ParseBookResponse(soap(`<ns:processShipmentResponse/>`))
	assert.True(t, errors.Is(err, shipper.ErrProtocol))

	_, err = canpar.ParseBookResponse(soap(``))
	assert.True(t, errors.Is(err, shipper.ErrProtocol))
}

func TestParseBookResponse_Garbage(t *testing.T) {
	_, err := canpar.ParseBookResponse([]byte("<html>502 Bad Gateway"))
	assert.True(t, errors.Is(err, shipper.ErrProtocol))
}

func TestParseBookResponse_Fault(t *testing.T) {
	body := `<soapenv:Fault><faultcode>soapenv:Server</faultcode><faultstring>Authentication failed</faultstring></soapenv:Fault>`

	_, err := canpar.ParseBookResponse(soap(body))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrCarrier))
	assert.Equal(t, "Authentication failed", shipper.Message(err))
}

func TestParseBookResponse_ChargesNeverNaN(t *testing.T) {
	body := `<ns:processShipmentResponse><ns:return><ax:error xsi:nil="true"/>
<ax:processShipmentResult><ax:shipment>
	<ax:id>1</ax:id>
	<ax:freight_charge>NaN</ax:freight_charge>
	<ax:fuel_surcharge>abc</ax:fuel_surcharge>
	<ax:tax_charge_1></ax:tax_charge_1>
	<ax:total>Infinity</ax:total>
</ax:shipment></ax:processShipmentResult></ns:return></ns:processShipmentResponse>`

	result, err := canpar.ParseBookResponse(soap(body))
	require.NoError(t, err)
	for _, v := range []float64{result.Charges.Freight, result.Charges.Fuel, result.Charges.Tax1, result.Charges.Tax2, result.Charges.Subtotal, result.Charges.Total} {
		assert.False(t, math.IsNaN(v))
		assert.Equal(t, 0.0, v)
	}
}

func TestParseRateResponse(t *testing.T) {
	body := `<ns:rateShipmentResponse><ns:return><ax:error xsi:nil="true"/>
<ax:processShipmentResult><ax:shipment>
	<ax:service_type>2</ax:service_type>
	<ax:transit_time>1</ax:transit_time>
	<ax:transit_time_guaranteed>true</ax:transit_time_guaranteed>
	<ax:freight_charge>30</ax:freight_charge>
	<ax:fuel_surcharge>5</ax:fuel_surcharge>
	<ax:tax_charge_1>4.55</ax:tax_charge_1>
</ax:shipment></ax:processShipmentResult></ns:return></ns:rateShipmentResponse>`

	result, err := canpar.ParseRateResponse(soap(body))
	require.NoError(t, err)
	require.Len(t, result.Quotes, 1)

	q := result.Quotes[0]
	assert.Equal(t, "2", q.ServiceCode)
	assert.Equal(t, "Canpar Express", q.ServiceName)
	assert.Equal(t, "CAD", q.Currency)
	assert.True(t, q.Guaranteed)
	assert.InDelta(t, 35.0, q.Charges.Subtotal, 0.001)
	assert.InDelta(t, 39.55, q.Charges.Total, 0.001)
	assert.NotEmpty(t, q.QuoteID)
}

func TestParseRateResponse_EchoedServiceCode(t *testing.T) {
	body := `<ns:rateShipmentResponse><ns:return><ax:error xsi:nil="true"/>
<ax:processShipmentResult><ax:shipment><ax:service_type>5</ax:service_type></ax:shipment></ax:processShipmentResult>
</ns:return></ns:rateShipmentResponse>`

	result, err := canpar.ParseRateResponse(soap(body))
	require.NoError(t, err)
	assert.Equal(t, "5", result.Quotes[0].ServiceCode)
	assert.Equal(t, "Canpar Service 5", result.Quotes[0].ServiceName)
}

func TestParseCancelResponse_NilErrorIsCancelled(t *testing.T) {
	body := `<ns:voidShipmentResponse><ns:return><ax:error xsi:nil="true"/></ns:return></ns:voidShipmentResponse>`

	result, err := canpar.ParseCancelResponse(soap(body), "123", shipper.AssumeCancelled)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Cancelled)
	assert.True(t, result.CanCancel)
	assert.Equal(t, "123", result.BookingReferenceNumber)
}

func TestParseCancelResponse_ErrorAbsentIsCancelled(t *testing.T) {
	body := `<ns:voidShipmentResponse><ns:return/></ns:voidShipmentResponse>`

	result, err := canpar.ParseCancelResponse(soap(body), "123", shipper.RejectAmbiguous)
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
}

func TestParseCancelResponse_ErrorTextIsNotCancelled(t *testing.T) {
	body := `<ns:voidShipmentResponse><ns:return><ax:error>  shipment not found  </ax:error></ns:return></ns:voidShipmentResponse>`

	result, err := canpar.ParseCancelResponse(soap(body), "123", shipper.AssumeCancelled)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Cancelled)
	assert.False(t, result.CanCancel)
	assert.Equal(t, "shipment not found", result.Message)
}

func TestParseCancelResponse_AmbiguousPolicies(t *testing.T) {
	body := soap(`<ns:somethingElse/>`)

	result, err := canpar.ParseCancelResponse(body, "123", shipper.AssumeCancelled)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Cancelled)
	assert.Equal(t, shipper.UnconfirmedCancelMessage, result.Message)

	result, err = canpar.ParseCancelResponse(body, "123", shipper.ReportUnconfirmed)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Cancelled)
	assert.True(t, result.CanCancel)

	_, err = canpar.ParseCancelResponse(body, "123", shipper.RejectAmbiguous)
	assert.True(t, errors.Is(err, shipper.ErrProtocol))
}

func TestParseLabelResponse(t *testing.T) {
	body := `<ns:getLabelsResponse><ns:return><ax:error xsi:nil="true"/>
<ax:labels>JVBERi0xLjQK
dGVzdA==</ax:labels>
<ax:labels></ax:labels>
<ax:labels>JVBERi0xLjQKMg==</ax:labels>
</ns:return></ns:getLabelsResponse>`

	result, err := canpar.ParseLabelResponse(soap(body), "123", false)
	require.NoError(t, err)
	require.Len(t, result.Documents, 2)
	assert.Equal(t, shipper.LabelPDF, result.Documents[0].Format)
	assert.Equal(t, "JVBERi0xLjQKdGVzdA==", result.Documents[0].Data)

	result, err = canpar.ParseLabelResponse(soap(body), "123", true)
	require.NoError(t, err)
	assert.Equal(t, shipper.LabelZPL, result.Documents[0].Format)
}

func TestParseLabelResponse_NoLabels(t *testing.T) {
	body := `<ns:getLabelsResponse><ns:return><ax:error xsi:nil="true"/></ns:return></ns:getLabelsResponse>`

	_, err := canpar.ParseLabelResponse(soap(body), "123", false)
	assert.True(t, errors.Is(err, shipper.ErrProtocol))
}

func TestParseHistoryResponse(t *testing.T) {
	body := `<ns:trackByBarcodeResponse><ns:return><ax:error xsi:nil="true"/>
<ax:result>
	<ax:barcode>D420352470000000001001</ax:barcode>
	<ax:events>
		<ax:code>PU</ax:code>
		<ax:code_description_en>Picked up</ax:code_description_en>
		<ax:local_date_time>20260304 101500</ax:local_date_time>
		<ax:address><ax:city>Toronto</ax:city><ax:province>ON</ax:province></ax:address>
	</ax:events>
	<ax:events>
		<ax:code>DEL</ax:code>
		<ax:code_description_en>Delivered</ax:code_description_en>
		<ax:local_date_time>20260306 143000</ax:local_date_time>
		<ax:address><ax:city>Montreal</ax:city></ax:address>
	</ax:events>
</ax:result>
</ns:return></ns:trackByBarcodeResponse>`

	history, err := canpar.ParseHistoryResponse(soap(body), "D420352470000000001001")
	require.NoError(t, err)
	require.Len(t, history.Events, 2)
	assert.Equal(t, "DEL", history.Events[0].Code)
	assert.Equal(t, "Montreal", history.Events[0].Location)
	assert.Equal(t, "Toronto, ON", history.Events[1].Location)
	assert.Equal(t, "Delivered", history.Status)
}

func TestParseHistoryResponse_SingleEvent(t *testing.T) {
	body := `<ns:trackByBarcodeResponse><ns:return><ax:error xsi:nil="true"/>
<ax:result><ax:events><ax:code>IT</ax:code><ax:code_description_en>In transit</ax:code_description_en></ax:events></ax:result>
</ns:return></ns:trackByBarcodeResponse>`

	history, err := canpar.ParseHistoryResponse(soap(body), "X")
	require.NoError(t, err)
	require.Len(t, history.Events, 1)
	assert.Equal(t, "In transit", history.Status)
}
