package canpar

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/carrierlink/pkg/shipper"
	"github.com/tournevent/carrierlink/pkg/shipper/sanitize"
)

const currency = "CAD"

func decode(body []byte) (*responseEnvelope, error) {
	var env responseEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, shipper.NewProtocolError(carrierName, "response is not a SOAP envelope").WithCause(err)
	}
	if f := env.Body.Fault; f != nil {
		msg := strings.TrimSpace(f.String)
		if msg == "" {
			msg = "SOAP fault"
		}
		return nil, shipper.NewCarrierError(carrierName, strings.TrimSpace(f.Code), msg)
	}
	return &env, nil
}

// ParseRateResponse turns a rateShipment response into a single-quote RateResult.
func ParseRateResponse(body []byte) (*shipper.RateResult, error) {
	env, err := decode(body)
	if err != nil {
		return nil, err
	}
	s, err := shipmentNode(env.Body.RateShipmentResponse, opRate)
	if err != nil {
		return nil, err
	}

	code := echoedServiceType(s.ServiceType)
	charges := chargesOf(s)
	quote := shipper.RateQuote{
		QuoteID:               "canpar-" + strconv.Itoa(code) + "-" + uuid.New().String()[:8],
		Carrier:               carrierName,
		CarrierCode:           carrierCode,
		ServiceCode:           strconv.Itoa(code),
		ServiceName:           ServiceName(code),
		Charges:               charges,
		Currency:              currency,
		BilledWeight:          sanitize.Float(s.BilledWeight),
		TransitTime:           sanitize.Int(s.TransitTime),
		Guaranteed:            sanitize.Bool(s.TransitTimeGuaranteed),
		EstimatedDeliveryDate: dateOnly(s.EstimatedDeliveryDate),
	}

	return &shipper.RateResult{Carrier: carrierName, Quotes: []shipper.RateQuote{quote}}, nil
}

// echoedServiceType reads the service code CanShip returns, falling back to
// the keyword mapping for text.
func echoedServiceType(v string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
		return n
	}
	return ServiceType(v)
}

// ParseBookResponse turns a processShipment response into a BookingResult.
// The tracking number is the first package barcode, falling back to the
// CanShip shipment id.
func ParseBookResponse(body []byte) (*shipper.BookingResult, error) {
	env, err := decode(body)
	if err != nil {
		return nil, err
	}
	s, err := shipmentNode(env.Body.ProcessShipmentResponse, opProcess)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(s.ID)
	if id == "" {
		return nil, shipper.NewProtocolError(carrierName, "processShipment returned a shipment without an id")
	}

	tracking := id
	for _, p := range s.Packages {
		if b := strings.TrimSpace(p.Barcode); b != "" {
			tracking = b
			break
		}
	}

	return &shipper.BookingResult{
		ConfirmationNumber:    id,
		TrackingNumber:        tracking,
		ShipmentID:            id,
		Carrier:               carrierName,
		CarrierCode:           carrierCode,
		ServiceType:           strings.TrimSpace(s.ServiceType),
		ShippingDate:          dateOnly(s.ShippingDate),
		EstimatedDeliveryDate: dateOnly(s.EstimatedDeliveryDate),
		Charges:               chargesOf(s),
		BilledWeight:          sanitize.Float(s.BilledWeight),
		TransitTime:           sanitize.Int(s.TransitTime),
		TransitTimeGuaranteed: sanitize.Bool(s.TransitTimeGuaranteed),
		Zone:                  strings.TrimSpace(s.Zone),
		PickupAddress:         addressOf(s.PickupAddress),
		DeliveryAddress:       addressOf(s.DeliveryAddress),
	}, nil
}

// ParseCancelResponse interprets a voidShipment response. A nil error node
// means the void went through; an error text means CanShip refused and the
// shipment can no longer be voided. A response without the return node is
// ambiguous and resolved by policy.
func ParseCancelResponse(body []byte, shipmentID string, policy shipper.AmbiguousCancelPolicy) (*shipper.CancelResult, error) {
	env, err := decode(body)
	if err != nil {
		return nil, err
	}

	resp := env.Body.VoidShipmentResponse
	if resp == nil || resp.Return == nil {
		return policy.Ambiguous(carrierName, shipmentID)
	}

	if msg := resp.Return.Error.Message(); msg != "" {
		return &shipper.CancelResult{
			Success:                true,
			Cancelled:              false,
			CanCancel:              false,
			Message:                msg,
			BookingReferenceNumber: shipmentID,
		}, nil
	}

	return &shipper.CancelResult{
		Success:                true,
		Cancelled:              true,
		CanCancel:              true,
		Message:                "Shipment voided",
		BookingReferenceNumber: shipmentID,
	}, nil
}

// ParseLabelResponse decodes the base64 labels of a getLabels response.
func ParseLabelResponse(body []byte, shipmentID string, thermal bool) (*shipper.LabelResult, error) {
	env, err := decode(body)
	if err != nil {
		return nil, err
	}

	resp := env.Body.GetLabelsResponse
	if resp == nil || resp.Return == nil {
		return nil, shipper.NewProtocolError(carrierName, "getLabels response has no return node")
	}
	if msg := resp.Return.Error.Message(); msg != "" {
		return nil, shipper.NewCarrierError(carrierName, "", msg)
	}

	format := shipper.LabelPDF
	if thermal {
		format = shipper.LabelZPL
	}

	created := time.Now().UTC()
	result := &shipper.LabelResult{ShipmentID: shipmentID}
	for _, label := range resp.Return.Labels {
		data := strings.Join(strings.Fields(label), "")
		if data == "" {
			continue
		}
		result.Documents = append(result.Documents, shipper.ShippingDocument{
			Type:      "label",
			Format:    format,
			Data:      data,
			CreatedAt: created,
		})
	}
	if len(result.Documents) == 0 {
		return nil, shipper.NewProtocolError(carrierName, "getLabels returned no labels")
	}
	return result, nil
}

// ParseHistoryResponse converts a trackByBarcode response. Events are
// returned newest first and the status is taken from the newest event.
func ParseHistoryResponse(body []byte, barcode string) (*shipper.ShipmentHistory, error) {
	env, err := decode(body)
	if err != nil {
		return nil, err
	}

	resp := env.Body.TrackByBarcodeResponse
	if resp == nil || resp.Return == nil {
		return nil, shipper.NewProtocolError(carrierName, "trackByBarcode response has no return node")
	}
	if msg := resp.Return.Error.Message(); msg != "" {
		return nil, shipper.NewCarrierError(carrierName, "", msg)
	}

	history := &shipper.ShipmentHistory{TrackingNumber: barcode, Events: []shipper.HistoryEvent{}}
	for _, r := range resp.Return.Result {
		for _, e := range r.Events {
			history.Events = append(history.Events, shipper.HistoryEvent{
				Timestamp:   strings.TrimSpace(e.LocalDateTime),
				Code:        strings.TrimSpace(e.Code),
				Description: sanitize.Trim(e.Description),
				Location:    location(e.Address.City, e.Address.Province),
			})
		}
	}

	sort.SliceStable(history.Events, func(i, j int) bool {
		return history.Events[i].Timestamp > history.Events[j].Timestamp
	})
	if len(history.Events) > 0 {
		history.Status = history.Events[0].Description
	}
	return history, nil
}

func shipmentNode(resp *shipmentResponse, op string) (*respShipment, error) {
	if resp == nil || resp.Return == nil {
		return nil, shipper.NewProtocolError(carrierName, fmt.Sprintf("%s response has no return node", op))
	}
	if msg := resp.Return.Error.Message(); msg != "" {
		return nil, shipper.NewCarrierError(carrierName, "", msg)
	}
	if resp.Return.Result == nil || resp.Return.Result.Shipment == nil {
		return nil, shipper.NewProtocolError(carrierName, fmt.Sprintf("%s response has no shipment", op))
	}
	return resp.Return.Result.Shipment, nil
}

func chargesOf(s *respShipment) shipper.Charges {
	c := shipper.Charges{
		Freight: sanitize.Float(s.FreightCharge),
		Fuel:    sanitize.Float(s.FuelSurcharge),
		Tax1:    sanitize.Float(s.TaxCharge1),
		Tax2:    sanitize.Float(s.TaxCharge2),
		Total:   sanitize.Float(s.Total),
	}
	c.Subtotal = c.Freight + c.Fuel
	if c.Total == 0 {
		c.Total = c.Subtotal + c.Tax1 + c.Tax2
	}
	return c
}

func addressOf(a *respAddress) *shipper.NormalizedAddress {
	if a == nil || isNil(a.Attrs) {
		return nil
	}
	return &shipper.NormalizedAddress{
		Name:        sanitize.Trim(a.Name),
		Street:      sanitize.Trim(a.AddressLine1),
		Street2:     sanitize.Trim(a.AddressLine2),
		City:        sanitize.Trim(a.City),
		State:       strings.ToUpper(sanitize.Trim(a.Province)),
		PostalCode:  sanitize.PostalCode(a.PostalCode),
		Country:     strings.ToUpper(sanitize.Trim(a.Country)),
		Phone:       strings.TrimSpace(a.Phone),
		Email:       strings.TrimSpace(a.Email),
		ContactName: sanitize.Trim(a.Attention),
		Residential: sanitize.Bool(a.Residential),
	}
}

// dateOnly trims CanShip timestamps down to YYYY-MM-DD.
func dateOnly(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}

func location(city, province string) string {
	city, province = sanitize.Trim(city), sanitize.Trim(province)
	switch {
	case city == "":
		return province
	case province == "":
		return city
	}
	return city + ", " + province
}
