package eshipplus

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/tournevent/carrierlink/pkg/shipper"
	"github.com/tournevent/carrierlink/pkg/shipper/sanitize"
)

const currency = "USD"

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return shipper.NewProtocolError(carrierName, "response is not valid JSON").WithCause(err)
	}
	return nil
}

// errorText joins the error messages of a response. Non-error messages are
// used only when the carrier flagged an error without typing any message.
func errorText(h responseHeader) string {
	var errs, all []string
	for _, m := range h.Messages {
		v := sanitize.Trim(m.Value)
		if v == "" {
			continue
		}
		all = append(all, v)
		if m.Type.IsError() {
			errs = append(errs, v)
		}
	}
	switch {
	case len(errs) > 0:
		return strings.Join(errs, "; ")
	case len(all) > 0:
		return strings.Join(all, "; ")
	}
	return "eshipplus reported an error"
}

func (h responseHeader) err() error {
	if !h.ContainsErrorMessage {
		return nil
	}
	return shipper.NewCarrierError(carrierName, "", errorText(h))
}

// ParseRateResponse converts AvailableRates into quotes.
func ParseRateResponse(body []byte) (*shipper.RateResult, error) {
	var resp RateResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	if resp.AvailableRates == nil {
		return nil, shipper.NewProtocolError(carrierName, "rate response has no AvailableRates")
	}

	result := &shipper.RateResult{Carrier: carrierName, Quotes: make([]shipper.RateQuote, 0, len(resp.AvailableRates))}
	for _, r := range resp.AvailableRates {
		scac := strings.ToUpper(strings.TrimSpace(r.CarrierScac))
		result.Quotes = append(result.Quotes, shipper.RateQuote{
			QuoteID:               "eshipplus-" + scac + "-" + uuid.New().String()[:8],
			Carrier:               carrierName,
			CarrierCode:           scac,
			ServiceCode:           scac,
			ServiceName:           serviceName(r.CarrierName, r.ServiceMode),
			Charges:               charges(r.FreightCharges, r.FuelCharges, r.AccessorialCharges, r.TotalCharge),
			Currency:              currency,
			BilledWeight:          r.BilledWeight.Float64(),
			TransitTime:           int(r.TransitTime.Float64()),
			Guaranteed:            r.Guaranteed,
			EstimatedDeliveryDate: dateOnly(r.EstimatedDeliveryDate),
		})
	}
	return result, nil
}

// ParseBookResponse converts a booking response. A booking without a
// shipment number and without a BOL number is unusable.
func ParseBookResponse(body []byte) (*shipper.BookingResult, error) {
	var resp BookResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	shipmentNumber := strings.TrimSpace(resp.ShipmentNumber)
	bol := strings.TrimSpace(resp.BolNumber)
	if shipmentNumber == "" && bol == "" {
		return nil, shipper.NewProtocolError(carrierName, "booking response has neither ShipmentNumber nor BolNumber")
	}

	id := firstNonEmpty(shipmentNumber, bol)
	return &shipper.BookingResult{
		ConfirmationNumber:    firstNonEmpty(bol, shipmentNumber),
		TrackingNumber:        firstNonEmpty(strings.TrimSpace(resp.ProNumber), bol, shipmentNumber),
		ShipmentID:            id,
		Carrier:               carrierName,
		CarrierCode:           strings.ToUpper(strings.TrimSpace(resp.CarrierScac)),
		ServiceType:           serviceName(resp.CarrierName, resp.ServiceMode),
		ShippingDate:          dateOnly(resp.ShipmentDate),
		EstimatedDeliveryDate: dateOnly(resp.EstimatedDeliveryDate),
		Charges:               charges(resp.FreightCharges, resp.FuelCharges, resp.AccessorialCharges, resp.TotalCharge),
		BilledWeight:          resp.BilledWeight.Float64(),
		TransitTime:           int(resp.TransitTime.Float64()),
	}, nil
}

// ParseCancelResponse converts a void response. Error messages mean the
// shipment could not be voided; a missing Success flag is resolved by policy.
func ParseCancelResponse(body []byte, shipmentNumber string, policy shipper.AmbiguousCancelPolicy) (*shipper.CancelResult, error) {
	var resp CancelResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}

	if resp.ContainsErrorMessage || (resp.Success != nil && !*resp.Success) {
		msg := "shipment could not be cancelled"
		if len(resp.Messages) > 0 || resp.ContainsErrorMessage {
			msg = errorText(resp.responseHeader)
		}
		return &shipper.CancelResult{
			Success:                true,
			Cancelled:              false,
			CanCancel:              false,
			Message:                msg,
			BookingReferenceNumber: shipmentNumber,
		}, nil
	}

	if resp.Success == nil {
		return policy.Ambiguous(carrierName, shipmentNumber)
	}

	return &shipper.CancelResult{
		Success:                true,
		Cancelled:              true,
		CanCancel:              true,
		Message:                "Shipment cancelled",
		BookingReferenceNumber: shipmentNumber,
	}, nil
}

func charges(freight, fuel, accessorial, total sanitize.Number) shipper.Charges {
	c := shipper.Charges{
		Freight: freight.Float64(),
		Fuel:    fuel.Float64(),
		Total:   total.Float64(),
	}
	c.Subtotal = c.Freight + c.Fuel + accessorial.Float64()
	if c.Total == 0 {
		c.Total = c.Subtotal
	}
	return c
}

func serviceName(carrier, mode string) string {
	carrier, mode = sanitize.Trim(carrier), sanitize.Trim(mode)
	switch {
	case carrier == "":
		return mode
	case mode == "":
		return carrier
	}
	return carrier + " " + mode
}

func dateOnly(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
