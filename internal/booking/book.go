package booking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tournevent/carrierlink/internal/store"
	"github.com/tournevent/carrierlink/pkg/shipper"
)

// Rate record statuses written by Book.
const (
	RateStatusBooked        = "booked"
	RateStatusBookingFailed = "booking_failed"
)

// BookCommand books the shipment ShipmentID with the carrier CarrierID
// using the rate RateID.
type BookCommand struct {
	ShipmentID string
	RateID     string
	CarrierID  string
	Request    *shipper.RateRequest
}

// Book books a shipment. Once the carrier has confirmed the booking the
// outcome is successful; persistence, the status event, the rate update and
// label generation are side effects whose failures are reported but never
// change Success.
func (s *Service) Book(ctx context.Context, cmd BookCommand) Outcome[*shipper.BookingResult] {
	start := time.Now()
	var out Outcome[*shipper.BookingResult]
	log := s.logger.Ctx(ctx)

	cfg, client, err := s.carrier(ctx, cmd.CarrierID, shipper.OpBook)
	if err != nil {
		s.failBooking(ctx, &out, cmd, StageConfigResolved, err)
		s.observe(shipper.OpBook, cmd.CarrierID, start, false, out.ErrorKind)
		return out
	}
	out.reach(StageConfigResolved)
	carrier := client.Name()

	if cmd.ShipmentID == "" {
		s.failBooking(ctx, &out, cmd, StageRequestBuilt, shipper.NewValidationError(carrier, "shipment id is required"))
		s.observe(shipper.OpBook, carrier, start, false, out.ErrorKind)
		return out
	}
	shipment, err := shipper.Normalize(cmd.Request)
	if err != nil {
		s.failBooking(ctx, &out, cmd, StageRequestBuilt, err)
		s.observe(shipper.OpBook, carrier, start, false, out.ErrorKind)
		return out
	}
	if shipment.Mode == "" {
		shipment.Mode = client.Mode()
	}
	out.reach(StageRequestBuilt)

	log.Info("Booking shipment",
		zap.String("shipment_id", cmd.ShipmentID),
		zap.String("carrier", carrier),
		zap.String("service", shipment.Service),
	)

	booking, err := client.Book(ctx, cfg, shipment)
	if err != nil {
		at := stageFor(err)
		if at == StageResponseParsed {
			out.reach(StageCarrierCallSucceeded)
		}
		s.failBooking(ctx, &out, cmd, at, err)
		s.observe(shipper.OpBook, carrier, start, false, out.ErrorKind)
		return out
	}
	out.reach(StageCarrierCallSucceeded)
	out.reach(StageResponseParsed)

	err = s.store.Update(ctx, store.CollectionShipments, cmd.ShipmentID, bookingFields(booking, carrier, cmd.RateID, s.now()))
	out.effect(EffectPersistShipment, err)
	s.sideEffect(ctx, shipper.OpBook, EffectPersistShipment, cmd.ShipmentID, err)
	if err == nil {
		out.reach(StagePersisted)
	}

	err = s.recorder.RecordStatusChange(ctx, cmd.ShipmentID, string(shipper.StatusDraft), string(shipper.StatusPending),
		map[string]any{"carrier": carrier, "trackingNumber": booking.TrackingNumber, "rateId": cmd.RateID},
		"Shipment booked with "+carrier)
	out.effect(EffectRecordStatus, err)
	s.sideEffect(ctx, shipper.OpBook, EffectRecordStatus, cmd.ShipmentID, err)

	if cmd.RateID != "" {
		err = s.store.Update(ctx, store.CollectionRates, cmd.RateID, map[string]any{
			"status":     RateStatusBooked,
			"shipmentId": cmd.ShipmentID,
			"bookedAt":   s.now(),
		})
		out.effect(EffectUpdateRate, err)
		s.sideEffect(ctx, shipper.OpBook, EffectUpdateRate, cmd.RateID, err)
	}

	if shipment.Mode == shipper.ModeCourier {
		if s.attachLabel(ctx, &out, cmd, cmd.CarrierID, booking) {
			out.reach(StageLabelGenerated)
		} else {
			out.Messages = append(out.Messages, "Shipment booked, but the label could not be generated yet.")
		}
	}

	out.complete(booking)
	log.Info("Shipment booked",
		zap.String("shipment_id", cmd.ShipmentID),
		zap.String("carrier", carrier),
		zap.String("tracking_number", booking.TrackingNumber),
		zap.Int("failed_side_effects", len(out.FailedSideEffects())),
	)
	s.observe(shipper.OpBook, carrier, start, true, "")
	return out
}

// attachLabel fetches the label of a fresh booking and appends it to the
// booking and the shipment record.
func (s *Service) attachLabel(ctx context.Context, out *Outcome[*shipper.BookingResult], cmd BookCommand, carrierID string, booking *shipper.BookingResult) bool {
	docs, err := s.fetchLabel(ctx, carrierID, booking.ShipmentID)
	out.effect(EffectGenerateLabel, err)
	s.sideEffect(ctx, shipper.OpBook, EffectGenerateLabel, cmd.ShipmentID, err)
	if err != nil {
		return false
	}

	booking.AppendDocuments(docs...)
	err = s.store.Update(ctx, store.CollectionShipments, cmd.ShipmentID, map[string]any{
		"shippingDocuments": booking.ShippingDocuments,
	})
	out.effect(EffectPersistLabel, err)
	s.sideEffect(ctx, shipper.OpBook, EffectPersistLabel, cmd.ShipmentID, err)
	return true
}

func (s *Service) fetchLabel(ctx context.Context, carrierID, carrierShipmentID string) ([]shipper.ShippingDocument, error) {
	cfg, client, err := s.carrier(ctx, carrierID, shipper.OpLabel)
	if err != nil {
		return nil, err
	}
	label, err := client.Label(ctx, cfg, carrierShipmentID)
	if err != nil {
		return nil, err
	}
	if len(label.Documents) == 0 {
		return nil, shipper.NewProtocolError(client.Name(), "label response has no documents")
	}
	return label.Documents, nil
}

// failBooking marks the outcome failed and flags the shipment and rate
// records. The record writes are best-effort.
func (s *Service) failBooking(ctx context.Context, out *Outcome[*shipper.BookingResult], cmd BookCommand, at Stage, err error) {
	out.fail(at, err)
	out.Messages = append(out.Messages, fmt.Sprintf("Booking failed: %s", shipper.Message(err)))

	s.logger.Ctx(ctx).Error("Booking failed",
		zap.String("shipment_id", cmd.ShipmentID),
		zap.String("carrier_id", cmd.CarrierID),
		zap.String("stage", string(at)),
		zap.String("error_kind", string(out.ErrorKind)),
		zap.Error(err),
	)

	now := s.now()
	if cmd.ShipmentID != "" {
		werr := s.store.Update(ctx, store.CollectionShipments, cmd.ShipmentID, map[string]any{
			"status":       string(shipper.StatusBookingFailed),
			"bookingError": out.Error,
			"failedAt":     now,
		})
		out.effect(EffectMarkShipmentError, werr)
		s.sideEffect(ctx, shipper.OpBook, EffectMarkShipmentError, cmd.ShipmentID, werr)
	}
	if cmd.RateID != "" {
		werr := s.store.Update(ctx, store.CollectionRates, cmd.RateID, map[string]any{
			"status":       RateStatusBookingFailed,
			"bookingError": out.Error,
			"failedAt":     now,
		})
		out.effect(EffectMarkRateError, werr)
		s.sideEffect(ctx, shipper.OpBook, EffectMarkRateError, cmd.RateID, werr)
	}
}

func bookingFields(b *shipper.BookingResult, carrier, rateID string, now time.Time) map[string]any {
	fields := map[string]any{
		"status":             string(shipper.StatusPending),
		"carrier":            carrier,
		"carrierShipmentId":  b.ShipmentID,
		"trackingNumber":     b.TrackingNumber,
		"confirmationNumber": b.ConfirmationNumber,
		"booking":            *b,
		"bookedAt":           now,
	}
	if rateID != "" {
		fields["rateId"] = rateID
	}
	return fields
}
