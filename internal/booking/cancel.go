package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tournevent/carrierlink/internal/store"
	"github.com/tournevent/carrierlink/pkg/shipper"
)

// CancelCommand cancels the shipment ShipmentID. CarrierShipmentID is the
// carrier's id for the booking; when empty it is read from the shipment record.
type CancelCommand struct {
	ShipmentID        string
	CarrierID         string
	CarrierShipmentID string
}

// Cancel voids a booking with the carrier. Delivered and cancelled
// shipments are refused without calling the carrier. When the carrier
// confirms the void the shipment is marked cancelled, best-effort.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) Outcome[*shipper.CancelResult] {
	start := time.Now()
	var out Outcome[*shipper.CancelResult]
	log := s.logger.Ctx(ctx)

	record, err := s.loadShipment(ctx, cmd.ShipmentID)
	if err != nil {
		out.effect(EffectLoadShipment, err)
		s.sideEffect(ctx, shipper.OpCancel, EffectLoadShipment, cmd.ShipmentID, err)
	}
	previous := record.String("status")
	if refusal := cancelRefusal(shipper.ShipmentStatus(previous)); refusal != "" {
		log.Info("Cancel refused", zap.String("shipment_id", cmd.ShipmentID), zap.String("status", previous))
		out.Messages = append(out.Messages, refusal)
		out.complete(&shipper.CancelResult{
			Success:                false,
			Cancelled:              false,
			CanCancel:              false,
			Message:                refusal,
			BookingReferenceNumber: record.String("carrierShipmentId"),
		})
		return out
	}

	carrierShipmentID := cmd.CarrierShipmentID
	if carrierShipmentID == "" {
		carrierShipmentID = record.String("carrierShipmentId")
	}

	cfg, client, err := s.carrier(ctx, cmd.CarrierID, shipper.OpCancel)
	if err != nil {
		return s.failCancel(ctx, out, cmd, StageConfigResolved, err, start)
	}
	out.reach(StageConfigResolved)
	carrier := client.Name()

	if carrierShipmentID == "" {
		return s.failCancel(ctx, out, cmd, StageRequestBuilt,
			shipper.NewValidationError(carrier, "carrier shipment id is required to cancel"), start)
	}
	out.reach(StageRequestBuilt)

	result, err := client.Cancel(ctx, cfg, carrierShipmentID)
	if err != nil {
		at := stageFor(err)
		if at == StageResponseParsed {
			out.reach(StageCarrierCallSucceeded)
		}
		return s.failCancel(ctx, out, cmd, at, err, start)
	}
	out.reach(StageCarrierCallSucceeded)
	out.reach(StageResponseParsed)

	if result.Message != "" {
		out.Messages = append(out.Messages, result.Message)
	}

	if result.Cancelled && cmd.ShipmentID != "" {
		err = s.store.Update(ctx, store.CollectionShipments, cmd.ShipmentID, map[string]any{
			"status":      string(shipper.StatusCancelled),
			"cancelledAt": s.now(),
		})
		out.effect(EffectPersistShipment, err)
		s.sideEffect(ctx, shipper.OpCancel, EffectPersistShipment, cmd.ShipmentID, err)
		if err == nil {
			out.reach(StagePersisted)
		}

		err = s.recorder.RecordStatusChange(ctx, cmd.ShipmentID, previous, string(shipper.StatusCancelled),
			map[string]any{"carrier": carrier, "carrierShipmentId": carrierShipmentID}, result.Message)
		out.effect(EffectRecordStatus, err)
		s.sideEffect(ctx, shipper.OpCancel, EffectRecordStatus, cmd.ShipmentID, err)
	}

	out.complete(result)
	log.Info("Cancel processed",
		zap.String("shipment_id", cmd.ShipmentID),
		zap.String("carrier", carrier),
		zap.Bool("cancelled", result.Cancelled),
		zap.Bool("can_cancel", result.CanCancel),
	)
	s.observe(shipper.OpCancel, carrier, start, true, "")
	return out
}

func (s *Service) failCancel(ctx context.Context, out Outcome[*shipper.CancelResult], cmd CancelCommand, at Stage, err error, start time.Time) Outcome[*shipper.CancelResult] {
	out.fail(at, err)
	out.Messages = append(out.Messages, "Cancel failed: "+shipper.Message(err))
	s.logger.Ctx(ctx).Error("Cancel failed",
		zap.String("shipment_id", cmd.ShipmentID),
		zap.String("carrier_id", cmd.CarrierID),
		zap.String("stage", string(at)),
		zap.Error(err),
	)
	s.observe(shipper.OpCancel, cmd.CarrierID, start, false, out.ErrorKind)
	return out
}

func cancelRefusal(status shipper.ShipmentStatus) string {
	switch status {
	case shipper.StatusDelivered:
		return "Shipment has already been delivered and can no longer be cancelled."
	case shipper.StatusCancelled:
		return "Shipment is already cancelled."
	}
	return ""
}
