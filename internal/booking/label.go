package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tournevent/carrierlink/internal/store"
	"github.com/tournevent/carrierlink/pkg/shipper"
)

// LabelCommand regenerates the label of a booked shipment.
type LabelCommand struct {
	ShipmentID        string
	CarrierID         string
	CarrierShipmentID string
}

// GenerateLabel fetches the label documents of a booking and stores them on
// the shipment record, best-effort.
func (s *Service) GenerateLabel(ctx context.Context, cmd LabelCommand) Outcome[*shipper.LabelResult] {
	start := time.Now()
	var out Outcome[*shipper.LabelResult]

	record, err := s.loadShipment(ctx, cmd.ShipmentID)
	if err != nil {
		out.effect(EffectLoadShipment, err)
		s.sideEffect(ctx, shipper.OpLabel, EffectLoadShipment, cmd.ShipmentID, err)
	}
	carrierShipmentID := cmd.CarrierShipmentID
	if carrierShipmentID == "" {
		carrierShipmentID = record.String("carrierShipmentId")
	}

	cfg, client, err := s.carrier(ctx, cmd.CarrierID, shipper.OpLabel)
	if err != nil {
		return s.failLabel(ctx, out, cmd, StageConfigResolved, err, start)
	}
	out.reach(StageConfigResolved)
	carrier := client.Name()

	if carrierShipmentID == "" {
		return s.failLabel(ctx, out, cmd, StageRequestBuilt,
			shipper.NewValidationError(carrier, "carrier shipment id is required to generate a label"), start)
	}
	out.reach(StageRequestBuilt)

	label, err := client.Label(ctx, cfg, carrierShipmentID)
	if err != nil {
		at := stageFor(err)
		if at == StageResponseParsed {
			out.reach(StageCarrierCallSucceeded)
		}
		return s.failLabel(ctx, out, cmd, at, err, start)
	}
	out.reach(StageCarrierCallSucceeded)
	out.reach(StageResponseParsed)

	if cmd.ShipmentID != "" {
		err = s.store.Update(ctx, store.CollectionShipments, cmd.ShipmentID, map[string]any{
			"shippingDocuments": label.Documents,
			"labelledAt":        s.now(),
		})
		out.effect(EffectPersistLabel, err)
		s.sideEffect(ctx, shipper.OpLabel, EffectPersistLabel, cmd.ShipmentID, err)
		if err == nil {
			out.reach(StagePersisted)
		}
	}
	out.reach(StageLabelGenerated)

	out.complete(label)
	s.logger.Ctx(ctx).Info("Label generated",
		zap.String("shipment_id", cmd.ShipmentID),
		zap.String("carrier", carrier),
		zap.Int("document_count", len(label.Documents)),
	)
	s.observe(shipper.OpLabel, carrier, start, true, "")
	return out
}

func (s *Service) failLabel(ctx context.Context, out Outcome[*shipper.LabelResult], cmd LabelCommand, at Stage, err error, start time.Time) Outcome[*shipper.LabelResult] {
	out.fail(at, err)
	out.Messages = append(out.Messages, "Label generation failed: "+shipper.Message(err))
	s.logger.Ctx(ctx).Error("Label generation failed",
		zap.String("shipment_id", cmd.ShipmentID),
		zap.String("carrier_id", cmd.CarrierID),
		zap.String("stage", string(at)),
		zap.Error(err),
	)
	s.observe(shipper.OpLabel, cmd.CarrierID, start, false, out.ErrorKind)
	return out
}
