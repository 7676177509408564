package booking

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tournevent/carrierlink/pkg/shipper"
)

// History returns the tracking history of trackingNumber.
func (s *Service) History(ctx context.Context, carrierID, trackingNumber string) Outcome[*shipper.ShipmentHistory] {
	start := time.Now()
	var out Outcome[*shipper.ShipmentHistory]

	cfg, client, err := s.carrier(ctx, carrierID, shipper.OpHistory)
	if err != nil {
		out.fail(StageConfigResolved, err)
		s.observe(shipper.OpHistory, carrierID, start, false, out.ErrorKind)
		return out
	}
	out.reach(StageConfigResolved)
	carrier := client.Name()

	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		out.fail(StageRequestBuilt, shipper.NewValidationError(carrier, "tracking number is required"))
		s.observe(shipper.OpHistory, carrier, start, false, out.ErrorKind)
		return out
	}
	out.reach(StageRequestBuilt)

	history, err := client.History(ctx, cfg, trackingNumber)
	if err != nil {
		out.fail(stageFor(err), err)
		s.logger.Ctx(ctx).Warn("Tracking lookup failed",
			zap.String("carrier", carrier),
			zap.String("tracking_number", trackingNumber),
			zap.Error(err),
		)
		s.observe(shipper.OpHistory, carrier, start, false, out.ErrorKind)
		return out
	}
	out.reach(StageCarrierCallSucceeded)
	out.reach(StageResponseParsed)

	out.complete(history)
	s.observe(shipper.OpHistory, carrier, start, true, "")
	return out
}
