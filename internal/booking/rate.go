package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tournevent/carrierlink/internal/store"
	"github.com/tournevent/carrierlink/pkg/shipper"
)

// RateStatusQuoted is written on rate records once quotes are stored.
const RateStatusQuoted = "quoted"

// RateCommand quotes Request with CarrierID. When RateID is set the quotes
// are stored on that rate record.
type RateCommand struct {
	RateID    string
	CarrierID string
	Request   *shipper.RateRequest
}

// Rate fetches quotes from a single carrier.
func (s *Service) Rate(ctx context.Context, cmd RateCommand) Outcome[*shipper.RateResult] {
	start := time.Now()
	var out Outcome[*shipper.RateResult]

	result, client, err := s.quote(ctx, &out, cmd.CarrierID, cmd.Request)
	carrier := carrierLabel(client, cmd.CarrierID)
	if err != nil {
		out.Messages = append(out.Messages, "Rating failed: "+shipper.Message(err))
		s.logger.Ctx(ctx).Error("Rating failed",
			zap.String("carrier_id", cmd.CarrierID),
			zap.String("stage", string(out.FailedAt)),
			zap.Error(err),
		)
		s.observe(shipper.OpRate, carrier, start, false, out.ErrorKind)
		return out
	}

	if cmd.RateID != "" {
		err = s.store.Set(ctx, store.CollectionRates, cmd.RateID, store.Document{
			"status":   RateStatusQuoted,
			"carrier":  carrier,
			"quotes":   result.Quotes,
			"quotedAt": s.now(),
		})
		out.effect(EffectPersistQuotes, err)
		s.sideEffect(ctx, shipper.OpRate, EffectPersistQuotes, cmd.RateID, err)
		if err == nil {
			out.reach(StagePersisted)
		}
	}

	out.complete(result)
	s.logger.Ctx(ctx).Info("Rates fetched",
		zap.String("carrier", carrier),
		zap.Int("quote_count", len(result.Quotes)),
	)
	s.observe(shipper.OpRate, carrier, start, true, "")
	return out
}

// quote resolves, normalizes and calls the carrier, advancing out's stages.
// On error out is already marked failed.
func (s *Service) quote(ctx context.Context, out *Outcome[*shipper.RateResult], carrierID string, req *shipper.RateRequest) (*shipper.RateResult, shipper.Shipper, error) {
	cfg, client, err := s.carrier(ctx, carrierID, shipper.OpRate)
	if err != nil {
		out.fail(StageConfigResolved, err)
		return nil, nil, err
	}
	out.reach(StageConfigResolved)

	shipment, err := shipper.Normalize(req)
	if err != nil {
		out.fail(StageRequestBuilt, err)
		return nil, client, err
	}
	if shipment.Mode == "" {
		shipment.Mode = client.Mode()
	}
	out.reach(StageRequestBuilt)

	result, err := client.Rate(ctx, cfg, shipment)
	if err != nil {
		at := stageFor(err)
		if at == StageResponseParsed {
			out.reach(StageCarrierCallSucceeded)
		}
		out.fail(at, err)
		return nil, client, err
	}
	out.reach(StageCarrierCallSucceeded)
	out.reach(StageResponseParsed)
	return result, client, nil
}

// CarrierFailure is the error of one carrier during rate shopping.
type CarrierFailure struct {
	Carrier   string            `json:"carrier"`
	Error     string            `json:"error"`
	ErrorKind shipper.ErrorKind `json:"errorKind"`
	Stage     Stage             `json:"stage"`
}

// ShopResult collects the quotes and failures of a rate-shopping run.
type ShopResult struct {
	Results  []*shipper.RateResult `json:"results"`
	Failures []CarrierFailure      `json:"failures,omitempty"`
}

// RateShop quotes req with every carrier in carrierIDs in parallel; an
// empty list means every registered carrier. Individual carrier failures are
// collected and do not fail the run unless every carrier failed.
func (s *Service) RateShop(ctx context.Context, carrierIDs []string, req *shipper.RateRequest) Outcome[*ShopResult] {
	start := time.Now()
	var out Outcome[*ShopResult]

	if _, err := shipper.Normalize(req); err != nil {
		out.fail(StageRequestBuilt, err)
		out.Messages = append(out.Messages, "Rating failed: "+shipper.Message(err))
		return out
	}
	if len(carrierIDs) == 0 {
		carrierIDs = s.registry.Names()
	}
	if len(carrierIDs) == 0 {
		out.fail(StageConfigResolved, shipper.NewNotFoundError("", "no carriers are registered"))
		return out
	}

	shop := &ShopResult{Results: make([]*shipper.RateResult, 0, len(carrierIDs))}
	mu := &sync.Mutex{}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range carrierIDs {
		g.Go(func() error {
			var one Outcome[*shipper.RateResult]
			result, _, err := s.quote(gctx, &one, id, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				shop.Failures = append(shop.Failures, CarrierFailure{
					Carrier:   id,
					Error:     one.Error,
					ErrorKind: one.ErrorKind,
					Stage:     one.FailedAt,
				})
				return nil
			}
			shop.Results = append(shop.Results, result)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(shop.Results, func(i, j int) bool { return shop.Results[i].Carrier < shop.Results[j].Carrier })
	sort.Slice(shop.Failures, func(i, j int) bool { return shop.Failures[i].Carrier < shop.Failures[j].Carrier })

	for _, f := range shop.Failures {
		out.Messages = append(out.Messages, f.Carrier+": "+f.Error)
		s.logger.Ctx(ctx).Warn("Carrier quote failed",
			zap.String("carrier", f.Carrier),
			zap.String("error_kind", string(f.ErrorKind)),
			zap.String("error", f.Error),
		)
	}

	if len(shop.Results) == 0 {
		out.Data = shop
		out.fail(StageResponseParsed, shipper.NewCarrierError("", "NO_QUOTES", "no carrier returned quotes"))
		s.observe(shipper.OpRate, "all", start, false, out.ErrorKind)
		return out
	}

	out.reach(StageResponseParsed)
	out.complete(shop)
	s.observe(shipper.OpRate, "all", start, true, "")
	return out
}
