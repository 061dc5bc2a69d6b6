// Package sim holds the per-bar trading primitives shared by the backtest
// loop and the live driver: exit evaluation and entry decisions.
package sim

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/optsim/broker"
	"github.com/rustyeddy/optsim/internal/logx"
	"github.com/rustyeddy/optsim/journal"
	"github.com/rustyeddy/optsim/pricing"
)

// ExpiryHour is the clock hour on the expiry date at which a contract
// settles.
const ExpiryHour = 16

// Exits decides, for every open position, whether it expires or hits its
// stop-loss or take-profit on the current bar.
type Exits struct {
	Broker broker.Broker
	Log    *zap.Logger
}

// Expiry is 16:00 on the contract's expiry date in the location of at.
func Expiry(spec pricing.ContractSpec, at time.Time) time.Time {
	y, m, d := spec.Expiry.Date()
	return time.Date(y, m, d, ExpiryHour, 0, 0, 0, at.Location())
}

// Evaluate closes positions in priority order: expiry settles at intrinsic
// value, then the chain quote is checked against the stop (price <= stop)
// and then the target (price >= target). A position whose contract is not
// in chain stays open. Close failures are logged; the returned records are
// the trades that actually closed.
func (x Exits) Evaluate(ctx context.Context, underlying float64, at time.Time, chain pricing.Chain) []journal.TradeRecord {
	log := logx.OrNop(x.Log)

	positions, err := x.Broker.Positions(ctx)
	if err != nil {
		log.Warn("exits: list positions", zap.Error(err))
		return nil
	}

	var closed []journal.TradeRecord
	for _, pos := range positions {
		price, reason, ok := x.decide(log, pos, underlying, at, chain)
		if !ok {
			continue
		}

		rec, err := x.Broker.ClosePosition(ctx, broker.CloseRequest{
			PositionID: pos.ID,
			Price:      price,
			Time:       at,
			Reason:     reason,
		})
		if err != nil {
			log.Warn("exits: close failed",
				zap.String("contract", pos.ID), zap.String("reason", reason), zap.Error(err))
			continue
		}
		closed = append(closed, rec)
	}
	return closed
}

func (x Exits) decide(log *zap.Logger, pos broker.Position, underlying float64, at time.Time, chain pricing.Chain) (float64, string, bool) {
	spec, err := pricing.ParseContractID(pos.OptionSymbol, at.Location())
	if err != nil {
		log.Warn("exits: cannot parse contract, skipping expiry check",
			zap.String("contract", pos.OptionSymbol), zap.Error(err))
	} else if !at.Before(Expiry(spec, at)) {
		return pricing.Intrinsic(spec.Type, spec.Strike, underlying), journal.ReasonExpired, true
	}

	quote, ok := chain.Find(pos.ID)
	if !ok {
		log.Debug("exits: contract not in chain, holding",
			zap.String("contract", pos.ID), zap.Time("at", at))
		return 0, "", false
	}

	switch {
	case quote.Price <= pos.StopLoss:
		return quote.Price, journal.ReasonStopLoss, true
	case quote.Price >= pos.TakeProfit:
		return quote.Price, journal.ReasonTakeProfit, true
	}
	return 0, "", false
}

// Equity is cash plus open positions marked at their chain quote, falling
// back to entry price for contracts the chain does not carry.
func Equity(cash float64, open []broker.Position, chain pricing.Chain) float64 {
	eq := cash
	for _, p := range open {
		price := p.EntryPrice
		if c, ok := chain.Find(p.ID); ok {
			price = c.Price
		}
		eq += float64(p.Quantity) * price
	}
	return eq
}
