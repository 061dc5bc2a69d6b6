package sim

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/optsim/broker"
	"github.com/rustyeddy/optsim/internal/logx"
	"github.com/rustyeddy/optsim/market"
	"github.com/rustyeddy/optsim/pricing"
	"github.com/rustyeddy/optsim/risk"
)

// NearMoneyPct is the strike distance, as a fraction of the underlying,
// inside which a contract counts as near the money.
const NearMoneyPct = 0.01

// Entry opens at most one long call or put per bar from a directional
// signal.
type Entry struct {
	Broker broker.Broker
	Policy risk.Policy
	Rand   risk.Rand
	Log    *zap.Logger
}

// MaybeOpen buys a contract when the day has capacity left, no position is
// open and the signal is directional. Bullish buys a call, bearish a put.
// The first near-the-money contract of that type in chain order is chosen,
// falling back to the first contract of that type when none is near. It
// reports whether a position was opened; day is incremented only then.
func (e Entry) MaybeOpen(ctx context.Context, day *risk.DayCounter, symbol string, signal market.Signal, underlying float64, at time.Time, chain pricing.Chain) (broker.Position, bool) {
	log := logx.OrNop(e.Log)

	if !day.Allow(e.Policy.MaxTradesPerDay) {
		log.Debug("entry: daily cap reached", zap.Int("count", day.Count), zap.Time("at", at))
		return broker.Position{}, false
	}

	open, err := e.Broker.Positions(ctx)
	if err != nil {
		log.Warn("entry: list positions", zap.Error(err))
		return broker.Position{}, false
	}
	if len(open) > 0 {
		return broker.Position{}, false
	}

	var typ pricing.OptionType
	switch signal {
	case market.Bullish:
		typ = pricing.Call
	case market.Bearish:
		typ = pricing.Put
	default:
		return broker.Position{}, false
	}

	contract, ok := Select(chain, typ, underlying)
	if !ok {
		log.Debug("entry: no contract", zap.Stringer("type", typ), zap.Float64("underlying", underlying))
		return broker.Position{}, false
	}

	cash, err := e.Broker.Balance(ctx)
	if err != nil {
		log.Warn("entry: balance", zap.Error(err))
		return broker.Position{}, false
	}

	qty := risk.Quantity(cash, e.Policy.Fraction, contract.Price)
	if qty < 1 {
		log.Debug("entry: size below one contract",
			zap.String("contract", contract.ID), zap.Float64("price", contract.Price), zap.Float64("cash", cash))
		return broker.Position{}, false
	}

	stop, take := e.Policy.Levels(contract.Price, e.Rand)

	pos, err := e.Broker.PlaceOrder(ctx, broker.OrderRequest{
		ContractID: contract.ID,
		Symbol:     symbol,
		Quantity:   qty,
		Side:       broker.Buy,
		Price:      contract.Price,
		Time:       at,
		StopLoss:   stop,
		TakeProfit: take,
	})
	if err != nil {
		log.Warn("entry: order rejected", zap.String("contract", contract.ID), zap.Error(err))
		return broker.Position{}, false
	}

	day.Inc()
	log.Info("entry",
		zap.String("contract", pos.ID),
		zap.Stringer("signal", signal),
		zap.Int("qty", pos.Quantity),
		zap.Float64("price", pos.EntryPrice),
		zap.Float64("stop", pos.StopLoss),
		zap.Float64("take", pos.TakeProfit))
	return pos, true
}

// Select picks the first contract of typ within NearMoneyPct of the
// underlying, or the first of typ at all.
func Select(chain pricing.Chain, typ pricing.OptionType, underlying float64) (pricing.Contract, bool) {
	candidates := chain.Filter(typ)
	if near := candidates.NearMoney(underlying, NearMoneyPct); len(near) > 0 {
		candidates = near
	}
	if len(candidates) == 0 {
		return pricing.Contract{}, false
	}
	return candidates[0], true
}
