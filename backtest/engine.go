// Package backtest replays historical bars through the entry and exit
// primitives against a broker.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rustyeddy/optsim/broker"
	"github.com/rustyeddy/optsim/internal/id"
	"github.com/rustyeddy/optsim/internal/logx"
	"github.com/rustyeddy/optsim/internal/tracex"
	"github.com/rustyeddy/optsim/journal"
	"github.com/rustyeddy/optsim/market"
	"github.com/rustyeddy/optsim/pricing"
	"github.com/rustyeddy/optsim/risk"
	"github.com/rustyeddy/optsim/sim"
)

// Options controls end-of-run behavior.
type Options struct {
	// CloseAtEnd closes every position still open after the last bar at
	// its final chain quote (entry price when unquoted), reason Manual.
	CloseAtEnd bool
}

// Engine is the bar simulation loop for one symbol.
type Engine struct {
	Symbol string

	// WarmupBars leading bars are skipped entirely. They exist so upstream
	// feature generation has history; nothing trades on them.
	WarmupBars int

	// Sessions gate entries. Exits run on every weekday bar.
	Sessions market.Sessions

	// Location, when set, converts bar times before calendar and session
	// checks.
	Location *time.Location

	Pricer  pricing.Pricer
	Broker  broker.Broker
	Policy  risk.Policy
	Rand    risk.Rand
	Journal journal.Journal
	Options Options
	Log     *zap.Logger

	// Tracer receives one span per run; nil uses the global provider.
	Tracer trace.Tracer
}

type Result struct {
	RunID     string
	Symbol    string
	Trades    []journal.TradeRecord
	StartCash float64
	EndCash   float64
	Open      []broker.Position
	Bars      int // bars supplied
	Processed int // bars that reached exit evaluation
	Start     time.Time
	End       time.Time
}

func (r Result) Stats() journal.Stats {
	return journal.Summarize(r.Trades)
}

func (r Result) ReturnPct() float64 {
	if r.StartCash == 0 {
		return 0
	}
	return 100 * (r.EndCash - r.StartCash) / r.StartCash
}

// Run walks bars in order. For each bar past the warm-up: the day counter
// resets on a date change, weekend bars are skipped, open positions are
// evaluated for exit, and an entry is attempted only inside a session
// window. Bars without a finite close are skipped. A cancelled ctx stops
// the loop between bars and returns the partial result with ctx.Err().
func (e *Engine) Run(ctx context.Context, bars []market.Bar) (res Result, err error) {
	if e.Broker == nil {
		return Result{}, errors.New("backtest: Broker is required")
	}
	log := logx.OrNop(e.Log).With(zap.String("symbol", e.Symbol))

	ctx, span := tracex.OrGlobal(e.Tracer).Start(ctx, "backtest.Run",
		trace.WithAttributes(
			attribute.String("symbol", e.Symbol),
			attribute.Int("bars", len(bars)),
		))
	defer func() {
		span.SetAttributes(
			attribute.String("run_id", res.RunID),
			attribute.Int("processed", res.Processed),
			attribute.Int("trades", len(res.Trades)),
			attribute.Float64("end_cash", res.EndCash),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	cash, err := e.Broker.Balance(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("backtest: starting balance: %w", err)
	}

	res = Result{
		RunID:     id.New(),
		Symbol:    e.Symbol,
		StartCash: cash,
		EndCash:   cash,
		Bars:      len(bars),
	}
	if len(bars) == 0 {
		return res, nil
	}
	res.Start = e.localize(bars[0].Time)
	res.End = e.localize(bars[len(bars)-1].Time)

	exits := sim.Exits{Broker: e.Broker, Log: log}
	entry := sim.Entry{Broker: e.Broker, Policy: e.Policy, Rand: e.Rand, Log: log}

	var (
		day       risk.DayCounter
		lastChain pricing.Chain
		lastAt    time.Time
	)

	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return e.finish(ctx, res, log), err
		}
		if i < e.WarmupBars {
			continue
		}

		at := e.localize(bar.Time)
		if day.Observe(at) {
			log.Debug("new trading day", zap.Time("day", day.Day))
		}
		if market.IsWeekend(at) {
			continue
		}
		if !bar.Finite() {
			log.Warn("non-finite close, bar skipped", zap.Time("at", at), zap.Float64("close", bar.Close))
			continue
		}

		chain := e.Pricer.Chain(e.Symbol, bar.Close, at)
		res.Processed++
		closed := exits.Evaluate(ctx, bar.Close, at, chain)
		for _, rec := range closed {
			span.AddEvent("close", trace.WithAttributes(
				attribute.String("contract", rec.OptionSymbol),
				attribute.String("reason", rec.Reason),
				attribute.Float64("pnl", rec.PnL),
			))
		}
		res.Trades = append(res.Trades, closed...)

		if e.Sessions.Contains(at) {
			if p, ok := entry.MaybeOpen(ctx, &day, e.Symbol, bar.Signal, bar.Close, at, chain); ok {
				span.AddEvent("open", trace.WithAttributes(
					attribute.String("contract", p.ID),
					attribute.Int("qty", p.Quantity),
					attribute.Float64("price", p.EntryPrice),
				))
			}
		} else {
			log.Debug("outside session, entries skipped", zap.Time("at", at))
		}

		e.snapshot(ctx, at, chain, log)
		lastChain, lastAt = chain, at
	}

	if e.Options.CloseAtEnd && res.Processed > 0 {
		res.Trades = append(res.Trades, e.closeAll(ctx, lastChain, lastAt, log)...)
	}
	return e.finish(ctx, res, log), nil
}

func (e *Engine) localize(t time.Time) time.Time {
	if e.Location == nil {
		return t
	}
	return t.In(e.Location)
}

func (e *Engine) finish(ctx context.Context, res Result, log *zap.Logger) Result {
	if cash, err := e.Broker.Balance(ctx); err == nil {
		res.EndCash = cash
	} else {
		log.Warn("backtest: ending balance", zap.Error(err))
	}
	if open, err := e.Broker.Positions(ctx); err == nil {
		res.Open = open
	} else {
		log.Warn("backtest: open positions", zap.Error(err))
	}
	return res
}

func (e *Engine) snapshot(ctx context.Context, at time.Time, chain pricing.Chain, log *zap.Logger) {
	if e.Journal == nil {
		return
	}
	cash, err := e.Broker.Balance(ctx)
	if err != nil {
		log.Warn("backtest: snapshot balance", zap.Error(err))
		return
	}
	open, err := e.Broker.Positions(ctx)
	if err != nil {
		log.Warn("backtest: snapshot positions", zap.Error(err))
		return
	}
	snap := journal.EquitySnapshot{
		Time:          at,
		Cash:          cash,
		Equity:        sim.Equity(cash, open, chain),
		OpenPositions: len(open),
	}
	if err := e.Journal.RecordEquity(snap); err != nil {
		log.Warn("backtest: record equity", zap.Error(err))
	}
}

func (e *Engine) closeAll(ctx context.Context, chain pricing.Chain, at time.Time, log *zap.Logger) []journal.TradeRecord {
	open, err := e.Broker.Positions(ctx)
	if err != nil {
		log.Warn("backtest: close all", zap.Error(err))
		return nil
	}
	var out []journal.TradeRecord
	for _, p := range open {
		price := p.EntryPrice
		if c, ok := chain.Find(p.ID); ok {
			price = c.Price
		}
		rec, err := e.Broker.ClosePosition(ctx, broker.CloseRequest{
			PositionID: p.ID,
			Price:      price,
			Time:       at,
			Reason:     journal.ReasonManual,
		})
		if err != nil {
			log.Warn("backtest: close at end", zap.String("contract", p.ID), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out
}
