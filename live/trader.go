// Package live drives the entry and exit primitives from a polling loop
// against wall-clock time.
package live

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
	"github.com/rustyeddy/optsim/internal/logx"
	"github.com/rustyeddy/optsim/internal/tracex"
	"github.com/rustyeddy/optsim/journal"
	"github.com/rustyeddy/optsim/market"
	"github.com/rustyeddy/optsim/pricing"
	"github.com/rustyeddy/optsim/risk"
	"github.com/rustyeddy/optsim/sim"
)

const DefaultInterval = time.Minute

type Trader struct {
	Symbol    string
	Source    BarSource
	Predictor Predictor
	Pricer    pricing.Pricer
	Broker    broker.Broker
	Policy    risk.Policy
	Rand      risk.Rand
	Sessions  market.Sessions
	Location  *time.Location
	Journal   journal.Journal
	Interval  time.Duration
	Log       *zap.Logger
	Tracer    trace.Tracer

	// Now defaults to time.Now.
	Now func() time.Time

	day risk.DayCounter
}

// Report describes one polling step.
type Report struct {
	At         time.Time
	Signal     market.Signal
	Underlying float64
	Closed     []journal.TradeRecord
	Opened     *broker.Position
}

var (
	ErrNoBars = errors.New("no bars")
	ErrBadBar = errors.New("bar close is not a finite number")
)

func (t *Trader) now() time.Time {
	now := time.Now()
	if t.Now != nil {
		now = t.Now()
	}
	if t.Location != nil {
		now = now.In(t.Location)
	}
	return now
}

// Step fetches bars, predicts, and runs exits then entries at the current
// wall-clock time. Weekends do nothing. Entries only happen inside a
// session window.
func (t *Trader) Step(ctx context.Context) (Report, error) {
	ctx, span := tracex.OrGlobal(t.Tracer).Start(ctx, "live.Step",
		trace.WithAttributes(attribute.String("symbol", t.Symbol)))
	defer span.End()

	rep, err := t.step(ctx)
	span.SetAttributes(
		attribute.String("signal", rep.Signal.String()),
		attribute.Float64("underlying", rep.Underlying),
		attribute.Int("closed", len(rep.Closed)),
		attribute.Bool("opened", rep.Opened != nil),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return rep, err
}

func (t *Trader) step(ctx context.Context) (Report, error) {
	log := logx.OrNop(t.Log).With(zap.String("symbol", t.Symbol))
	now := t.now()
	rep := Report{At: now}

	t.day.Observe(now)
	if market.IsWeekend(now) {
		log.Debug("weekend, idle")
		return rep, nil
	}

	bars, err := t.Source.Bars(ctx, t.Symbol)
	if err != nil {
		return rep, fmt.Errorf("fetch bars: %w", err)
	}
	if len(bars) == 0 {
		return rep, ErrNoBars
	}

	sig, err := t.Predictor.Predict(ctx, bars)
	if err != nil {
		return rep, fmt.Errorf("predict: %w", err)
	}
	last := bars[len(bars)-1]
	if !last.Finite() {
		return rep, fmt.Errorf("%w: close %v at %s", ErrBadBar, last.Close, last.Time.Format(time.RFC3339))
	}
	rep.Signal = sig
	rep.Underlying = last.Close

	chain := t.Pricer.Chain(t.Symbol, rep.Underlying, now)

	exits := sim.Exits{Broker: t.Broker, Log: log}
	rep.Closed = exits.Evaluate(ctx, rep.Underlying, now, chain)

	if t.Sessions.Contains(now) {
		entry := sim.Entry{Broker: t.Broker, Policy: t.Policy, Rand: t.Rand, Log: log}
		if pos, ok := entry.MaybeOpen(ctx, &t.day, t.Symbol, sig, rep.Underlying, now, chain); ok {
			rep.Opened = &pos
		}
	}

	if err := t.snapshot(ctx, now, chain); err != nil {
		log.Warn("record equity", zap.Error(err))
	}

	log.Info("step",
		zap.Stringer("signal", sig),
		zap.Float64("underlying", rep.Underlying),
		zap.Int("closed", len(rep.Closed)),
		zap.Bool("opened", rep.Opened != nil))
	return rep, nil
}

func (t *Trader) snapshot(ctx context.Context, now time.Time, chain pricing.Chain) error {
	if t.Journal == nil {
		return nil
	}
	cash, err := t.Broker.Balance(ctx)
	if err != nil {
		return err
	}
	open, err := t.Broker.Positions(ctx)
	if err != nil {
		return err
	}
	return t.Journal.RecordEquity(journal.EquitySnapshot{
		Time:          now,
		Cash:          cash,
		Equity:        sim.Equity(cash, open, chain),
		OpenPositions: len(open),
	})
}

// Run steps immediately and then once per Interval until ctx is done.
// Step errors are logged and the loop continues.
func (t *Trader) Run(ctx context.Context) error {
	if t.Source == nil || t.Predictor == nil || t.Broker == nil {
		return errors.New("live: Source, Predictor and Broker are required")
	}
	log := logx.OrNop(t.Log)

	interval := t.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("live trading started", zap.String("symbol", t.Symbol), zap.Duration("interval", interval))
	for {
		if _, err := t.Step(ctx); err != nil {
			log.Warn("step failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			log.Info("live trading stopped", zap.String("symbol", t.Symbol))
			return nil
		case <-ticker.C:
		}
	}
}
