// Package paper is an in-memory broker: cash, open positions and an
// append-only trade history, with immediate fills at the requested price.
package paper

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/optsim/broker"
	"github.com/rustyeddy/optsim/internal/id"
	"github.com/rustyeddy/optsim/internal/logx"
	"github.com/rustyeddy/optsim/journal"
)

// Ledger is the sole owner of cash and open positions for one account.
// All mutations hold mu so a ledger may be shared with a monitoring
// goroutine without breaking cash conservation.
type Ledger struct {
	mu        sync.Mutex
	cash      decimal.Decimal
	positions map[string]*lot
	history   []journal.TradeRecord
	journal   journal.Journal
	log       *zap.Logger
}

// lot keeps the exact decimal entry price next to the float view.
type lot struct {
	broker.Position
	entry decimal.Decimal
}

var _ broker.Broker = (*Ledger)(nil)

type Option func(*Ledger)

// WithJournal records every closed trade to j.
func WithJournal(j journal.Journal) Option {
	return func(l *Ledger) { l.journal = j }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) { l.log = logx.OrNop(log) }
}

func New(initialCash float64, opts ...Option) *Ledger {
	l := &Ledger{
		cash:      decimal.NewFromFloat(initialCash),
		positions: make(map[string]*lot),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Balance(ctx context.Context) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash.InexactFloat64(), nil
}

// Cash is the exact balance.
func (l *Ledger) Cash() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// Positions returns copies ordered by entry time, then id.
func (l *Ledger) Positions(ctx context.Context) ([]broker.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]broker.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p.Position)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryTime.Equal(out[j].EntryTime) {
			return out[i].EntryTime.Before(out[j].EntryTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// PlaceOrder fills a buy immediately at req.Price. A buy of a contract that
// is already held replaces the existing lot rather than averaging into it;
// the replaced lot's cost is not refunded.
func (l *Ledger) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.Position, error) {
	if req.Side != broker.Buy {
		l.log.Warn("order rejected: only buy-to-open is supported",
			zap.String("contract", req.ContractID), zap.Stringer("side", req.Side))
		return broker.Position{}, fmt.Errorf("%w: %s", broker.ErrUnsupportedSide, req.Side)
	}
	if req.ContractID == "" || req.Quantity < 1 || !finite(req.Price) || req.Price <= 0 {
		return broker.Position{}, fmt.Errorf("%w: contract=%q qty=%d price=%v",
			broker.ErrInvalidOrder, req.ContractID, req.Quantity, req.Price)
	}

	price := decimal.NewFromFloat(req.Price)
	cost := price.Mul(decimal.NewFromInt(int64(req.Quantity)))

	l.mu.Lock()
	defer l.mu.Unlock()

	if cost.GreaterThan(l.cash) {
		l.log.Warn("order rejected: insufficient funds",
			zap.String("contract", req.ContractID),
			zap.Int("qty", req.Quantity),
			zap.String("cost", cost.StringFixed(2)),
			zap.String("cash", l.cash.StringFixed(2)))
		return broker.Position{}, fmt.Errorf("%w: cost %s > cash %s",
			broker.ErrInsufficientFunds, cost.StringFixed(2), l.cash.StringFixed(2))
	}

	if _, ok := l.positions[req.ContractID]; ok {
		l.log.Warn("replacing open lot for same contract", zap.String("contract", req.ContractID))
	}

	l.cash = l.cash.Sub(cost)
	p := &lot{
		Position: broker.Position{
			ID:           req.ContractID,
			Symbol:       req.Symbol,
			OptionSymbol: req.ContractID,
			Quantity:     req.Quantity,
			EntryPrice:   req.Price,
			EntryTime:    req.Time,
			StopLoss:     req.StopLoss,
			TakeProfit:   req.TakeProfit,
		},
		entry: price,
	}
	l.positions[req.ContractID] = p

	l.log.Info("bought",
		zap.String("contract", req.ContractID),
		zap.Int("qty", req.Quantity),
		zap.Float64("price", req.Price),
		zap.String("cash", l.cash.StringFixed(2)))

	return p.Position, nil
}

// ClosePosition sells the whole lot at req.Price and returns the trade
// record. Closing is all-or-nothing.
func (l *Ledger) ClosePosition(ctx context.Context, req broker.CloseRequest) (journal.TradeRecord, error) {
	if !finite(req.Price) || req.Price < 0 {
		l.log.Warn("close rejected: bad price",
			zap.String("position", req.PositionID), zap.Float64("price", req.Price))
		return journal.TradeRecord{}, fmt.Errorf("%w: close price %v", broker.ErrInvalidOrder, req.Price)
	}

	l.mu.Lock()

	p, ok := l.positions[req.PositionID]
	if !ok {
		l.mu.Unlock()
		l.log.Warn("close rejected: position not found", zap.String("position", req.PositionID))
		return journal.TradeRecord{}, fmt.Errorf("%w: %q", broker.ErrPositionNotFound, req.PositionID)
	}

	exit := decimal.NewFromFloat(req.Price)
	qty := decimal.NewFromInt(int64(p.Quantity))
	proceeds := exit.Mul(qty)
	pnl := proceeds.Sub(p.entry.Mul(qty))

	var pnlPct float64
	if !p.entry.IsZero() {
		pnlPct = exit.Div(p.entry).Sub(decimal.NewFromInt(1)).InexactFloat64()
	}

	exitTime := req.Time
	if exitTime.IsZero() {
		exitTime = time.Now()
	}
	reason := req.Reason
	if reason == "" {
		reason = journal.ReasonManual
	}

	rec := journal.TradeRecord{
		TradeID:      id.NewAt(exitTime),
		Symbol:       p.Symbol,
		OptionSymbol: p.OptionSymbol,
		Direction:    journal.DirectionLong,
		EntryTime:    p.EntryTime,
		ExitTime:     exitTime,
		EntryPrice:   p.EntryPrice,
		ExitPrice:    req.Price,
		Quantity:     p.Quantity,
		PnL:          pnl.InexactFloat64(),
		PnLPercent:   pnlPct,
		StopLoss:     p.StopLoss,
		TakeProfit:   p.TakeProfit,
		Reason:       reason,
	}

	l.cash = l.cash.Add(proceeds)
	delete(l.positions, req.PositionID)
	l.history = append(l.history, rec)
	cash := l.cash
	j := l.journal

	l.mu.Unlock()

	l.log.Info("closed",
		zap.String("contract", rec.OptionSymbol),
		zap.String("reason", rec.Reason),
		zap.Int("qty", rec.Quantity),
		zap.Float64("exit", rec.ExitPrice),
		zap.Float64("pnl", rec.PnL),
		zap.String("cash", cash.StringFixed(2)))

	if j != nil {
		if err := j.RecordTrade(rec); err != nil {
			// The close itself already happened; a journal failure must not
			// undo it.
			l.log.Error("journal trade", zap.String("trade_id", rec.TradeID), zap.Error(err))
		}
	}
	return rec, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// History returns a copy of all closed trades in close order.
func (l *Ledger) History() []journal.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]journal.TradeRecord(nil), l.history...)
}
