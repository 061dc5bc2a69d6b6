package broker

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/optsim/journal"
)

// Rejections. None of these is fatal to a simulation; callers log and move on.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnsupportedSide   = errors.New("unsupported order side")
	ErrPositionNotFound  = errors.New("position not found")
	ErrInvalidOrder      = errors.New("invalid order")
)

// Broker is the capability the simulation core depends on. The paper
// ledger implements it; a live brokerage would too.
type Broker interface {
	// Balance is cash only; unrealized P&L is not included.
	Balance(ctx context.Context) (float64, error)
	// Positions returns a snapshot; mutating it does not affect the broker.
	Positions(ctx context.Context) ([]Position, error)
	PlaceOrder(ctx context.Context, req OrderRequest) (Position, error)
	ClosePosition(ctx context.Context, req CloseRequest) (journal.TradeRecord, error)
}

type Side int8

const (
	Buy  Side = +1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// Position is an open long option lot. ID is the contract identifier, so an
// account holds at most one lot per contract.
type Position struct {
	ID           string
	Symbol       string // underlying
	OptionSymbol string
	Quantity     int
	EntryPrice   float64
	EntryTime    time.Time
	StopLoss     float64
	TakeProfit   float64
}

// Cost is quantity times entry price.
func (p Position) Cost() float64 {
	return float64(p.Quantity) * p.EntryPrice
}

type OrderRequest struct {
	ContractID string
	Symbol     string // underlying
	Quantity   int
	Side       Side
	Price      float64
	Time       time.Time
	StopLoss   float64
	TakeProfit float64
}

type CloseRequest struct {
	PositionID string
	Price      float64
	Time       time.Time
	Reason     string
}
