// journal/journal.go
package journal

import (
	"errors"
	"strings"
	"time"
)

// Direction is always LONG: only buy-to-open is supported.
const DirectionLong = "LONG"

// Close reasons.
const (
	ReasonExpired    = "Expired"
	ReasonStopLoss   = "StopLoss"
	ReasonTakeProfit = "TakeProfit"
	ReasonManual     = "Manual"
)

// TradeRecord is the immutable snapshot of a closed position.
type TradeRecord struct {
	TradeID      string
	Symbol       string
	OptionSymbol string
	Direction    string
	EntryTime    time.Time
	ExitTime     time.Time
	EntryPrice   float64
	ExitPrice    float64
	Quantity     int
	PnL          float64
	PnLPercent   float64
	StopLoss     float64
	TakeProfit   float64
	Reason       string
}

// IsCall reports whether the record's contract is a call, from its id.
func (t TradeRecord) IsCall() bool { return strings.Contains(t.OptionSymbol, "_C_") }

// IsPut reports whether the record's contract is a put, from its id.
func (t TradeRecord) IsPut() bool { return strings.Contains(t.OptionSymbol, "_P_") }

// EquitySnapshot is cash plus open positions marked at the synthetic quote.
type EquitySnapshot struct {
	Time          time.Time
	Cash          float64
	Equity        float64
	OpenPositions int
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Multi writes every record to each journal in order.
type Multi []Journal

func (m Multi) RecordTrade(t TradeRecord) error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.RecordTrade(t))
	}
	return errors.Join(errs...)
}

func (m Multi) RecordEquity(e EquitySnapshot) error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.RecordEquity(e))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.Close())
	}
	return errors.Join(errs...)
}

// Memory keeps records in slices.
type Memory struct {
	Trades []TradeRecord
	Equity []EquitySnapshot
	Closed bool
}

func (m *Memory) RecordTrade(t TradeRecord) error {
	m.Trades = append(m.Trades, t)
	return nil
}

func (m *Memory) RecordEquity(e EquitySnapshot) error {
	m.Equity = append(m.Equity, e)
	return nil
}

func (m *Memory) Close() error {
	m.Closed = true
	return nil
}
