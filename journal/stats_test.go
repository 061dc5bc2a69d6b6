package journal

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	trades := []TradeRecord{
		{TradeID: "1", OptionSymbol: "SPY_C_400.0_2025-01-10", PnL: 20},
		{TradeID: "2", OptionSymbol: "SPY_P_395.0_2025-01-10", PnL: -30},
		{TradeID: "3", OptionSymbol: "SPY_C_405.0_2025-01-13", PnL: -10},
		{TradeID: "4", OptionSymbol: "SPY_P_390.0_2025-01-13", PnL: 50},
		{TradeID: "5", OptionSymbol: "SPY_C_410.0_2025-01-14", PnL: 0},
	}

	s := Summarize(trades)

	assert.Equal(t, 5, s.Trades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.InDelta(t, 0.4, s.WinRate, 1e-12)
	assert.InDelta(t, 30, s.TotalPnL, 1e-12)
	assert.InDelta(t, 6, s.AvgPnL, 1e-12)
	assert.Equal(t, "4", s.Best.TradeID)
	assert.Equal(t, "2", s.Worst.TradeID)
	assert.InDelta(t, 10, s.CallPnL, 1e-12)
	assert.Equal(t, 3, s.CallTrades)
	assert.InDelta(t, 20, s.PutPnL, 1e-12)
	assert.Equal(t, 2, s.PutTrades)
	assert.InDelta(t, 70, s.GrossProfit, 1e-12)
	assert.InDelta(t, 40, s.GrossLoss, 1e-12)
	assert.InDelta(t, 1.75, s.ProfitFactor, 1e-12)
	// cumulative: 20, -10, -20, 30, 30 -> peak 20, trough -20
	assert.InDelta(t, 40, s.MaxDrawdown, 1e-12)
}

func TestSummarizeEdgeCases(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(nil))

	s := Summarize([]TradeRecord{{PnL: 5}, {PnL: 1}})
	assert.True(t, math.IsInf(s.ProfitFactor, 1))
	assert.Zero(t, s.MaxDrawdown)

	s = Summarize([]TradeRecord{{PnL: 0}})
	assert.Zero(t, s.ProfitFactor)
}

type failingJournal struct{ Memory }

func (f *failingJournal) RecordTrade(TradeRecord) error { return errors.New("disk full") }

func TestMultiFansOut(t *testing.T) {
	a, b := &Memory{}, &Memory{}
	m := Multi{a, b}

	require.NoError(t, m.RecordTrade(sampleTrade()))
	require.NoError(t, m.RecordEquity(EquitySnapshot{Cash: 1}))
	require.NoError(t, m.Close())

	for _, j := range []*Memory{a, b} {
		assert.Len(t, j.Trades, 1)
		assert.Len(t, j.Equity, 1)
		assert.True(t, j.Closed)
	}
}

func TestMultiKeepsWritingAfterError(t *testing.T) {
	bad, good := &failingJournal{}, &Memory{}
	m := Multi{bad, good}

	err := m.RecordTrade(sampleTrade())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, good.Trades, 1)
}

func TestTradeRecordOptionType(t *testing.T) {
	c := TradeRecord{OptionSymbol: "SPY_C_400.0_2025-01-10"}
	p := TradeRecord{OptionSymbol: "SPY_P_400.0_2025-01-10"}
	assert.True(t, c.IsCall())
	assert.False(t, c.IsPut())
	assert.True(t, p.IsPut())
	assert.False(t, p.IsCall())
}
