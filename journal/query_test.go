package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	want := sampleTrade()
	require.NoError(t, j.RecordTrade(want))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)

	assert.Equal(t, want.TradeID, got.TradeID)
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.Equal(t, want.OptionSymbol, got.OptionSymbol)
	assert.Equal(t, want.Direction, got.Direction)
	assert.Equal(t, want.Quantity, got.Quantity)
	assert.InDelta(t, want.EntryPrice, got.EntryPrice, 1e-9)
	assert.InDelta(t, want.ExitPrice, got.ExitPrice, 1e-9)
	assert.InDelta(t, want.PnL, got.PnL, 1e-9)
	assert.InDelta(t, want.PnLPercent, got.PnLPercent, 1e-9)
	assert.InDelta(t, want.StopLoss, got.StopLoss, 1e-9)
	assert.InDelta(t, want.TakeProfit, got.TakeProfit, 1e-9)
	assert.True(t, got.EntryTime.Equal(want.EntryTime))
	assert.True(t, got.ExitTime.Equal(want.ExitTime))
	assert.Equal(t, want.Reason, got.Reason)
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetTrade("nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func seedTrades(t *testing.T, j *SQLite) []TradeRecord {
	t.Helper()

	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	trades := []TradeRecord{
		{TradeID: "A", Symbol: "SPY", OptionSymbol: "SPY_C_400.0_2025-01-10", Direction: DirectionLong, EntryTime: day.Add(10 * time.Hour), ExitTime: day.Add(15 * time.Hour), Quantity: 10, PnL: 5},
		{TradeID: "B", Symbol: "IWM", OptionSymbol: "IWM_P_210.0_2025-01-10", Direction: DirectionLong, EntryTime: day.Add(34 * time.Hour), ExitTime: day.Add(38 * time.Hour), Quantity: 20, PnL: -3},
		{TradeID: "C", Symbol: "SPY", OptionSymbol: "SPY_P_395.0_2025-01-10", Direction: DirectionLong, EntryTime: day.Add(58 * time.Hour), ExitTime: day.Add(62 * time.Hour), Quantity: 5, PnL: 7},
	}
	for _, tr := range trades {
		require.NoError(t, j.RecordTrade(tr))
	}
	return trades
}

func TestListTrades(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	seedTrades(t, j)

	all, err := j.ListTrades("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{all[0].TradeID, all[1].TradeID, all[2].TradeID})

	spy, err := j.ListTrades("SPY")
	require.NoError(t, err)
	require.Len(t, spy, 2)
	assert.Equal(t, "A", spy[0].TradeID)
	assert.Equal(t, "C", spy[1].TradeID)

	none, err := j.ListTrades("TSLA")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	seedTrades(t, j)

	start := time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	got, err := j.ListTradesClosedBetween(start, end)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].TradeID)

	// end is exclusive
	got, err = j.ListTradesClosedBetween(start, got[0].ExitTime)
	require.NoError(t, err)
	assert.Empty(t, got)
}
