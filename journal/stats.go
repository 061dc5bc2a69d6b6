package journal

import "math"

// Stats summarizes a list of closed trades.
type Stats struct {
	Trades int
	Wins   int
	Losses int

	WinRate  float64 // 0..1
	TotalPnL float64
	AvgPnL   float64

	Best  TradeRecord
	Worst TradeRecord

	CallPnL    float64
	CallTrades int
	PutPnL     float64
	PutTrades  int

	GrossProfit float64
	GrossLoss   float64 // positive
	// ProfitFactor is GrossProfit/GrossLoss; +Inf when there are wins and
	// no losses, 0 when there are neither.
	ProfitFactor float64

	// MaxDrawdown is the largest peak-to-trough drop of cumulative P&L,
	// in account currency.
	MaxDrawdown float64
}

// Summarize computes Stats over trades in the order given.
func Summarize(trades []TradeRecord) Stats {
	var s Stats
	s.Trades = len(trades)
	if s.Trades == 0 {
		return s
	}

	var cum, peak float64
	for i, t := range trades {
		s.TotalPnL += t.PnL
		switch {
		case t.PnL > 0:
			s.Wins++
			s.GrossProfit += t.PnL
		case t.PnL < 0:
			s.Losses++
			s.GrossLoss -= t.PnL
		}

		if t.IsCall() {
			s.CallPnL += t.PnL
			s.CallTrades++
		}
		if t.IsPut() {
			s.PutPnL += t.PnL
			s.PutTrades++
		}

		if i == 0 || t.PnL > s.Best.PnL {
			s.Best = t
		}
		if i == 0 || t.PnL < s.Worst.PnL {
			s.Worst = t
		}

		cum += t.PnL
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
		}
	}

	s.WinRate = float64(s.Wins) / float64(s.Trades)
	s.AvgPnL = s.TotalPnL / float64(s.Trades)

	switch {
	case s.GrossLoss > 0:
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	case s.GrossProfit > 0:
		s.ProfitFactor = math.Inf(1)
	}
	return s
}
