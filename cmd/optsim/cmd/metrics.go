package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/optsim/journal"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Summarize closed trades",
	Long: `Print win rate, P&L, call/put split, profit factor and drawdown for a
trades CSV or the SQLite journal.

Examples:
  optsim metrics --trades trades.csv
  optsim metrics --db optsim.db --symbol SPY`,
	RunE: runMetrics,
}

var (
	metricsTrades string
	metricsDB     string
	metricsSymbol string
)

func init() {
	rootCmd.AddCommand(metricsCmd)

	metricsCmd.Flags().StringVar(&metricsTrades, "trades", "", "trades CSV file")
	metricsCmd.Flags().StringVar(&metricsDB, "db", "", "SQLite journal DB")
	metricsCmd.Flags().StringVarP(&metricsSymbol, "symbol", "s", "", "only trades on this underlying")
	metricsCmd.MarkFlagsMutuallyExclusive("trades", "db")
}

func loadTrades() ([]journal.TradeRecord, string, error) {
	switch {
	case metricsTrades != "":
		recs, err := journal.ReadTradesCSV(metricsTrades)
		return filterSymbol(recs, metricsSymbol), metricsTrades, err
	case metricsDB != "":
		j, err := journal.NewSQLite(metricsDB)
		if err != nil {
			return nil, "", err
		}
		defer j.Close()
		recs, err := j.ListTrades(metricsSymbol)
		return recs, metricsDB, err
	}
	recs, err := journal.ReadTradesCSV(cfg.Journal.TradesFile)
	return filterSymbol(recs, metricsSymbol), cfg.Journal.TradesFile, err
}

// filterSymbol keeps trades on the given underlying. An empty symbol keeps
// everything.
func filterSymbol(recs []journal.TradeRecord, symbol string) []journal.TradeRecord {
	if symbol == "" {
		return recs
	}
	out := recs[:0:0]
	for _, r := range recs {
		if r.Symbol == symbol {
			out = append(out, r)
		}
	}
	return out
}

func runMetrics(cmd *cobra.Command, args []string) error {
	recs, src, err := loadTrades()
	if err != nil {
		return fmt.Errorf("load trades: %w", err)
	}
	if len(recs) == 0 {
		fmt.Printf("No trades in %s\n", src)
		return nil
	}

	s := journal.Summarize(recs)
	pf := fmt.Sprintf("%.2f", s.ProfitFactor)
	if math.IsInf(s.ProfitFactor, 1) {
		pf = "inf"
	}

	fmt.Printf("Trades from %s\n", src)
	fmt.Printf("  Total Trades:   %d\n", s.Trades)
	fmt.Printf("  Wins / Losses:  %d / %d\n", s.Wins, s.Losses)
	fmt.Printf("  Win Rate:       %.2f%%\n", 100*s.WinRate)
	fmt.Printf("  Total PnL:      $%.2f\n", s.TotalPnL)
	fmt.Printf("  Average PnL:    $%.2f\n", s.AvgPnL)
	fmt.Printf("  Best Trade:     $%.2f (%s)\n", s.Best.PnL, s.Best.OptionSymbol)
	fmt.Printf("  Worst Trade:    $%.2f (%s)\n", s.Worst.PnL, s.Worst.OptionSymbol)
	fmt.Printf("  Calls:          %d trades, $%.2f\n", s.CallTrades, s.CallPnL)
	fmt.Printf("  Puts:           %d trades, $%.2f\n", s.PutTrades, s.PutPnL)
	fmt.Printf("  Profit Factor:  %s\n", pf)
	fmt.Printf("  Max Drawdown:   $%.2f\n", s.MaxDrawdown)
	return nil
}
