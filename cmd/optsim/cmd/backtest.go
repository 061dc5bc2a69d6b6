package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/optsim/backtest"
	"github.com/rustyeddy/optsim/broker/paper"
	"github.com/rustyeddy/optsim/internal/id"
	"github.com/rustyeddy/optsim/journal"
	"github.com/rustyeddy/optsim/market"
	"github.com/rustyeddy/optsim/pricing"
	"github.com/rustyeddy/optsim/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay a bars CSV through the simulator",
	Long: `Run the bar simulation over a CSV of bars with a signal column.

The CSV header is time,open,high,low,close,volume[,signal]. With --signals
the signal column is recomputed from closes instead. Bars before
simulation.warmup_bars are skipped; entries only happen inside the configured
sessions.

Examples:
  optsim backtest --bars data/spy_1h.csv --symbol SPY
  optsim backtest --bars data/spy_1h.csv --seed 7 --org runs/spy.org`,
	RunE: runBacktest,
}

var (
	btBars       string
	btSymbol     string
	btSeed       int64
	btOrg        string
	btCloseAtEnd bool
	btSignals    string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btBars, "bars", "b", "", "bars CSV file (required)")
	backtestCmd.Flags().StringVarP(&btSymbol, "symbol", "s", "", "underlying symbol (default: first configured)")
	backtestCmd.Flags().Int64Var(&btSeed, "seed", 0, "seed for stop/take draws (overrides config)")
	backtestCmd.Flags().StringVar(&btOrg, "org", "", "write an Org summary of the run to this file")
	backtestCmd.Flags().BoolVar(&btCloseAtEnd, "close-at-end", false, "close open positions after the last bar")
	backtestCmd.Flags().StringVar(&btSignals, "signals", "", "recompute bar signals, ema:F,S or sma:F,S (default: use the CSV signal column)")
	backtestCmd.MarkFlagRequired("bars")
}

func seedFor(flag int64) int64 {
	switch {
	case flag != 0:
		return flag
	case cfg.Simulation.Seed != 0:
		return cfg.Simulation.Seed
	}
	return time.Now().UnixNano()
}

func runBacktest(cmd *cobra.Command, args []string) error {
	symbol, err := pickSymbol(btSymbol)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	sessions, err := cfg.Sessions()
	if err != nil {
		return err
	}

	bars, err := market.LoadBarsCSV(btBars, loc)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	gen, err := strategies.Parse(btSignals)
	if err != nil {
		return err
	}
	if gen != nil {
		if err := gen.Annotate(bars); err != nil {
			return err
		}
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer j.Close()

	seed := seedFor(btSeed)
	ledger := paper.New(cfg.Account.InitialCash, paper.WithJournal(j), paper.WithLogger(log))

	eng := &backtest.Engine{
		Symbol:     symbol,
		WarmupBars: cfg.Simulation.WarmupBars,
		Sessions:   sessions,
		Location:   loc,
		Pricer:     pricing.Pricer{DTE: cfg.Chain.DTE},
		Broker:     ledger,
		Policy:     cfg.Risk,
		Rand:       rand.New(rand.NewSource(seed)),
		Journal:    j,
		Options:    backtest.Options{CloseAtEnd: btCloseAtEnd || cfg.Simulation.CloseAtEnd},
		Log:        log,
	}

	fmt.Printf("Backtesting %s on %s (%d bars, seed %d)\n", symbol, btBars, len(bars), seed)
	fmt.Printf("  Cash: $%.2f  Risk: %.0f%%  Sessions: %s\n\n",
		cfg.Account.InitialCash, cfg.Risk.Fraction*100, cfg.SessionsString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := eng.Run(ctx, bars)
	if err != nil {
		log.Warn("backtest interrupted", zap.Error(err))
	}

	printResult(res)

	if btOrg != "" {
		dte := cfg.Chain.DTE.Range(symbol)
		run := journal.BacktestRun{
			RunID:           res.RunID,
			Created:         time.Now(),
			Dataset:         btBars,
			Symbol:          symbol,
			RiskFraction:    cfg.Risk.Fraction,
			StopLossMin:     cfg.Risk.StopLoss.Min,
			StopLossMax:     cfg.Risk.StopLoss.Max,
			TakeProfitMin:   cfg.Risk.TakeProfit.Min,
			TakeProfitMax:   cfg.Risk.TakeProfit.Max,
			MaxTradesPerDay: cfg.Risk.MaxTradesPerDay,
			Sessions:        cfg.SessionsString(),
			DTE:             fmt.Sprintf("%d-%d", dte.Min, dte.Max),
			Seed:            seed,
			Start:           res.Start,
			End:             res.End,
			StartCash:       res.StartCash,
			EndCash:         res.EndCash,
			OpenAtEnd:       len(res.Open),
			Stats:           res.Stats(),
		}
		if run.RunID == "" {
			run.RunID = id.New()
		}
		if err := run.WriteOrg(btOrg); err != nil {
			return fmt.Errorf("write org: %w", err)
		}
		fmt.Printf("\nOrg summary written to %s\n", btOrg)
	}
	return err
}

func printResult(res backtest.Result) {
	s := res.Stats()
	fmt.Printf("Run %s\n", res.RunID)
	if !res.Start.IsZero() {
		fmt.Printf("  Period:     %s .. %s\n", res.Start.Format(time.RFC3339), res.End.Format(time.RFC3339))
	}
	fmt.Printf("  Bars:       %d (%d processed)\n", res.Bars, res.Processed)
	fmt.Printf("  Trades:     %d (%d wins, %d losses, %.1f%% win rate)\n",
		s.Trades, s.Wins, s.Losses, 100*s.WinRate)
	fmt.Printf("  Total P&L:  $%.2f (calls $%.2f, puts $%.2f)\n", s.TotalPnL, s.CallPnL, s.PutPnL)
	fmt.Printf("  Max DD:     $%.2f\n", s.MaxDrawdown)
	fmt.Printf("  Cash:       $%.2f -> $%.2f (%.2f%%)\n", res.StartCash, res.EndCash, res.ReturnPct())
	if len(res.Open) > 0 {
		fmt.Printf("  Still open: %d\n", len(res.Open))
		for _, p := range res.Open {
			fmt.Printf("    %s x%d @ %.2f\n", p.ID, p.Quantity, p.EntryPrice)
		}
	}
}
