package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/optsim/broker/paper"
	"github.com/rustyeddy/optsim/live"
	"github.com/rustyeddy/optsim/pricing"
	"github.com/rustyeddy/optsim/strategies"
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Paper trade from a polled bars file",
	Long: `Poll a bars CSV on an interval and paper trade the latest signal.

Another process is expected to keep appending bars (with a signal column) to
the file. Exits are checked on every weekday poll; entries only inside the
configured sessions, using wall-clock time in simulation.timezone.

Example:
  optsim live --bars data/spy_live.csv --symbol SPY`,
	RunE: runLive,
}

var (
	liveBars     string
	liveSymbol   string
	liveInterval string
	liveSignals  string
)

func init() {
	rootCmd.AddCommand(liveCmd)

	liveCmd.Flags().StringVarP(&liveBars, "bars", "b", "", "bars CSV file to poll (required)")
	liveCmd.Flags().StringVarP(&liveSymbol, "symbol", "s", "", "underlying symbol (default: first configured)")
	liveCmd.Flags().StringVar(&liveInterval, "interval", "", "poll interval (overrides live.poll_interval)")
	liveCmd.Flags().StringVar(&liveSignals, "signals", "", "compute the signal, ema:F,S or sma:F,S (default: last bar's signal column)")
	liveCmd.MarkFlagRequired("bars")
}

func runLive(cmd *cobra.Command, args []string) error {
	symbol, err := pickSymbol(liveSymbol)
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

	lc := cfg.Live
	if liveInterval != "" {
		lc.PollInterval = liveInterval
	}
	interval, err := lc.ParseInterval()
	if err != nil {
		return fmt.Errorf("interval: %w", err)
	}

	var predictor live.Predictor = live.LastSignal{}
	gen, err := strategies.Parse(liveSignals)
	if err != nil {
		return err
	}
	if gen != nil {
		predictor = gen
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer j.Close()

	ledger := paper.New(cfg.Account.InitialCash, paper.WithJournal(j), paper.WithLogger(log))
	trader := &live.Trader{
		Symbol:    symbol,
		Source:    live.CSVSource{Path: liveBars, Location: loc},
		Predictor: predictor,
		Pricer:    pricing.Pricer{DTE: cfg.Chain.DTE},
		Broker:    ledger,
		Policy:    cfg.Risk,
		Rand:      rand.New(rand.NewSource(seedFor(0))),
		Sessions:  sessions,
		Location:  loc,
		Journal:   j,
		Interval:  interval,
		Log:       log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Paper trading %s from %s (Ctrl-C to stop)\n", symbol, liveBars)
	if err := trader.Run(ctx); err != nil {
		return err
	}

	cash, _ := ledger.Balance(context.Background())
	fmt.Printf("\nStopped. Cash: $%.2f, closed trades: %d\n", cash, len(ledger.History()))
	return nil
}
