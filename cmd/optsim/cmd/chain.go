package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/optsim/pricing"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the synthetic option chain",
	Long: `Print the synthetic chain the simulator would quote for an underlying
price on a date.

Example:
  optsim chain --symbol SPY --price 400 --date 2025-01-06 --type call`,
	RunE: runChain,
}

var (
	chainSymbol string
	chainPrice  float64
	chainDate   string
	chainType   string
)

func init() {
	rootCmd.AddCommand(chainCmd)

	chainCmd.Flags().StringVarP(&chainSymbol, "symbol", "s", "", "underlying symbol (default: first configured)")
	chainCmd.Flags().Float64VarP(&chainPrice, "price", "p", 0, "underlying price (required)")
	chainCmd.Flags().StringVarP(&chainDate, "date", "d", "", "valuation date YYYY-MM-DD (default: today)")
	chainCmd.Flags().StringVarP(&chainType, "type", "t", "", "only show call or put")
	chainCmd.MarkFlagRequired("price")
}

func runChain(cmd *cobra.Command, args []string) error {
	symbol, err := pickSymbol(chainSymbol)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	at := time.Now().In(loc)
	if chainDate != "" {
		at, err = time.ParseInLocation("2006-01-02", chainDate, loc)
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
	}

	chain := pricing.Pricer{DTE: cfg.Chain.DTE}.Chain(symbol, chainPrice, at)
	switch strings.ToLower(chainType) {
	case "":
	case "call", "c":
		chain = chain.Filter(pricing.Call)
	case "put", "p":
		chain = chain.Filter(pricing.Put)
	default:
		return fmt.Errorf("type must be call or put")
	}

	if len(chain) == 0 {
		fmt.Println("empty chain")
		return nil
	}

	fmt.Printf("%-28s %4s %5s %9s %8s\n", "CONTRACT", "TYPE", "DTE", "STRIKE", "PRICE")
	for _, c := range chain {
		fmt.Printf("%-28s %4s %5d %9.1f %8.2f\n", c.ID, c.Type.Code(), c.DTE, c.Strike, c.Price)
	}
	return nil
}
