package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/optsim/config"
	"github.com/rustyeddy/optsim/internal/logx"
	"github.com/rustyeddy/optsim/internal/tracex"
	"github.com/rustyeddy/optsim/journal"
)

var rootCmd = &cobra.Command{
	Use:   "optsim",
	Short: "A bar-driven options trading simulator",
	Long: `optsim replays directional signals against a synthetic option chain.

It provides tools for:
  - Backtesting long call/put entries over historical bars
  - Paper trading the same rules from a polling loop
  - Inspecting the synthetic option chain
  - Querying trade journals and summarizing performance

Settings come from a YAML or JSON config file (see "optsim config init").`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

var (
	cfgPath   string
	logLevel  string
	tracePath string

	cfg *config.Config
	log *zap.Logger

	traceFile     *os.File
	traceShutdown func(context.Context) error
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	// A missing .env is normal.
	_ = godotenv.Load()

	defer func() {
		if traceShutdown != nil {
			if err := traceShutdown(context.Background()); err != nil && log != nil {
				log.Warn("flush traces", zap.Error(err))
			}
			_ = traceFile.Close()
		}
		if log != nil {
			_ = log.Sync()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file, YAML or JSON (env OPTSIM_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (env OPTSIM_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&tracePath, "trace", "", "write OpenTelemetry spans as JSON to this file (env OPTSIM_TRACE)")
}

func setup() error {
	if cfgPath == "" {
		cfgPath = os.Getenv("OPTSIM_CONFIG")
	}
	if logLevel == "" {
		logLevel = os.Getenv("OPTSIM_LOG_LEVEL")
	}
	if tracePath == "" {
		tracePath = os.Getenv("OPTSIM_TRACE")
	}

	if cfgPath != "" {
		c, err := config.LoadFromFile(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
	} else {
		cfg = config.Default()
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	l, err := logx.New(level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	log = l

	if tracePath != "" {
		if err := startTracing(tracePath); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}
	return nil
}

func startTracing(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	shutdown, err := tracex.Init(context.Background(), f, "optsim", version)
	if err != nil {
		_ = f.Close()
		return err
	}
	traceFile, traceShutdown = f, shutdown
	log.Debug("tracing enabled", zap.String("file", path))
	return nil
}

// openJournal builds the journals named by the config. The result may be
// empty when journal.type is "none".
func openJournal(jc config.JournalConfig) (journal.Multi, error) {
	var js journal.Multi
	if jc.UsesCSV() {
		c, err := journal.NewCSV(jc.TradesFile, jc.EquityFile)
		if err != nil {
			return nil, fmt.Errorf("csv journal: %w", err)
		}
		js = append(js, c)
	}
	if jc.UsesSQLite() {
		s, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			_ = js.Close()
			return nil, fmt.Errorf("sqlite journal: %w", err)
		}
		js = append(js, s)
	}
	return js, nil
}

func pickSymbol(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if len(cfg.Symbols) == 0 {
		return "", fmt.Errorf("no symbol given and none configured")
	}
	return cfg.Symbols[0], nil
}
