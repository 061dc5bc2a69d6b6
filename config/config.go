package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/optsim/market"
	"github.com/rustyeddy/optsim/pricing"
	"github.com/rustyeddy/optsim/risk"
)

// Config represents the complete simulation configuration
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Symbols    []string         `json:"symbols" yaml:"symbols"`
	Chain      ChainConfig      `json:"chain" yaml:"chain"`
	Risk       risk.Policy      `json:"risk" yaml:"risk"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Live       LiveConfig       `json:"live" yaml:"live"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

type AccountConfig struct {
	InitialCash float64 `json:"initial_cash" yaml:"initial_cash"`
}

type ChainConfig struct {
	DTE pricing.DTETable `json:"dte" yaml:"dte"`
}

// SessionConfig is one entry window, clock times in the simulation
// timezone, both ends inclusive.
type SessionConfig struct {
	Start string `json:"start" yaml:"start"` // "09:30"
	End   string `json:"end" yaml:"end"`     // "11:00"
}

type SimulationConfig struct {
	WarmupBars int             `json:"warmup_bars" yaml:"warmup_bars"`
	Timezone   string          `json:"timezone" yaml:"timezone"`
	Sessions   []SessionConfig `json:"sessions" yaml:"sessions"`
	// Seed for stop/take draws. Zero picks a time-based seed.
	Seed       int64 `json:"seed" yaml:"seed"`
	CloseAtEnd bool  `json:"close_at_end,omitempty" yaml:"close_at_end,omitempty"`
}

type LiveConfig struct {
	PollInterval string `json:"poll_interval" yaml:"poll_interval"` // e.g. "60s", "5m"
}

// ParseInterval converts the poll interval string to time.Duration.
func (lc LiveConfig) ParseInterval() (time.Duration, error) {
	if lc.PollInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(lc.PollInterval)
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite", "both" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

func (jc JournalConfig) UsesCSV() bool    { return jc.Type == "csv" || jc.Type == "both" }
func (jc JournalConfig) UsesSQLite() bool { return jc.Type == "sqlite" || jc.Type == "both" }

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "console" or "json"
}

// LoadFromFile loads configuration from a YAML or JSON file. Keys missing
// from the file keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.InitialCash <= 0 {
		return fmt.Errorf("account.initial_cash must be positive")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must name at least one underlying")
	}
	for _, s := range c.Symbols {
		if s == "" || strings.Contains(s, " ") {
			return fmt.Errorf("invalid symbol %q", s)
		}
	}
	if err := validDTE("chain.dte.default", c.Chain.DTE.Default); err != nil {
		return err
	}
	for sym, r := range c.Chain.DTE.PerSymbol {
		if err := validDTE("chain.dte.per_symbol."+sym, r); err != nil {
			return err
		}
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	if c.Simulation.WarmupBars < 0 {
		return fmt.Errorf("simulation.warmup_bars must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Sessions(); err != nil {
		return err
	}
	if d, err := c.Live.ParseInterval(); err != nil {
		return fmt.Errorf("live.poll_interval: %w", err)
	} else if d < 0 {
		return fmt.Errorf("live.poll_interval must not be negative")
	}
	switch c.Journal.Type {
	case "csv", "sqlite", "both", "none":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite', 'both' or 'none'")
	}
	if c.Journal.UsesCSV() && c.Journal.TradesFile == "" {
		return fmt.Errorf("journal trades_file required for CSV type")
	}
	if c.Journal.UsesSQLite() && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be 'console' or 'json'")
	}
	return nil
}

func validDTE(key string, r pricing.DTERange) error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("%s must satisfy 0 <= min <= max, got %d-%d", key, r.Min, r.Max)
	}
	return nil
}

// Location resolves simulation.timezone. Empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Simulation.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Simulation.Timezone)
	if err != nil {
		return nil, fmt.Errorf("simulation.timezone: %w", err)
	}
	return loc, nil
}

// Sessions parses the configured entry windows.
func (c *Config) Sessions() (market.Sessions, error) {
	out := make(market.Sessions, 0, len(c.Simulation.Sessions))
	for i, sc := range c.Simulation.Sessions {
		s, err := market.NewSession(sc.Start, sc.End)
		if err != nil {
			return nil, fmt.Errorf("simulation.sessions[%d]: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// SessionsString renders windows as "09:30-11:00,14:00-16:00".
func (c *Config) SessionsString() string {
	parts := make([]string, 0, len(c.Simulation.Sessions))
	for _, sc := range c.Simulation.Sessions {
		parts = append(parts, sc.Start+"-"+sc.End)
	}
	return strings.Join(parts, ",")
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{InitialCash: 1000},
		Symbols: []string{"SPY", "IWM", "AAPL", "NVDA", "TSLA"},
		Chain: ChainConfig{
			DTE: pricing.DTETable{
				Default: pricing.DTERange{Min: 0, Max: 4},
				PerSymbol: map[string]pricing.DTERange{
					"SPY": {Min: 0, Max: 4},
					"IWM": {Min: 0, Max: 4},
				},
			},
		},
		Risk: risk.DefaultPolicy(),
		Simulation: SimulationConfig{
			WarmupBars: 50,
			Timezone:   "America/New_York",
			Sessions: []SessionConfig{
				{Start: "09:30", End: "11:00"},
				{Start: "14:00", End: "16:00"},
			},
		},
		Live: LiveConfig{PollInterval: "60s"},
		Journal: JournalConfig{
			Type:       "both",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
			DBPath:     "./optsim.db",
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}
