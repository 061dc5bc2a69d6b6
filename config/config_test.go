package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/optsim/pricing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, 1000.0, cfg.Account.InitialCash)
	assert.Equal(t, 0.20, cfg.Risk.Fraction)
	assert.Equal(t, 5, cfg.Risk.MaxTradesPerDay)
	assert.Equal(t, 50, cfg.Simulation.WarmupBars)
	assert.Equal(t, "09:30-11:00,14:00-16:00", cfg.SessionsString())
	assert.NoError(t, cfg.Validate())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())

	ss, err := cfg.Sessions()
	require.NoError(t, err)
	require.Len(t, ss, 2)
	assert.True(t, ss.Contains(time.Date(2025, 1, 6, 10, 0, 0, 0, loc)))
	assert.False(t, ss.Contains(time.Date(2025, 1, 6, 12, 0, 0, 0, loc)))

	d, err := cfg.Live.ParseInterval()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid config", func(*Config) {}, ""},
		{"zero cash", func(c *Config) { c.Account.InitialCash = 0 }, "account.initial_cash must be positive"},
		{"no symbols", func(c *Config) { c.Symbols = nil }, "symbols must name at least one underlying"},
		{"blank symbol", func(c *Config) { c.Symbols = []string{""} }, "invalid symbol"},
		{"inverted dte", func(c *Config) { c.Chain.DTE.Default = pricing.DTERange{Min: 3, Max: 1} }, "chain.dte.default"},
		{"negative per-symbol dte", func(c *Config) {
			c.Chain.DTE.PerSymbol = map[string]pricing.DTERange{"TSLA": {Min: -1, Max: 2}}
		}, "chain.dte.per_symbol.TSLA"},
		{"fraction too large", func(c *Config) { c.Risk.Fraction = 1.5 }, "risk.fraction"},
		{"negative warmup", func(c *Config) { c.Simulation.WarmupBars = -1 }, "simulation.warmup_bars"},
		{"unknown timezone", func(c *Config) { c.Simulation.Timezone = "Mars/Olympus" }, "simulation.timezone"},
		{"bad session", func(c *Config) { c.Simulation.Sessions = []SessionConfig{{Start: "11:00", End: "09:30"}} }, "simulation.sessions[0]"},
		{"bad interval", func(c *Config) { c.Live.PollInterval = "soon" }, "live.poll_interval"},
		{"bad journal type", func(c *Config) { c.Journal.Type = "xml" }, "journal.type"},
		{"csv without trades file", func(c *Config) { c.Journal.Type = "csv"; c.Journal.TradesFile = "" }, "trades_file required"},
		{"sqlite without db", func(c *Config) { c.Journal.Type = "sqlite"; c.Journal.DBPath = "" }, "db_path required"},
		{"none needs nothing", func(c *Config) { c.Journal = JournalConfig{Type: "none"} }, ""},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Simulation.Seed = 42
			cfg.Chain.DTE.PerSymbol["TSLA"] = pricing.DTERange{Min: 1, Max: 7}
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))
			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			assert.Equal(t, cfg.Account, loaded.Account)
			assert.Equal(t, cfg.Risk, loaded.Risk)
			assert.Equal(t, cfg.Simulation, loaded.Simulation)
			assert.Equal(t, cfg.Journal, loaded.Journal)
			assert.Equal(t, pricing.DTERange{Min: 1, Max: 7}, loaded.Chain.DTE.Range("TSLA"))
		})
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := `
account:
  initial_cash: 5000
risk:
  fraction: 0.1
simulation:
  timezone: UTC
  sessions:
    - start: "10:00"
      end: "15:00"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 5000.0, cfg.Account.InitialCash)
	assert.Equal(t, 0.1, cfg.Risk.Fraction)
	assert.Equal(t, 0.10, cfg.Risk.StopLoss.Min)
	assert.Equal(t, 50, cfg.Simulation.WarmupBars)
	assert.Equal(t, "10:00-15:00", cfg.SessionsString())
}

func TestLoadInvalid(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  initial_cash: -5\n"), 0644))
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		interval string
		expected string
		wantErr  bool
	}{
		{"1h", "1h0m0s", false},
		{"30m", "30m0s", false},
		{"60s", "1m0s", false},
		{"", "0s", false},
		{"invalid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.interval, func(t *testing.T) {
			d, err := LiveConfig{PollInterval: tt.interval}.ParseInterval()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, d.String())
			}
		})
	}
}
