// Package strategies holds built-in signal generators for bar files that
// carry no precomputed signal column.
package strategies

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rustyeddy/optsim/indicators"
	"github.com/rustyeddy/optsim/market"
)

// Moving average kinds accepted by Parse.
const (
	KindEMA = "ema"
	KindSMA = "sma"
)

// MACross is bullish while the fast average is above the slow one and
// bearish while it is below. It is neutral until both are warmed up.
type MACross struct {
	Kind string // KindEMA or KindSMA
	Fast int
	Slow int
}

func (c MACross) Validate() error {
	if c.Kind != KindEMA && c.Kind != KindSMA {
		return fmt.Errorf("unknown moving average %q (want ema or sma)", c.Kind)
	}
	if c.Fast <= 0 || c.Slow <= 0 {
		return fmt.Errorf("%s periods must be positive, got %d/%d", c.Kind, c.Fast, c.Slow)
	}
	if c.Fast >= c.Slow {
		return fmt.Errorf("fast period %d must be shorter than slow period %d", c.Fast, c.Slow)
	}
	return nil
}

func (c MACross) String() string {
	return fmt.Sprintf("%s:%d,%d", c.Kind, c.Fast, c.Slow)
}

func (c MACross) batch() func([]market.Bar, int) (float64, error) {
	if c.Kind == KindSMA {
		return indicators.MA
	}
	return indicators.EMA
}

func (c MACross) stream(period int) indicators.Indicator {
	if c.Kind == KindSMA {
		return indicators.NewMA(period)
	}
	return indicators.NewEMA(period)
}

// Predict returns the signal as of the last bar.
func (c MACross) Predict(ctx context.Context, bars []market.Bar) (market.Signal, error) {
	if err := c.Validate(); err != nil {
		return market.Neutral, err
	}
	if len(bars) < c.Slow {
		return market.Neutral, nil
	}
	avg := c.batch()
	fast, err := avg(bars, c.Fast)
	if err != nil {
		return market.Neutral, err
	}
	slow, err := avg(bars, c.Slow)
	if err != nil {
		return market.Neutral, err
	}
	return compare(fast, slow), nil
}

// Annotate overwrites each bar's Signal with the crossover state as of that
// bar. bars is modified in place.
func (c MACross) Annotate(bars []market.Bar) error {
	if err := c.Validate(); err != nil {
		return err
	}
	fast, slow := c.stream(c.Fast), c.stream(c.Slow)
	for i := range bars {
		fast.Update(bars[i])
		slow.Update(bars[i])
		if !fast.Ready() || !slow.Ready() {
			bars[i].Signal = market.Neutral
			continue
		}
		bars[i].Signal = compare(fast.Value(), slow.Value())
	}
	return nil
}

func compare(fast, slow float64) market.Signal {
	switch {
	case fast > slow:
		return market.Bullish
	case fast < slow:
		return market.Bearish
	}
	return market.Neutral
}

// Parse reads "ema:FAST,SLOW" or "sma:FAST,SLOW". The empty string
// returns nil.
func Parse(s string) (*MACross, error) {
	if s == "" {
		return nil, nil
	}
	kind, args, ok := strings.Cut(s, ":")
	if !ok || (kind != KindEMA && kind != KindSMA) {
		return nil, fmt.Errorf("unknown signal generator %q (want ema:FAST,SLOW or sma:FAST,SLOW)", s)
	}
	a, b, ok := strings.Cut(args, ",")
	if !ok {
		return nil, fmt.Errorf("signal generator %q: want %s:FAST,SLOW", s, kind)
	}
	fast, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return nil, fmt.Errorf("signal generator %q: fast period: %w", s, err)
	}
	slow, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return nil, fmt.Errorf("signal generator %q: slow period: %w", s, err)
	}
	c := &MACross{Kind: kind, Fast: fast, Slow: slow}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
