// Package risk sizes positions and draws per-trade stop and take-profit
// levels.
package risk

import "fmt"

// Rand is the random source for stop/take draws. *math/rand.Rand satisfies
// it; tests pass a fixed stub.
type Rand interface {
	Float64() float64
}

// Bounds is an inclusive-exclusive fractional range [Min, Max).
type Bounds struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Draw returns a uniform value in [Min, Max). A nil source returns Min.
func (b Bounds) Draw(r Rand) float64 {
	if r == nil {
		return b.Min
	}
	return b.Min + r.Float64()*(b.Max-b.Min)
}

func (b Bounds) String() string {
	return fmt.Sprintf("%.1f-%.1f", 100*b.Min, 100*b.Max)
}

type Policy struct {
	// Fraction of cash committed to each new position. 0.20 = 20%.
	Fraction float64 `yaml:"fraction" json:"fraction"`

	// StopLoss is a fractional loss below entry; 0.15 places the stop at
	// 85% of the entry price.
	StopLoss Bounds `yaml:"stop_loss" json:"stop_loss"`

	// TakeProfit is a fractional gain above entry; 1.0 doubles it.
	TakeProfit Bounds `yaml:"take_profit" json:"take_profit"`

	MaxTradesPerDay int `yaml:"max_trades_per_day" json:"max_trades_per_day"`
}

func DefaultPolicy() Policy {
	return Policy{
		Fraction:        0.20,
		StopLoss:        Bounds{Min: 0.10, Max: 0.20},
		TakeProfit:      Bounds{Min: 0.50, Max: 5.00},
		MaxTradesPerDay: 5,
	}
}

func (p Policy) Validate() error {
	if p.Fraction <= 0 || p.Fraction > 1 {
		return fmt.Errorf("risk.fraction must be in (0, 1], got %v", p.Fraction)
	}
	if p.StopLoss.Min < 0 || p.StopLoss.Max < p.StopLoss.Min || p.StopLoss.Max >= 1 {
		return fmt.Errorf("risk.stop_loss must satisfy 0 <= min <= max < 1, got %v-%v",
			p.StopLoss.Min, p.StopLoss.Max)
	}
	if p.TakeProfit.Min < 0 || p.TakeProfit.Max < p.TakeProfit.Min {
		return fmt.Errorf("risk.take_profit must satisfy 0 <= min <= max, got %v-%v",
			p.TakeProfit.Min, p.TakeProfit.Max)
	}
	if p.MaxTradesPerDay < 0 {
		return fmt.Errorf("risk.max_trades_per_day must not be negative")
	}
	return nil
}

// Levels returns the stop-loss and take-profit prices for an entry at
// price, drawing one value from each range.
func (p Policy) Levels(price float64, r Rand) (stop, take float64) {
	stop = price * (1 - p.StopLoss.Draw(r))
	take = price * (1 + p.TakeProfit.Draw(r))
	return stop, take
}
