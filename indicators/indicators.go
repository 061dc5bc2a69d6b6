// Package indicators provides streaming technical indicators over bars.
package indicators

import "github.com/rustyeddy/optsim/market"

// Indicator computes a single streaming value from bars.
// It is deterministic and safe to use in live and backtest runs.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	// Value is 0 until Ready.
	Value() float64
}
