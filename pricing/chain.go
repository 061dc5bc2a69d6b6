package pricing

import (
	"math"
	"time"
)

// MinPrice is the floor applied to every synthetic quote.
const MinPrice = 0.01

// DTERange is an inclusive days-to-expiration range.
type DTERange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// DTETable holds per-symbol DTE ranges with a fallback.
type DTETable struct {
	Default   DTERange            `json:"default" yaml:"default"`
	PerSymbol map[string]DTERange `json:"per_symbol,omitempty" yaml:"per_symbol,omitempty"`
}

// Range returns the symbol's range, or the default.
func (t DTETable) Range(symbol string) DTERange {
	if r, ok := t.PerSymbol[symbol]; ok {
		return r
	}
	return t.Default
}

// StrikeStep is 1.0 below 100 and 5.0 otherwise.
func StrikeStep(underlying float64) float64 {
	if underlying < 100 {
		return 1.0
	}
	return 5.0
}

// MaxStrikes bounds the grid size. Prices whose ±5% band would need more
// strikes produce an empty grid.
const MaxStrikes = 10000

// Strikes returns the grid from floor(0.95*S) to floor(1.05*S) inclusive,
// stepping from the lower bound.
func Strikes(underlying float64) []float64 {
	if underlying <= 0 || math.IsNaN(underlying) || math.IsInf(underlying, 0) {
		return nil
	}
	step := StrikeStep(underlying)
	lo := math.Floor(underlying * 0.95)
	hi := math.Floor(underlying * 1.05)

	count := math.Floor((hi-lo)/step) + 1
	if count > MaxStrikes {
		return nil
	}
	n := int(count)
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// TimeValue is the placeholder extrinsic value: (dte+1) * 0.5.
func TimeValue(dte int) float64 {
	return float64(dte+1) * 0.5
}

// Quote prices one contract with the placeholder model: intrinsic plus
// TimeValue, floored at MinPrice. This is deliberately not Black-Scholes;
// recorded P&L depends on this exact formula.
func Quote(typ OptionType, strike, underlying float64, dte int) float64 {
	p := Intrinsic(typ, strike, underlying) + TimeValue(dte)
	if p < MinPrice {
		p = MinPrice
	}
	return p
}

// Chain is an ordered set of contracts: DTE ascending, then strike
// ascending, call before put.
type Chain []Contract

// Generate builds the synthetic chain for symbol at valuation.
func Generate(symbol string, underlying float64, valuation time.Time, dte DTERange) Chain {
	strikes := Strikes(underlying)
	if len(strikes) == 0 || dte.Max < dte.Min {
		return nil
	}

	chain := make(Chain, 0, 2*len(strikes)*(dte.Max-dte.Min+1))
	for d := dte.Min; d <= dte.Max; d++ {
		expiry := valuation.AddDate(0, 0, d)
		for _, k := range strikes {
			for _, typ := range []OptionType{Call, Put} {
				chain = append(chain, Contract{
					ID:     ContractID(symbol, typ, k, expiry),
					Symbol: symbol,
					Type:   typ,
					Strike: k,
					Expiry: expiry,
					DTE:    d,
					Price:  Quote(typ, k, underlying, d),
				})
			}
		}
	}
	return chain
}

// Find returns the contract with the given id.
func (c Chain) Find(id string) (Contract, bool) {
	for _, ct := range c {
		if ct.ID == id {
			return ct, true
		}
	}
	return Contract{}, false
}

// Filter returns the contracts of one type, preserving order.
func (c Chain) Filter(typ OptionType) Chain {
	var out Chain
	for _, ct := range c {
		if ct.Type == typ {
			out = append(out, ct)
		}
	}
	return out
}

// NearMoney returns contracts whose strike is strictly within pct of the
// underlying, preserving order.
func (c Chain) NearMoney(underlying, pct float64) Chain {
	if underlying <= 0 {
		return nil
	}
	var out Chain
	for _, ct := range c {
		if math.Abs(ct.Strike-underlying)/underlying < pct {
			out = append(out, ct)
		}
	}
	return out
}

// Pricer generates chains using a DTE table.
type Pricer struct {
	DTE DTETable
}

func (p Pricer) Chain(symbol string, underlying float64, at time.Time) Chain {
	return Generate(symbol, underlying, at, p.DTE.Range(symbol))
}
