package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// OptionType is call or put.
type OptionType uint8

const (
	Call OptionType = iota + 1
	Put
)

func (t OptionType) String() string {
	switch t {
	case Call:
		return "call"
	case Put:
		return "put"
	}
	return "unknown"
}

// Code is the single letter used in contract identifiers.
func (t OptionType) Code() string {
	switch t {
	case Call:
		return "C"
	case Put:
		return "P"
	}
	return "?"
}

const expiryLayout = "2006-01-02"

// Contract is a synthetic option quote. Contracts are regenerated on every
// pricer call and never stored.
type Contract struct {
	ID     string
	Symbol string
	Type   OptionType
	Strike float64
	Expiry time.Time
	DTE    int
	Price  float64
}

// ContractID renders SYMBOL_C_400.0_2025-01-10.
func ContractID(symbol string, typ OptionType, strike float64, expiry time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s",
		symbol, typ.Code(),
		strconv.FormatFloat(strike, 'f', 1, 64),
		expiry.Format(expiryLayout))
}

// ContractSpec is what can be recovered from a contract identifier.
type ContractSpec struct {
	Symbol string
	Type   OptionType
	Strike float64
	// Expiry is midnight of the expiry date in the location passed to
	// ParseContractID.
	Expiry time.Time
}

// ParseContractID splits an identifier produced by ContractID. The symbol
// may itself contain underscores.
func ParseContractID(id string, loc *time.Location) (ContractSpec, error) {
	if loc == nil {
		loc = time.UTC
	}

	parts := strings.Split(id, "_")
	if len(parts) < 4 {
		return ContractSpec{}, fmt.Errorf("contract id %q: want SYMBOL_TYPE_STRIKE_EXPIRY", id)
	}
	n := len(parts)

	expiry, err := time.ParseInLocation(expiryLayout, parts[n-1], loc)
	if err != nil {
		return ContractSpec{}, fmt.Errorf("contract id %q: bad expiry: %w", id, err)
	}

	strike, err := strconv.ParseFloat(parts[n-2], 64)
	if err != nil || math.IsNaN(strike) || math.IsInf(strike, 0) {
		return ContractSpec{}, fmt.Errorf("contract id %q: bad strike %q", id, parts[n-2])
	}

	var typ OptionType
	switch parts[n-3] {
	case "C":
		typ = Call
	case "P":
		typ = Put
	default:
		return ContractSpec{}, fmt.Errorf("contract id %q: bad type %q", id, parts[n-3])
	}

	symbol := strings.Join(parts[:n-3], "_")
	if symbol == "" {
		return ContractSpec{}, fmt.Errorf("contract id %q: empty symbol", id)
	}

	return ContractSpec{Symbol: symbol, Type: typ, Strike: strike, Expiry: expiry}, nil
}

// Intrinsic is the settlement value at expiry, never negative.
func Intrinsic(typ OptionType, strike, underlying float64) float64 {
	switch typ {
	case Call:
		return math.Max(0, underlying-strike)
	case Put:
		return math.Max(0, strike-underlying)
	}
	return 0
}
