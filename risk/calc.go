package risk

import "math"

// Quantity is the whole number of contracts that fraction of cash buys at
// price. Zero means the trade should be skipped.
func Quantity(cash, fraction, price float64) int {
	if cash <= 0 || fraction <= 0 || price <= 0 {
		return 0
	}
	q := math.Floor(cash * fraction / price)
	if q < 1 {
		return 0
	}
	return int(q)
}
