package market

import (
	"math"
	"time"
)

// Signal is the directional forecast attached to a bar by an external
// predictor.
type Signal int8

const (
	Bearish Signal = -1
	Neutral Signal = 0
	Bullish Signal = +1
)

func (s Signal) String() string {
	switch s {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	case Neutral:
		return "neutral"
	}
	return "invalid"
}

// Valid reports whether s is one of -1, 0, +1.
func (s Signal) Valid() bool {
	return s >= Bearish && s <= Bullish
}

// Bar is one OHLCV sample with its externally computed signal.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Signal Signal
}

// SameDay reports whether a and b fall on the same calendar date in a's
// location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Finite reports whether the bar's close is a usable price.
func (b Bar) Finite() bool {
	return !math.IsNaN(b.Close) && !math.IsInf(b.Close, 0)
}

// IsWeekend reports whether t is a Saturday or Sunday in its own location.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
