package risk

import (
	"time"

	"github.com/rustyeddy/optsim/market"
)

// DayCounter counts entries per calendar date. The date is taken in the
// location of the observed timestamps.
type DayCounter struct {
	Day   time.Time
	Count int
}

// Observe resets the count when t falls on a different date than the
// last observation. It reports whether a reset happened.
func (d *DayCounter) Observe(t time.Time) bool {
	if !d.Day.IsZero() && market.SameDay(t, d.Day) {
		return false
	}
	reset := !d.Day.IsZero()
	y, m, dd := t.Date()
	d.Day = time.Date(y, m, dd, 0, 0, 0, 0, t.Location())
	d.Count = 0
	return reset
}

func (d *DayCounter) Allow(max int) bool {
	return d.Count < max
}

func (d *DayCounter) Inc() {
	d.Count++
}
