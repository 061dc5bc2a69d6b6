package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is an offset from local midnight.
type TimeOfDay time.Duration

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("bad time of day %q: want HH:MM", s)
	}

	limits := []int{23, 59, 59}
	var vals [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("bad time of day %q", s)
		}
		vals[i] = v
	}

	d := time.Duration(vals[0])*time.Hour +
		time.Duration(vals[1])*time.Minute +
		time.Duration(vals[2])*time.Second
	return TimeOfDay(d), nil
}

// ClockOf returns the time of day of t in t's location.
func ClockOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond()))
}

func (d TimeOfDay) String() string {
	td := time.Duration(d)
	h := int(td / time.Hour)
	m := int(td % time.Hour / time.Minute)
	s := int(td % time.Minute / time.Second)
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// Session is an inclusive [Start, End] trading window.
type Session struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewSession parses a pair of "HH:MM" strings.
func NewSession(start, end string) (Session, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Session{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Session{}, err
	}
	if e < s {
		return Session{}, fmt.Errorf("session end %s before start %s", end, start)
	}
	return Session{Start: s, End: e}, nil
}

func (s Session) Contains(t time.Time) bool {
	c := ClockOf(t)
	return s.Start <= c && c <= s.End
}

func (s Session) String() string {
	return s.Start.String() + "-" + s.End.String()
}

// Sessions is a set of possibly disjoint windows.
type Sessions []Session

// Contains reports whether t falls inside at least one window.
func (ss Sessions) Contains(t time.Time) bool {
	for _, s := range ss {
		if s.Contains(t) {
			return true
		}
	}
	return false
}
