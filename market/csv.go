package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

var barTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LoadBarsCSV reads bars from path. See ReadBarsCSV for the format.
func LoadBarsCSV(path string, loc *time.Location) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bars, err := ReadBarsCSV(f, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// ReadBarsCSV reads rows of
//
//	time,open,high,low,close,volume[,signal]
//
// A header row is required; column order follows the header, names are
// case-insensitive. Timestamps without a zone are interpreted in loc (UTC
// when loc is nil). A missing signal column yields Neutral. Rows must be in
// non-decreasing time order.
func ReadBarsCSV(r io.Reader, loc *time.Location) ([]Bar, error) {
	if loc == nil {
		loc = time.UTC
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, need := range []string{"time", "open", "high", "low", "close"} {
		if _, ok := cols[need]; !ok {
			if need == "time" {
				if i, ok := cols["timestamp"]; ok {
					cols["time"] = i
					continue
				}
			}
			return nil, fmt.Errorf("missing %q column", need)
		}
	}

	var bars []Bar
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		b, err := parseBarRow(row, cols, loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if n := len(bars); n > 0 && b.Time.Before(bars[n-1].Time) {
			return nil, fmt.Errorf("line %d: time %s before previous bar %s",
				line, b.Time.Format(time.RFC3339), bars[n-1].Time.Format(time.RFC3339))
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseBarRow(row []string, cols map[string]int, loc *time.Location) (Bar, error) {
	get := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	ts, _ := get("time")
	t, err := parseBarTime(ts, loc)
	if err != nil {
		return Bar{}, err
	}

	b := Bar{Time: t}
	fields := []struct {
		name string
		dst  *float64
	}{
		{"open", &b.Open},
		{"high", &b.High},
		{"low", &b.Low},
		{"close", &b.Close},
		{"volume", &b.Volume},
	}
	for _, fld := range fields {
		s, ok := get(fld.name)
		if !ok || s == "" {
			if fld.name == "volume" {
				continue
			}
			return Bar{}, fmt.Errorf("missing %s", fld.name)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad %s %q: %w", fld.name, s, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Bar{}, fmt.Errorf("bad %s %q: not a finite number", fld.name, s)
		}
		*fld.dst = v
	}

	if s, ok := get("signal"); ok && s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad signal %q: %w", s, err)
		}
		sig := Signal(int8(v))
		if float64(sig) != v || !sig.Valid() {
			return Bar{}, fmt.Errorf("signal %q not in {-1,0,1}", s)
		}
		b.Signal = sig
	}
	return b, nil
}

func parseBarTime(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	for _, layout := range barTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}
