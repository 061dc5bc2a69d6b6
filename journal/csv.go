package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	tradeHeader  = []string{"trade_id", "symbol", "option_symbol", "direction", "entry_time", "exit_time", "entry_price", "exit_price", "quantity", "pnl", "pnl_percent", "stop_loss", "take_profit", "reason"}
	equityHeader = []string{"time", "cash", "equity", "open_positions"}
)

// CSVJournal appends to a trades file and, optionally, an equity file.
// Headers are written only when a file is empty so repeated runs extend
// the same journal.
type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

// NewCSV opens tradesPath for appending. equityPath may be empty.
func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, tw, err := openAppend(tradesPath, tradeHeader)
	if err != nil {
		return nil, err
	}
	j := &CSVJournal{trades: tw, tf: tf}

	if equityPath != "" {
		ef, ew, err := openAppend(equityPath, equityHeader)
		if err != nil {
			tf.Close()
			return nil, err
		}
		j.equity, j.ef = ew, ef
	}
	return j, nil
}

func openAppend(path string, header []string) (*os.File, *csv.Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			f.Close()
			return nil, nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, nil, err
		}
	}
	return f, w, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	if err := j.trades.Write(tradeRow(t)); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	if j.equity == nil {
		return nil
	}
	err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		f(e.Cash),
		f(e.Equity),
		strconv.Itoa(e.OpenPositions),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	errs := []error{j.trades.Error(), j.tf.Close()}
	if j.equity != nil {
		j.equity.Flush()
		errs = append(errs, j.equity.Error(), j.ef.Close())
	}
	return errors.Join(errs...)
}

func tradeRow(t TradeRecord) []string {
	return []string{
		t.TradeID,
		t.Symbol,
		t.OptionSymbol,
		t.Direction,
		t.EntryTime.Format(time.RFC3339),
		t.ExitTime.Format(time.RFC3339),
		f(t.EntryPrice),
		f(t.ExitPrice),
		strconv.Itoa(t.Quantity),
		f(t.PnL),
		f(t.PnLPercent),
		f(t.StopLoss),
		f(t.TakeProfit),
		t.Reason,
	}
}

// ReadTradesCSV loads records written by CSVJournal.
func ReadTradesCSV(path string) ([]TradeRecord, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1

	var out []TradeRecord
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "trade_id") {
				continue
			}
		}
		rec, err := parseTradeRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, rec)
	}
}

func parseTradeRow(row []string) (TradeRecord, error) {
	if len(row) < len(tradeHeader) {
		return TradeRecord{}, fmt.Errorf("short row (%d cols): %v", len(row), row)
	}

	var (
		rec TradeRecord
		err error
	)
	rec.TradeID = row[0]
	rec.Symbol = row[1]
	rec.OptionSymbol = row[2]
	rec.Direction = row[3]
	if rec.EntryTime, err = time.Parse(time.RFC3339, row[4]); err != nil {
		return rec, fmt.Errorf("entry_time: %w", err)
	}
	if rec.ExitTime, err = time.Parse(time.RFC3339, row[5]); err != nil {
		return rec, fmt.Errorf("exit_time: %w", err)
	}
	floats := []struct {
		name string
		s    string
		dst  *float64
	}{
		{"entry_price", row[6], &rec.EntryPrice},
		{"exit_price", row[7], &rec.ExitPrice},
		{"pnl", row[9], &rec.PnL},
		{"pnl_percent", row[10], &rec.PnLPercent},
		{"stop_loss", row[11], &rec.StopLoss},
		{"take_profit", row[12], &rec.TakeProfit},
	}
	for _, fl := range floats {
		if *fl.dst, err = strconv.ParseFloat(fl.s, 64); err != nil {
			return rec, fmt.Errorf("%s: %w", fl.name, err)
		}
	}
	if rec.Quantity, err = strconv.Atoi(row[8]); err != nil {
		return rec, fmt.Errorf("quantity: %w", err)
	}
	rec.Reason = row[13]
	return rec, nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
