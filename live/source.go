package live

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/optsim/market"
)

// BarSource supplies recent bars for a symbol, oldest first.
type BarSource interface {
	Bars(ctx context.Context, symbol string) ([]market.Bar, error)
}

// Predictor turns recent bars into a directional signal.
type Predictor interface {
	Predict(ctx context.Context, bars []market.Bar) (market.Signal, error)
}

// LastSignal reads the signal already attached to the newest bar, for bar
// files produced by an external model.
type LastSignal struct{}

func (LastSignal) Predict(ctx context.Context, bars []market.Bar) (market.Signal, error) {
	if len(bars) == 0 {
		return market.Neutral, errors.New("predict: no bars")
	}
	sig := bars[len(bars)-1].Signal
	if !sig.Valid() {
		return market.Neutral, errors.New("predict: invalid signal on last bar")
	}
	return sig, nil
}

// CSVSource re-reads a bars CSV on every call so an external process can
// keep appending to it. Symbol is ignored; one file serves one symbol.
type CSVSource struct {
	Path     string
	Location *time.Location
}

func (s CSVSource) Bars(ctx context.Context, symbol string) ([]market.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return market.LoadBarsCSV(s.Path, s.Location)
}
