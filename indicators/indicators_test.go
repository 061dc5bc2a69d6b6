package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/optsim/market"
)

func closes(cs ...float64) []market.Bar {
	bars := make([]market.Bar, len(cs))
	for i, c := range cs {
		bars[i] = market.Bar{Close: c}
	}
	return bars
}

func createTestBars() []market.Bar {
	return closes(102, 105, 106, 108, 110, 111, 113, 114, 116, 118)
}

func TestMA(t *testing.T) {
	t.Parallel()

	ma, err := MA(createTestBars(), 5)
	require.NoError(t, err)
	// Last 5 closes: 111,113,114,116,118 => 572/5 = 114.4
	assert.InDelta(t, 114.4, ma, 0.001)

	_, err = MA(createTestBars(), 0)
	assert.Error(t, err)
	_, err = MA(closes(1, 2), 5)
	assert.Error(t, err)
}

func TestEMA(t *testing.T) {
	t.Parallel()

	// seed = (102+105+106)/3 = 104.333..; k = 0.5
	// 108 -> 106.1667, 110 -> 108.0833
	ema, err := EMA(closes(102, 105, 106, 108, 110), 3)
	require.NoError(t, err)
	assert.InDelta(t, 108.0833, ema, 0.001)

	_, err = EMA(closes(1), 3)
	assert.Error(t, err)
}

func TestStreamingMatchesBatch(t *testing.T) {
	t.Parallel()

	bars := createTestBars()
	tests := []struct {
		name  string
		ind   Indicator
		batch func([]market.Bar, int) (float64, error)
	}{
		{"MA(4)", NewMA(4), MA},
		{"EMA(4)", NewEMA(4), EMA},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.name, tt.ind.Name())
			assert.Equal(t, 4, tt.ind.Warmup())

			for i, b := range bars {
				tt.ind.Update(b)
				if i < 3 {
					assert.False(t, tt.ind.Ready())
					assert.Zero(t, tt.ind.Value())
					continue
				}
				want, err := tt.batch(bars[:i+1], 4)
				require.NoError(t, err)
				assert.InDelta(t, want, tt.ind.Value(), 1e-9)
			}

			tt.ind.Reset()
			assert.False(t, tt.ind.Ready())
		})
	}
}
