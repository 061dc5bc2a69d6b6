package pricing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mon = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

func TestStrikes(t *testing.T) {
	tests := []struct {
		name       string
		underlying float64
		want       []float64
	}{
		{"below 100 steps by one", 50, []float64{47, 48, 49, 50, 51, 52}},
		{"100 and above steps by five", 400, []float64{380, 385, 390, 395, 400, 405, 410, 415, 420}},
		{"step applies from floored lower bound", 103, []float64{97, 102, 107}},
		{"zero price", 0, nil},
		{"negative price", -5, nil},
		// 0.95*403 = 382.85, 1.05*403 = 423.15: the top strike stays
		// inside the band
		{"top strike within band", 403, []float64{382, 387, 392, 397, 402, 407, 412, 417, 422}},
		{"grid too large", 1e9, nil},
		{"float step lost", 1e20, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Strikes(tt.underlying))
		})
	}
}

func TestStrikesLargePrices(t *testing.T) {
	got := Strikes(100000)
	require.Len(t, got, 2001)
	assert.Equal(t, 95000.0, got[0])
	assert.Equal(t, 105000.0, got[len(got)-1])

	assert.Nil(t, Strikes(math.MaxFloat64))

	c := Generate("BRK", 1e12, mon, DTERange{Min: 0, Max: 4})
	assert.Empty(t, c)
}

func TestQuoteModel(t *testing.T) {
	// itm call: 10 intrinsic + (2+1)*0.5
	assert.InDelta(t, 11.5, Quote(Call, 390, 400, 2), 1e-12)
	// otm call: time value only
	assert.InDelta(t, 0.5, Quote(Call, 410, 400, 0), 1e-12)
	// itm put
	assert.InDelta(t, 15.0+2.5, Quote(Put, 415, 400, 4), 1e-12)
	// floor never reached with non-negative dte, still applied
	assert.InDelta(t, MinPrice, Quote(Put, 0, 400, -1), 1e-12)
}

func TestGenerateOrderingAndSize(t *testing.T) {
	chain := Generate("SPY", 400, mon, DTERange{Min: 0, Max: 4})
	require.Len(t, chain, 5*9*2)

	first := chain[0]
	assert.Equal(t, "SPY_C_380.0_2025-01-06", first.ID)
	assert.Equal(t, Call, first.Type)
	assert.Equal(t, 0, first.DTE)
	assert.InDelta(t, 20.5, first.Price, 1e-12)

	second := chain[1]
	assert.Equal(t, "SPY_P_380.0_2025-01-06", second.ID)
	assert.InDelta(t, 0.5, second.Price, 1e-12)

	last := chain[len(chain)-1]
	assert.Equal(t, "SPY_P_420.0_2025-01-10", last.ID)
	assert.Equal(t, 4, last.DTE)
	assert.Equal(t, mon.AddDate(0, 0, 4), last.Expiry)

	for i := 1; i < len(chain); i++ {
		prev, cur := chain[i-1], chain[i]
		require.LessOrEqual(t, prev.DTE, cur.DTE)
		if prev.DTE == cur.DTE && prev.Strike != cur.Strike {
			require.Less(t, prev.Strike, cur.Strike)
		}
		require.GreaterOrEqual(t, cur.Price, MinPrice)
	}
}

func TestGenerateEmpty(t *testing.T) {
	assert.Empty(t, Generate("SPY", 0, mon, DTERange{Min: 0, Max: 4}))
	assert.Empty(t, Generate("SPY", 400, mon, DTERange{Min: 3, Max: 1}))
}

func TestGenerateIsPure(t *testing.T) {
	a := Generate("IWM", 212.34, mon, DTERange{Min: 1, Max: 2})
	b := Generate("IWM", 212.34, mon, DTERange{Min: 1, Max: 2})
	assert.Equal(t, a, b)
}

func TestChainHelpers(t *testing.T) {
	chain := Generate("SPY", 400, mon, DTERange{Min: 0, Max: 1})

	calls := chain.Filter(Call)
	assert.Len(t, calls, 18)
	for _, c := range calls {
		assert.Equal(t, Call, c.Type)
	}

	near := calls.NearMoney(400, 0.01)
	require.Len(t, near, 2)
	assert.Equal(t, 400.0, near[0].Strike)
	assert.Equal(t, 0, near[0].DTE)
	assert.Equal(t, 1, near[1].DTE)

	got, ok := chain.Find("SPY_P_405.0_2025-01-07")
	require.True(t, ok)
	assert.InDelta(t, 5.0+1.0, got.Price, 1e-12)

	_, ok = chain.Find("SPY_P_405.0_2025-02-07")
	assert.False(t, ok)
}

func TestDTETable(t *testing.T) {
	tbl := DTETable{
		Default:   DTERange{Min: 0, Max: 4},
		PerSymbol: map[string]DTERange{"TSLA": {Min: 1, Max: 7}},
	}
	assert.Equal(t, DTERange{Min: 1, Max: 7}, tbl.Range("TSLA"))
	assert.Equal(t, DTERange{Min: 0, Max: 4}, tbl.Range("SPY"))

	p := Pricer{DTE: tbl}
	chain := p.Chain("TSLA", 250, mon)
	require.NotEmpty(t, chain)
	assert.Equal(t, 1, chain[0].DTE)
	assert.Equal(t, 7, chain[len(chain)-1].DTE)
}
