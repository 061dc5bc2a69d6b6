package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractIDRoundTrip(t *testing.T) {
	expiry := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	id := ContractID("SPY", Call, 400, expiry)
	assert.Equal(t, "SPY_C_400.0_2025-01-10", id)

	spec, err := ParseContractID(id, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "SPY", spec.Symbol)
	assert.Equal(t, Call, spec.Type)
	assert.Equal(t, 400.0, spec.Strike)
	assert.Equal(t, expiry, spec.Expiry)
}

func TestParseContractIDSymbolWithUnderscore(t *testing.T) {
	spec, err := ParseContractID("BRK_B_P_455.0_2025-03-21", nil)
	require.NoError(t, err)
	assert.Equal(t, "BRK_B", spec.Symbol)
	assert.Equal(t, Put, spec.Type)
	assert.Equal(t, 455.0, spec.Strike)
}

func TestParseContractIDMalformed(t *testing.T) {
	tests := []string{
		"",
		"SPY_SIM",
		"SPY_C_400.0_notadate",
		"SPY_C_abc_2025-01-10",
		"SPY_X_400.0_2025-01-10",
		"_C_400.0_2025-01-10",
	}
	for _, id := range tests {
		t.Run(id, func(t *testing.T) {
			_, err := ParseContractID(id, time.UTC)
			assert.Error(t, err)
		})
	}
}

func TestIntrinsic(t *testing.T) {
	tests := []struct {
		name       string
		typ        OptionType
		strike     float64
		underlying float64
		want       float64
	}{
		{"call itm", Call, 100, 110, 10},
		{"call otm floors at zero", Call, 100, 90, 0},
		{"put itm", Put, 100, 90, 10},
		{"put otm floors at zero", Put, 100, 110, 0},
		{"at the money", Call, 100, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Intrinsic(tt.typ, tt.strike, tt.underlying))
		})
	}
}

func TestOptionTypeStrings(t *testing.T) {
	assert.Equal(t, "call", Call.String())
	assert.Equal(t, "put", Put.String())
	assert.Equal(t, "C", Call.Code())
	assert.Equal(t, "P", Put.Code())
	assert.Equal(t, "unknown", OptionType(0).String())
}
