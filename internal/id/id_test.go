package id

import (
	"sort"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		v := New()
		assert.Len(t, v, 26)
		assert.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
}

func TestNewAtEncodesTime(t *testing.T) {
	ts := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	parsed, err := ulid.Parse(NewAt(ts))
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(ts), parsed.Time())
}

func TestNewAtSortsBySimulatedTime(t *testing.T) {
	base := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	var ids []string
	for i := 5; i >= 0; i-- {
		ids = append(ids, NewAt(base.Add(time.Duration(i)*time.Hour)))
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	for i := range ids {
		assert.Equal(t, ids[len(ids)-1-i], sorted[i])
	}
}
