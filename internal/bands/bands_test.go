package bands

import (
	"testing"

	"geotz/internal/tzerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableIsPartition(t *testing.T) {
	tbl := Default()
	require.NoError(t, tbl.Validate())
	assert.Len(t, tbl.Bands(), 26)
	assert.Equal(t, 25, tbl.Reachable())
}

func TestEveryLongitudeMatchesExactlyOneBand(t *testing.T) {
	tbl := Default()
	check := func(lon float64) {
		n := 0
		for _, b := range tbl.Bands() {
			if b.Contains(lon) {
				n++
			}
		}
		require.Equal(t, 1, n, "lon=%v", lon)
		_, ok := tbl.Lookup(lon)
		require.True(t, ok, "lon=%v", lon)
	}
	for i := -1799; i <= 1800; i++ {
		check(float64(i) / 10)
	}
	for _, lon := range []float64{-179.9999999, -172.5, -172.4999, 7.5, 172.5, 179.9999, 180} {
		check(lon)
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		lon    float64
		label  string
		offset float64
	}{
		{-130, "lonbound(-142.5,-127.5)", -9},
		{-127.5, "lonbound(-142.5,-127.5)", -9},
		{-127.4, "lonbound(-127.5,-112.5)", -8},
		{0, "lonbound(-7.5,7.5)", 0},
		{-7.5, "lonbound(-22.5,-7.5)", -1},
		{27.59765625, "lonbound(22.5,37.5)", 2},
		{172.5, "lonbound(157.5,172.5)", 11},
		{175, "lonbound(172.5,180.0)", 12},
		{180, "lonbound(172.5,180.0)", 12},
		{-179.5, "lonbound(-180.0,-172.5)", -12},
		{-172.5, "lonbound(-180.0,-172.5)", -12},
		{185, "lonbound(180.0,187.5)", -12},
	}
	tbl := Default()
	for _, tt := range tests {
		b, ok := tbl.Lookup(tt.lon)
		require.True(t, ok, "lon=%v", tt.lon)
		assert.Equal(t, tt.label, b.Label(), "lon=%v", tt.lon)
		assert.Equal(t, tt.offset, b.Offset, "lon=%v", tt.lon)
	}
}

func TestLookupOutsideTable(t *testing.T) {
	_, ok := Default().Lookup(-180)
	assert.False(t, ok, "-180 is never produced by normalization")
	_, ok = Default().Lookup(200)
	assert.False(t, ok)
}

func TestValidateDetectsDefects(t *testing.T) {
	tests := map[string][]Band{
		"empty table":   nil,
		"leading gap":   {{-170, 180, 0}},
		"trailing gap":  {{-180, 170, 0}},
		"inner gap":     {{-180, 0, 0}, {10, 180, 1}},
		"overlap":       {{-180, 10, 0}, {0, 180, 1}},
		"inverted band": {{-180, 180, 0}, {5, 5, 1}},
	}
	for name, bs := range tests {
		t.Run(name, func(t *testing.T) {
			err := New(bs).Validate()
			require.Error(t, err)
			assert.True(t, tzerr.IsInconsistency(err))
		})
	}
}

func TestBandReachable(t *testing.T) {
	assert.True(t, Band{Min: -180, Max: -172.5}.Reachable())
	assert.True(t, Band{Min: 172.5, Max: 180}.Reachable())
	assert.False(t, Band{Min: 180, Max: 187.5}.Reachable())
	assert.False(t, Band{Min: -200, Max: -180}.Reachable())

	n := 0
	for _, b := range Default().Bands() {
		if b.Reachable() {
			n++
		}
	}
	assert.Equal(t, Default().Reachable(), n)
	assert.Equal(t, 25, n)
}
