package store

import (
	"context"
	"testing"

	"geotz/internal/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilStoreIsNoop(t *testing.T) {
	var s *Store
	require.NoError(t, s.IncrStats(context.Background(), tier.National))
	tot, err := s.GetTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), tot.Total)
	assert.Empty(t, tot.ByTier)
	assert.NoError(t, s.Close())
}
