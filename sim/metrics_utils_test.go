package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePercentile_Interpolates(t *testing.T) {
	// GIVEN four sorted completion times in ticks
	data := []int64{1000, 2000, 3000, 4000}

	// THEN percentiles interpolate linearly and are reported in microseconds
	assert.InDelta(t, 1.0, CalculatePercentile(data, 0), 1e-9)
	assert.InDelta(t, 2.5, CalculatePercentile(data, 50), 1e-9)
	assert.InDelta(t, 4.0, CalculatePercentile(data, 100), 1e-9)
	assert.InDelta(t, 3.97, CalculatePercentile(data, 99), 1e-9)
}

func TestCalculatePercentile_EmptyAndSingle(t *testing.T) {
	assert.Zero(t, CalculatePercentile([]int64{}, 50))
	assert.InDelta(t, 7.0, CalculatePercentile([]float64{7000}, 99), 1e-9)
}

func TestCalculateMean(t *testing.T) {
	assert.Zero(t, CalculateMean([]int64{}))
	assert.InDelta(t, 2.0, CalculateMean([]uint64{1000, 3000}), 1e-9)
}
