package styling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundDensity(t *testing.T) {
	tests := []struct {
		density float64
		want    float64
	}{
		{0.75, 0.75},
		{1, 1},
		{1.5, 1},
		{2, 2},
		{2.5, 2},
		{3, 2},
		{3.5, 4},
		{4, 4},
		{4.5, 4.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundDensity(tt.density), "density %f", tt.density)
	}
}

func TestDpPixels(t *testing.T) {
	cache := new(DensityCache)

	assert.Equal(t, 15.0, DpPixels(cache, 1.5, 10, false))
	assert.Equal(t, 10.0, DpPixels(cache, 1.5, 10, true))

	// the cache follows a change of density
	assert.Equal(t, 20.0, DpPixels(cache, 3, 10, true))
	assert.Equal(t, 40.0, DpPixels(cache, 3.5, 10, true))
	assert.Equal(t, 40.0, DpPixels(cache, 3.5, 10, true))

	assert.Equal(t, 20.0, DpPixels(nil, 2.5, 10, true))
}
