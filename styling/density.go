package styling

// DensityCache holds the last rounded screen density. It belongs to whoever calls DpPixels;
// the zero value is ready to use.
type DensityCache struct {
	sourceDensity  float64
	roundedDensity float64
}

// RoundDensity buckets a screen density to 1, 2 or 4.
// 1.5 -> 1, 2.5 and 3 -> 2, 3.5 -> 4. Other densities are returned unchanged.
func RoundDensity(density float64) float64 {
	switch {
	case density > 1 && density < 2:
		return 1
	case density > 2 && density <= 3:
		return 2
	case density > 3 && density < 4:
		return 4
	default:
		return density
	}
}

// DpPixels converts a density-independent value to pixels for the screen density.
// With roundDensity, the density is first bucketed with RoundDensity, reusing the result held in cache
// while the density doesn't change. cache may be nil.
func DpPixels(cache *DensityCache, density, value float64, roundDensity bool) float64 {
	if !roundDensity {
		return density * value
	}

	if cache == nil {
		return RoundDensity(density) * value
	}

	if cache.roundedDensity == 0 || cache.sourceDensity != density {
		cache.sourceDensity = density
		cache.roundedDensity = RoundDensity(density)
	}

	return cache.roundedDensity * value
}
