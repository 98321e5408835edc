package webservices

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/jamesrr39/ownmap-viewport/tilegrid"
)

// tileKeyFromURL reads the {z}/{x}/{y} URL parameters
func tileKeyFromURL(r *http.Request) (tilegrid.TileKey, errorsx.Error) {
	x := chi.URLParam(r, "x")
	y := chi.URLParam(r, "y")
	zStr := chi.URLParam(r, "z")

	ints, err := stringsToInts(x, y, zStr)
	if err != nil {
		return tilegrid.TileKey{}, errorsx.Wrap(err, "x", x, "y", y, "z", zStr)
	}

	z := ints[2]
	if z < int(mercator.MinZoomLevel) || z > int(mercator.MaxZoomLevel) {
		return tilegrid.TileKey{}, errorsx.Wrap(mercator.ErrInvalidArgument, "reason", "zoom level out of range", "z", zStr)
	}

	return tilegrid.NewTileKey(int64(ints[0]), int64(ints[1]), mercator.ZoomLevel(z)), nil
}

func stringsToInts(s ...string) ([]int, error) {
	var ints []int
	for _, str := range s {
		i, err := strconv.Atoi(str)
		if err != nil {
			return nil, err
		}
		ints = append(ints, i)
	}

	return ints, nil
}

// intQueryParam reads an optional integer query parameter, falling back to defaultValue
func intQueryParam(r *http.Request, name string, defaultValue, min, max int) (int, errorsx.Error) {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(str)
	if err != nil {
		return 0, errorsx.Wrap(err, "param", name)
	}

	if value < min || value > max {
		return 0, errorsx.Errorf("%s must be between %d and %d, but was %d", name, min, max, value)
	}

	return value, nil
}

// floatQueryParam reads an optional float query parameter. The bool is false when the parameter isn't given.
func floatQueryParam(r *http.Request, name string) (float64, bool, errorsx.Error) {
	str := r.URL.Query().Get(name)
	if str == "" {
		return 0, false, nil
	}

	value, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, false, errorsx.Wrap(err, "param", name)
	}

	return value, true, nil
}
