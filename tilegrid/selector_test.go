package tilegrid

import (
	"image"
	"math"
	"strings"
	"testing"

	snapshot "github.com/jamesrr39/go-snapshot-testing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var prague = orb.Point{14.42974, 50.07978}

func TestSelector_Select_prague(t *testing.T) {
	keys, err := NewSelector(DefaultRadius).Select(prague, 14, 256)
	require.NoError(t, err)

	centerTileX, err := mercator.LongitudeToTileX(prague.Lon(), 14, 256)
	require.NoError(t, err)
	centerTileY, err := mercator.LatitudeToTileY(prague.Lat(), 14, 256)
	require.NoError(t, err)

	var expected []TileKey
	for x := centerTileX - 1; x <= centerTileX+1; x++ {
		for y := centerTileY - 1; y <= centerTileY+1; y++ {
			expected = append(expected, TileKey{x, y, 14})
		}
	}
	assert.Equal(t, expected, keys)

	var keyStrings []string
	for _, key := range keys {
		keyStrings = append(keyStrings, key.String())
	}
	snapshot.AssertMatchesSnapshot(t, "Selector_Select_prague_z14", snapshot.NewTextSnapshot(strings.Join(keyStrings, "\n")))
}

func TestSelector_Select_contiguousBlock(t *testing.T) {
	tests := []struct {
		name      string
		center    orb.Point
		zoomLevel mercator.ZoomLevel
		tileSize  int
	}{
		{"prague", prague, 14, 256},
		{"null island", orb.Point{0, 0}, 5, 256},
		{"north-west corner of the world", orb.Point{-180, 85}, 3, 256},
		{"south-east corner of the world", orb.Point{179.99, -85}, 3, 512},
		{"zoom 0", orb.Point{10, 10}, 0, 256},
		{"max zoom", orb.Point{-0.1275, 51.507222}, mercator.MaxZoomLevel, 256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := NewSelector(DefaultRadius).Select(tt.center, tt.zoomLevel, tt.tileSize)
			require.NoError(t, err)
			require.Len(t, keys, 9)

			centerTileX, err := mercator.LongitudeToTileX(tt.center.Lon(), tt.zoomLevel, tt.tileSize)
			require.NoError(t, err)
			centerTileY, err := mercator.LatitudeToTileY(tt.center.Lat(), tt.zoomLevel, tt.tileSize)
			require.NoError(t, err)

			seen := make(map[TileKey]bool)
			for _, key := range keys {
				assert.Equal(t, tt.zoomLevel, key.Zoom)
				assert.True(t, key.X >= centerTileX-1 && key.X <= centerTileX+1)
				assert.True(t, key.Y >= centerTileY-1 && key.Y <= centerTileY+1)
				seen[key] = true
			}
			assert.Len(t, seen, 9)
		})
	}
}

func TestSelector_Select_edgeOfWorldNotClamped(t *testing.T) {
	keys, err := NewSelector(DefaultRadius).Select(orb.Point{-180, 85}, 3, 256)
	require.NoError(t, err)

	assert.Equal(t, TileKey{-1, -1, 3}, keys[0])
	assert.False(t, keys[0].IsInWorld())
	assert.True(t, keys[4].IsInWorld())
}

func TestSelector_Select_radius(t *testing.T) {
	selector := NewSelector(2)
	assert.Equal(t, 25, selector.Size())

	keys, err := selector.Select(prague, 14, 256)
	require.NoError(t, err)
	assert.Len(t, keys, 25)

	// a new center gives a new set of keys
	recentered, err := selector.Select(orb.Point{14.5, 50.1}, 14, 256)
	require.NoError(t, err)
	assert.NotEqual(t, keys, recentered)
}

func TestSelector_Select_invalidArgs(t *testing.T) {
	_, err := NewSelector(DefaultRadius).Select(prague, 30, 256)
	assert.Equal(t, mercator.ErrInvalidArgument, errorsx.Cause(err))

	_, err = NewSelector(DefaultRadius).Select(prague, 14, 100)
	assert.Equal(t, mercator.ErrInvalidArgument, errorsx.Cause(err))
}

func TestTileRecord(t *testing.T) {
	record, err := NewTileRecord(TileKey{8848, 5550, 14}, 256)
	require.NoError(t, err)

	assert.InDelta(t, 14.4140625, record.Lon, 1e-9)
	assert.InDelta(t, 50.09239321093879, record.Lat, 1e-9)
	assert.False(t, record.HasImage())
	assert.Nil(t, record.Image())

	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	require.NoError(t, record.SetImage(img))
	assert.True(t, record.Image() == image.Image(img))

	err = record.SetImage(image.NewRGBA(image.Rect(0, 0, 256, 256)))
	require.Error(t, err)
	assert.True(t, record.Image() == image.Image(img))

	err = record.SetImage(nil)
	require.Error(t, err)
}

func TestTileKey_String(t *testing.T) {
	assert.Equal(t, "14/8848/5550", TileKey{8848, 5550, 14}.String())
	assert.Equal(t, "3/-1/0", TileKey{-1, 0, 3}.String())
}

func TestTileKey_Distance(t *testing.T) {
	center := NewTileKey(8848, 5550, 14)

	assert.Equal(t, int64(0), center.Distance(center))
	assert.Equal(t, int64(1), center.Distance(NewTileKey(8849, 5549, 14)))
	assert.Equal(t, int64(3), center.Distance(NewTileKey(8846, 5553, 14)))
	assert.Equal(t, int64(math.MaxInt64), center.Distance(NewTileKey(8848, 5550, 15)))
}

func TestCenterKey(t *testing.T) {
	for _, radius := range []uint{0, 1, 3} {
		keys, err := NewSelector(radius).Select(prague, 14, 256)
		require.NoError(t, err)
		assert.Equal(t, NewTileKey(8848, 5550, 14), CenterKey(keys))
	}
}
