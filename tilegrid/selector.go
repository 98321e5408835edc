package tilegrid

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/paulmach/orb"
)

// DefaultRadius gives a 3x3 block of tiles around the center tile
const DefaultRadius = 1

// Selector picks the tiles to show around a viewport center
type Selector struct {
	radius int64
}

func NewSelector(radius uint) *Selector {
	return &Selector{int64(radius)}
}

// Size is the amount of keys Select returns
func (s *Selector) Size() int {
	side := int(2*s.radius + 1)
	return side * side
}

// CenterKey is the key of the tile in the middle of keys returned by Select
func CenterKey(keys []TileKey) TileKey {
	return keys[len(keys)/2]
}

// Select returns the block of tile keys centered on the tile containing center (lon, lat).
// Keys are ordered x first, then y. Neighbours of tiles on the world edge are not wrapped or clamped,
// so they can be negative or past 2^zoom - 1.
func (s *Selector) Select(center orb.Point, zoomLevel mercator.ZoomLevel, tileSize int) ([]TileKey, errorsx.Error) {
	centerTileX, err := mercator.LongitudeToTileX(center.Lon(), zoomLevel, tileSize)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	centerTileY, err := mercator.LatitudeToTileY(center.Lat(), zoomLevel, tileSize)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	keys := make([]TileKey, 0, s.Size())
	for x := centerTileX - s.radius; x <= centerTileX+s.radius; x++ {
		for y := centerTileY - s.radius; y <= centerTileY+s.radius; y++ {
			keys = append(keys, NewTileKey(x, y, zoomLevel))
		}
	}

	return keys, nil
}
