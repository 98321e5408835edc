package tilegrid

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-viewport/mercator"
)

// TileKey identifies one tile at one zoom level. Comparable, so it can be used as a map key
type TileKey struct {
	X    int64
	Y    int64
	Zoom mercator.ZoomLevel
}

func NewTileKey(x, y int64, zoom mercator.ZoomLevel) TileKey {
	return TileKey{X: x, Y: y, Zoom: zoom}
}

// String gives the key in the z/x/y form used by tile URLs
func (k TileKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Zoom, k.X, k.Y)
}

// IsInWorld reports whether the tile exists at its zoom level
func (k TileKey) IsInWorld() bool {
	maxTile := int64(1) << uint(k.Zoom)
	return k.X >= 0 && k.Y >= 0 && k.X < maxTile && k.Y < maxTile
}

// Distance is the amount of tiles between k and other along the axis where they are furthest apart.
// Keys of different zoom levels are as far apart as possible.
func (k TileKey) Distance(other TileKey) int64 {
	if k.Zoom != other.Zoom {
		return math.MaxInt64
	}

	return max(abs(k.X-other.X), abs(k.Y-other.Y))
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// TileRecord is a tile and its rendered image, if it has been rendered yet.
// The top-left corner is derived once, on creation. The image can be set once.
type TileRecord struct {
	Key TileKey
	// Lon and Lat are the coordinates of the top-left pixel of the tile
	Lon float64
	Lat float64

	mu    sync.RWMutex
	image image.Image
}

func NewTileRecord(key TileKey, tileSize int) (*TileRecord, errorsx.Error) {
	lon, err := mercator.TileXToLongitude(key.X, key.Zoom, tileSize)
	if err != nil {
		return nil, errorsx.Wrap(err, "tile", key.String())
	}

	lat, err := mercator.TileYToLatitude(key.Y, key.Zoom, tileSize)
	if err != nil {
		return nil, errorsx.Wrap(err, "tile", key.String())
	}

	return &TileRecord{
		Key: key,
		Lon: lon,
		Lat: lat,
	}, nil
}

// Image returns the rendered image, or nil if the tile hasn't been (successfully) rendered
func (r *TileRecord) Image() image.Image {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.image
}

func (r *TileRecord) HasImage() bool {
	return r.Image() != nil
}

// SetImage assigns the rendered image. A tile is never re-rendered, so assigning twice is an error
func (r *TileRecord) SetImage(img image.Image) errorsx.Error {
	if img == nil {
		return errorsx.Errorf("tried to set nil image on tile %s", r.Key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.image != nil {
		return errorsx.Errorf("image already set on tile %s", r.Key)
	}

	r.image = img
	return nil
}
