package mercator

import (
	"errors"
	"math"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/osm"
)

// ErrInvalidArgument is the cause of every error returned for bad projection input.
// Check for it with errorsx.Cause(err) == ErrInvalidArgument
var ErrInvalidArgument = errors.New("invalid argument")

const (
	// EarthCircumference is the equatorial circumference, in metres
	EarthCircumference = 40075016.686

	// LatitudeMax is the northern limit of the spherical Mercator projection
	LatitudeMax = 85.05112877980659
	LatitudeMin = -LatitudeMax

	MinZoomLevel ZoomLevel = 0
	MaxZoomLevel ZoomLevel = 22
)

type ZoomLevel uint8

func ValidateZoomLevel(zoomLevel ZoomLevel) errorsx.Error {
	if zoomLevel > MaxZoomLevel {
		return errorsx.Wrap(ErrInvalidArgument, "reason", "zoom level out of range", "zoomLevel", zoomLevel)
	}
	return nil
}

// ValidateTileSize checks the tile size is a positive power of two (256, 512 etc)
func ValidateTileSize(tileSize int) errorsx.Error {
	if tileSize <= 0 || tileSize&(tileSize-1) != 0 {
		return errorsx.Wrap(ErrInvalidArgument, "reason", "tile size must be a positive power of two", "tileSize", tileSize)
	}
	return nil
}

func validateFinite(name string, value float64) errorsx.Error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errorsx.Wrap(ErrInvalidArgument, "reason", "non-finite coordinate", name, value)
	}
	return nil
}

// MapSize is the width and height, in pixels, of the whole projected world at the zoom level
func MapSize(zoomLevel ZoomLevel, tileSize int) (int64, errorsx.Error) {
	err := ValidateZoomLevel(zoomLevel)
	if err != nil {
		return 0, err
	}

	err = ValidateTileSize(tileSize)
	if err != nil {
		return 0, err
	}

	return int64(tileSize) << uint(zoomLevel), nil
}

func LongitudeToPixelX(longitude float64, mapSize int64) (float64, errorsx.Error) {
	err := validateFinite("longitude", longitude)
	if err != nil {
		return 0, err
	}

	return (longitude + 180.0) / 360.0 * float64(mapSize), nil
}

// LatitudeToPixelY projects a latitude onto the Y axis. Latitudes past the projection limit are clamped
func LatitudeToPixelY(latitude float64, mapSize int64) (float64, errorsx.Error) {
	err := validateFinite("latitude", latitude)
	if err != nil {
		return 0, err
	}

	latitude = math.Max(LatitudeMin, math.Min(LatitudeMax, latitude))

	sinLatitude := math.Sin(latitude * math.Pi / 180)
	pixelY := (0.5 - math.Log((1+sinLatitude)/(1-sinLatitude))/(4*math.Pi)) * float64(mapSize)

	return math.Max(0, math.Min(float64(mapSize), pixelY)), nil
}

func PixelXToLongitude(pixelX float64, mapSize int64) (float64, errorsx.Error) {
	err := validateFinite("pixelX", pixelX)
	if err != nil {
		return 0, err
	}

	return 360.0 * ((pixelX / float64(mapSize)) - 0.5), nil
}

func PixelYToLatitude(pixelY float64, mapSize int64) (float64, errorsx.Error) {
	err := validateFinite("pixelY", pixelY)
	if err != nil {
		return 0, err
	}

	y := 0.5 - (pixelY / float64(mapSize))
	return 90.0 - 360.0*math.Atan(math.Exp(-y*2*math.Pi))/math.Pi, nil
}

// pixelToTile clamps to [0, 2^zoom - 1]
func pixelToTile(pixel float64, zoomLevel ZoomLevel, tileSize int) int64 {
	maxTile := float64(int64(1)<<uint(zoomLevel) - 1)
	return int64(math.Min(math.Max(math.Floor(pixel/float64(tileSize)), 0), maxTile))
}

func LongitudeToTileX(longitude float64, zoomLevel ZoomLevel, tileSize int) (int64, errorsx.Error) {
	mapSize, err := MapSize(zoomLevel, tileSize)
	if err != nil {
		return 0, err
	}

	pixelX, err := LongitudeToPixelX(longitude, mapSize)
	if err != nil {
		return 0, err
	}

	return pixelToTile(pixelX, zoomLevel, tileSize), nil
}

func LatitudeToTileY(latitude float64, zoomLevel ZoomLevel, tileSize int) (int64, errorsx.Error) {
	mapSize, err := MapSize(zoomLevel, tileSize)
	if err != nil {
		return 0, err
	}

	pixelY, err := LatitudeToPixelY(latitude, mapSize)
	if err != nil {
		return 0, err
	}

	return pixelToTile(pixelY, zoomLevel, tileSize), nil
}

// TileXToLongitude gives the longitude of the left edge of the tile.
// Tile indexes outside the world are allowed and give longitudes outside [-180, 180]
func TileXToLongitude(tileX int64, zoomLevel ZoomLevel, tileSize int) (float64, errorsx.Error) {
	mapSize, err := MapSize(zoomLevel, tileSize)
	if err != nil {
		return 0, err
	}

	return PixelXToLongitude(float64(tileX*int64(tileSize)), mapSize)
}

// TileYToLatitude gives the latitude of the top edge of the tile
func TileYToLatitude(tileY int64, zoomLevel ZoomLevel, tileSize int) (float64, errorsx.Error) {
	mapSize, err := MapSize(zoomLevel, tileSize)
	if err != nil {
		return 0, err
	}

	return PixelYToLatitude(float64(tileY*int64(tileSize)), mapSize)
}

// TileBounds returns the geographic area covered by a tile
func TileBounds(tileX, tileY int64, zoomLevel ZoomLevel, tileSize int) (osm.Bounds, errorsx.Error) {
	west, err := TileXToLongitude(tileX, zoomLevel, tileSize)
	if err != nil {
		return osm.Bounds{}, err
	}
	east, err := TileXToLongitude(tileX+1, zoomLevel, tileSize)
	if err != nil {
		return osm.Bounds{}, err
	}
	north, err := TileYToLatitude(tileY, zoomLevel, tileSize)
	if err != nil {
		return osm.Bounds{}, err
	}
	south, err := TileYToLatitude(tileY+1, zoomLevel, tileSize)
	if err != nil {
		return osm.Bounds{}, err
	}

	return osm.Bounds{
		MinLat: south,
		MaxLat: north,
		MinLon: west,
		MaxLon: east,
	}, nil
}

// GroundResolution is the distance on the ground, in metres, represented by one pixel at the latitude
func GroundResolution(latitude float64, mapSize int64) (float64, errorsx.Error) {
	err := validateFinite("latitude", latitude)
	if err != nil {
		return 0, err
	}

	return math.Cos(latitude*math.Pi/180) * EarthCircumference / float64(mapSize), nil
}
