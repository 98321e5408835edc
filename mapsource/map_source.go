package mapsource

import (
	"context"
	"errors"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported map file format")
	ErrEmptyMapSource    = errors.New("map file contains no data")
)

const DefaultTilePixelSize = 256

type Options struct {
	// TilePixelSize is the size, in pixels, of the tiles rendered from this source
	TilePixelSize int
	// PreferredLanguage is the language labels are shown in, where the data has a name in that language
	PreferredLanguage string
	CountryCode       string
}

// Place is a tagged node, e.g. a town or a village
type Place struct {
	ID    osm.NodeID
	Point orb.Point
	Tags  osm.Tags
}

// Way is a tagged way with its node locations resolved
type Way struct {
	ID     osm.WayID
	Points orb.LineString
	Bound  orb.Bound
	Tags   osm.Tags
}

// MapSource is map data read into memory from an OSM extract. It is read-only after Open
// and safe for concurrent use.
type MapSource struct {
	options Options
	bound   orb.Bound
	places  []*Place
	ways    []*Way
}

// Open reads the OSM XML (.osm) or OSM PBF (.osm.pbf) file at path.
// Missing, unreadable and empty files are errors.
func Open(ctx context.Context, fs gofs.Fs, path string, options Options) (*MapSource, errorsx.Error) {
	if options.TilePixelSize == 0 {
		options.TilePixelSize = DefaultTilePixelSize
	}

	err := mercator.ValidateTileSize(options.TilePixelSize)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	format := detectFileFormat(path)
	if format == fileFormatUnknown {
		return nil, errorsx.Wrap(ErrUnsupportedFormat, "path", path)
	}

	file, openErr := fs.Open(path)
	if openErr != nil {
		return nil, errorsx.Wrap(openErr, "path", path)
	}
	defer file.Close()

	scanner, err := newObjectScanner(ctx, file, format)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}
	defer scanner.Close()

	mapSource, err := readObjects(scanner, options)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path, "format", format.String())
	}

	return mapSource, nil
}

func readObjects(scanner objectScanner, options Options) (*MapSource, errorsx.Error) {
	mapSource := &MapSource{
		options: options,
	}

	nodeLocations := make(map[osm.NodeID]orb.Point)
	boundSet := false

	for scanner.Scan() {
		switch object := scanner.Object().(type) {
		case *osm.Node:
			point := orb.Point{object.Lon, object.Lat}
			nodeLocations[object.ID] = point

			if !boundSet {
				mapSource.bound = point.Bound()
				boundSet = true
			} else {
				mapSource.bound = mapSource.bound.Extend(point)
			}

			if len(object.Tags) == 0 {
				continue
			}

			mapSource.places = append(mapSource.places, &Place{
				ID:    object.ID,
				Point: point,
				Tags:  object.Tags,
			})
		case *osm.Way:
			if len(object.Tags) == 0 {
				continue
			}

			var points orb.LineString
			for _, wayNode := range object.Nodes {
				point, ok := nodeLocations[wayNode.ID]
				if !ok {
					if wayNode.Lat == 0 && wayNode.Lon == 0 {
						// node outside the extract
						continue
					}
					point = orb.Point{wayNode.Lon, wayNode.Lat}
				}
				points = append(points, point)
			}

			if len(points) < 2 {
				continue
			}

			mapSource.ways = append(mapSource.ways, &Way{
				ID:     object.ID,
				Points: points,
				Bound:  points.Bound(),
				Tags:   object.Tags,
			})
		}
	}

	scanErr := scanner.Err()
	if scanErr != nil {
		return nil, errorsx.Wrap(scanErr)
	}

	if !boundSet {
		return nil, errorsx.Wrap(ErrEmptyMapSource)
	}

	return mapSource, nil
}

func (ms *MapSource) TilePixelSize() int {
	return ms.options.TilePixelSize
}

func (ms *MapSource) PreferredLanguage() string {
	return ms.options.PreferredLanguage
}

func (ms *MapSource) CountryCode() string {
	return ms.options.CountryCode
}

// Bounds is the area covered by the nodes in the source
func (ms *MapSource) Bounds() osm.Bounds {
	return osm.Bounds{
		MinLat: ms.bound.Min.Lat(),
		MaxLat: ms.bound.Max.Lat(),
		MinLon: ms.bound.Min.Lon(),
		MaxLon: ms.bound.Max.Lon(),
	}
}

// Overlaps reports whether the source has any data in the bounds
func (ms *MapSource) Overlaps(bounds osm.Bounds) bool {
	return ms.bound.Intersects(toBound(bounds))
}

// GetInBounds returns the places inside the bounds, and the ways with at least part of their extent inside the bounds
func (ms *MapSource) GetInBounds(bounds osm.Bounds) ([]*Place, []*Way) {
	return ms.PlacesInBounds(bounds), ms.WaysInBounds(bounds)
}

func (ms *MapSource) PlacesInBounds(bounds osm.Bounds) []*Place {
	bound := toBound(bounds)

	var places []*Place
	for _, place := range ms.places {
		if bound.Contains(place.Point) {
			places = append(places, place)
		}
	}
	return places
}

func (ms *MapSource) WaysInBounds(bounds osm.Bounds) []*Way {
	bound := toBound(bounds)

	var ways []*Way
	for _, way := range ms.ways {
		if bound.Intersects(way.Bound) {
			ways = append(ways, way)
		}
	}
	return ways
}

// Label gives the name to show for an item, preferring the name in the source's preferred language
func (ms *MapSource) Label(tags osm.Tags) string {
	if ms.options.PreferredLanguage != "" {
		name := tags.Find("name:" + ms.options.PreferredLanguage)
		if name != "" {
			return name
		}
	}

	return tags.Find("name")
}

func toBound(bounds osm.Bounds) orb.Bound {
	return orb.Bound{
		Min: orb.Point{bounds.MinLon, bounds.MinLat},
		Max: orb.Point{bounds.MaxLon, bounds.MaxLat},
	}
}
