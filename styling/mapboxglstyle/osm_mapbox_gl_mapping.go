package mapboxglstyle

import (
	"github.com/paulmach/osm"
)

// https://openmaptiles.org/schema/
const (
	SourceLayerTransportation = "transportation"
	SourceLayerWaterway       = "waterway"
	SourceLayerWater          = "water"
	SourceLayerLanduse        = "landuse"
	SourceLayerLandcover      = "landcover"
	SourceLayerPark           = "park"
	SourceLayerBuilding       = "building"
	SourceLayerAeroway        = "aeroway"
	SourceLayerPlace          = "place"
)

// anyKeyOrValue matches every key, or every value of the key
const anyKeyOrValue = "*"

// geometryTypeForSourceLayer guesses the Mapbox GL geometry type of a way from the source layer it is drawn in
func geometryTypeForSourceLayer(sourceLayer string) string {
	switch sourceLayer {
	case SourceLayerWater, SourceLayerLanduse, SourceLayerLandcover, SourceLayerPark, SourceLayerBuilding:
		return FilterThingTypePolygon
	default:
		return FilterThingTypeLineString
	}
}

// mapMapboxGLClassToOSMTags gives the OSM tags that make up a Mapbox GL class. nil means the class isn't known.
func mapMapboxGLClassToOSMTags(className, sourceLayer string) osm.Tags {
	switch sourceLayer {
	case SourceLayerLanduse, SourceLayerLandcover:
		// according to the docs, "landuse" should be used. However some mapbox styles use "landcover"
		// https://docs.mapbox.com/vector-tiles/reference/mapbox-streets-v8/
		switch className {
		case "agriculture", "farmland":
			return osm.Tags{
				{Key: "landuse", Value: "farmland"},
				{Key: "landuse", Value: "meadow"},
				{Key: "landuse", Value: "orchard"},
				{Key: "landuse", Value: "agriculture"}, // deprecated by OSM, still may be usages of it though.
			}
		case "grass":
			return osm.Tags{
				{Key: "landuse", Value: "grass"},
				{Key: "leisure", Value: "park"},
			}
		case "wood":
			return osm.Tags{
				{Key: "natural", Value: "wood"},
				{Key: "landuse", Value: "forest"},
				{Key: "landcover", Value: "trees"},
			}
		case "sand":
			return osm.Tags{
				{Key: "natural", Value: "sand"},
			}
		case "residential", "suburb", "neighbourhood":
			return osm.Tags{
				{Key: "landuse", Value: "residential"},
			}
		case "industrial", "commercial", "retail", "cemetery", "railway":
			return osm.Tags{
				{Key: "landuse", Value: className},
			}
		default:
			return nil
		}
	case SourceLayerTransportation:
		switch className {
		case "pier":
			return osm.Tags{
				{Key: "man_made", Value: "pier"},
			}
		case "path":
			return osm.Tags{
				{Key: "highway", Value: "path"},
				{Key: "highway", Value: "footway"},
				{Key: "highway", Value: "cycleway"},
				{Key: "highway", Value: "steps"},
			}
		case "track":
			return osm.Tags{
				{Key: "highway", Value: "track"},
			}
		case "minor", "minor_road":
			return osm.Tags{
				{Key: "highway", Value: "unclassified"},
				{Key: "highway", Value: "residential"},
				{Key: "highway", Value: "living_street"},
			}
		case "trunk", "primary", "service", "secondary", "tertiary", "motorway":
			return osm.Tags{
				{Key: "highway", Value: className},
				{Key: "highway", Value: className + "_link"},
			}
		case "rail":
			return osm.Tags{
				{Key: "railway", Value: "rail"},
			}
		case "transit":
			return osm.Tags{
				{Key: "railway", Value: "tram"},
				{Key: "railway", Value: "subway"},
				{Key: "railway", Value: "light_rail"},
			}
		default:
			return nil
		}
	case SourceLayerWater:
		switch className {
		case "lake", "pond", "water":
			return osm.Tags{
				{Key: "natural", Value: "water"},
			}
		case "river":
			return osm.Tags{
				{Key: "waterway", Value: "riverbank"},
				{Key: "water", Value: "river"},
			}
		default:
			return nil
		}
	case SourceLayerWaterway, SourceLayerAeroway, SourceLayerPlace, SourceLayerBuilding:
		return osm.Tags{
			{Key: sourceLayer, Value: className},
		}
	default:
		return nil
	}
}

func mapMapboxGLSubclassToOSMTags(subclassName, sourceLayer string) osm.Tags {
	switch subclassName {
	case "ice_shelf":
		return osm.Tags{
			{Key: "glacier:type", Value: "shelf"},
		}
	case "glacier":
		return osm.Tags{
			{Key: "natural", Value: "glacier"},
		}
	default:
		// other subclasses are the OSM value, under whichever key
		return osm.Tags{
			{Key: anyKeyOrValue, Value: subclassName},
		}
	}
}

// areTagsInSourceLayer reports whether an object with the tags belongs in the source layer
func areTagsInSourceLayer(sourceLayer string, tags osm.Tags) bool {
	for _, tag := range tags {
		switch sourceLayer {
		case SourceLayerTransportation:
			switch tag.Key {
			case "highway", "railway":
				return true
			}
		case SourceLayerLandcover, SourceLayerLanduse:
			switch tag.Key {
			case "landcover", "landuse":
				return true
			case "natural":
				if tag.Value != "water" {
					return true
				}
			case "leisure":
				if tag.Value == "park" {
					return true
				}
			}
		case SourceLayerWater:
			if (tag.Key == "natural" && tag.Value == "water") || tag.Key == "water" || (tag.Key == "waterway" && tag.Value == "riverbank") {
				return true
			}
		default:
			if tag.Key == sourceLayer {
				return true
			}
		}
	}
	return false
}
