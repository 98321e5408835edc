package mapboxglstyle

import (
	"fmt"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/osm"
)

const (
	FilterOperatorEquals   = "=="
	FilterOperatorNotEqual = "!="
	FilterOperatorAny      = "any"
	FilterOperatorAll      = "all"
	FilterOperatorNone     = "none"
	FilterOperatorIn       = "in"
	FilterOperatorNotIn    = "!in"
	FilterOperatorHas      = "has"
	FilterOperatorNotHas   = "!has"
)

const (
	FilterThingType           = "$type"
	FilterThingTypePoint      = "Point"
	FilterThingTypeLineString = "LineString"
	FilterThingTypePolygon    = "Polygon"

	FilterThingClass    = "class"
	FilterThingSubclass = "subclass"
)

/*

    "filter": [
        "all",
        ["==", "$type", "Polygon"],
		["in", "class", "residential", "suburb", "neighbourhood"]
	]

	"filter": ["==", "$type", "Point"],
*/

// Filter is the decoded JSON filter expression, in the legacy (pre-expressions) filter syntax
type Filter interface{}

// https://docs.mapbox.com/vector-tiles/reference/mapbox-streets-v8/
func isClassTypeShown(
	className,
	sourceLayer string,
	objectTags osm.Tags,
	mapperFunc func(className, sourceLayer string) osm.Tags,
) bool {
	lookingForOsmTags := mapperFunc(className, sourceLayer)
	for _, needleTag := range lookingForOsmTags {
		for _, objectTag := range objectTags {
			keyMatches := needleTag.Key == anyKeyOrValue || needleTag.Key == objectTag.Key
			valueMatches := needleTag.Value == anyKeyOrValue || needleTag.Value == objectTag.Value
			if keyMatches && valueMatches {
				return true
			}
		}
	}
	return false
}

func valueToString(value interface{}) (string, errorsx.Error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return fmt.Sprintf("%v", v), nil
	case bool:
		return fmt.Sprintf("%v", v), nil
	default:
		return "", errorsx.Errorf("unsupported filter value: %v (%T)", value, value)
	}
}

// isIn reports whether the filter's key has one of the filter's values, for ["in", key, values...] and ["==", key, value]
func isIn(base []interface{}, sourceLayer string, tags osm.Tags, objectFilterType string) (bool, errorsx.Error) {
	if len(base) < 3 {
		return false, errorsx.Errorf("expected a key and at least one value in filter %v", base)
	}

	thing, ok := base[1].(string)
	if !ok {
		return false, errorsx.Errorf("expected a key as the second item of filter %v", base)
	}

	for _, rawValue := range base[2:] {
		value, err := valueToString(rawValue)
		if err != nil {
			return false, err
		}

		var shown bool
		switch thing {
		case FilterThingType:
			shown = value == objectFilterType
		case FilterThingClass:
			shown = isClassTypeShown(value, sourceLayer, tags, mapMapboxGLClassToOSMTags)
		case FilterThingSubclass:
			shown = isClassTypeShown(value, sourceLayer, tags, mapMapboxGLSubclassToOSMTags)
		case "brunnel", "intermittent", "admin_level":
			// TODO map brunnel to the OSM bridge/tunnel tags
			shown = false
		default:
			// other keys are compared to the OSM tag directly
			shown = tags.Find(thing) == value
		}

		if shown {
			return true, nil
		}
	}

	return false, nil
}

func has(base []interface{}, tags osm.Tags) (bool, errorsx.Error) {
	if len(base) != 2 {
		return false, errorsx.Errorf("expected 1 key in filter %v, but got %d", base, len(base)-1)
	}

	key, ok := base[1].(string)
	if !ok {
		return false, errorsx.Errorf("expected a key as the second item of filter %v", base)
	}

	return tags.Find(key) != "", nil
}

func isObjectShown(filter Filter, sourceLayer string, tags osm.Tags, objectFilterType string) (bool, errorsx.Error) {
	if filter == nil {
		return true, nil
	}

	base, ok := filter.([]interface{})
	if !ok || len(base) == 0 {
		return false, errorsx.Errorf("unknown filter: %v", filter)
	}

	operator, ok := base[0].(string)
	if !ok {
		return false, errorsx.Errorf("expected an operator as the first item of filter %v", base)
	}

	switch operator {
	case FilterOperatorEquals, FilterOperatorIn:
		if operator == FilterOperatorEquals && len(base) != 3 {
			return false, errorsx.Errorf("expected 3 items in filter %v, but got %d", base, len(base))
		}
		return isIn(base, sourceLayer, tags, objectFilterType)
	case FilterOperatorNotEqual, FilterOperatorNotIn:
		if operator == FilterOperatorNotEqual && len(base) != 3 {
			return false, errorsx.Errorf("expected 3 items in filter %v, but got %d", base, len(base))
		}
		shown, err := isIn(base, sourceLayer, tags, objectFilterType)
		return !shown, err
	case FilterOperatorHas:
		return has(base, tags)
	case FilterOperatorNotHas:
		shown, err := has(base, tags)
		return !shown, err
	case FilterOperatorAny:
		for _, subFilterComponent := range base[1:] {
			shown, err := isObjectShown(subFilterComponent, sourceLayer, tags, objectFilterType)
			if err != nil {
				return false, err
			}
			if shown {
				return true, nil
			}
		}
		return false, nil
	case FilterOperatorAll, FilterOperatorNone:
		for _, subFilterComponent := range base[1:] {
			shown, err := isObjectShown(subFilterComponent, sourceLayer, tags, objectFilterType)
			if err != nil {
				return false, err
			}
			if shown == (operator == FilterOperatorNone) {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, errorsx.Errorf("filter operator not implemented: %q", operator)
	}
}
