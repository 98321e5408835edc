package styling

import (
	"image/color"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/paulmach/osm"
)

const (
	CategoryLanduse  = "landuse"
	CategoryWater    = "water"
	CategoryRoads    = "roads"
	CategoryPaths    = "paths"
	CategoryRailways = "railways"
	CategoryPlaces   = "places"
)

const basicStyleMenuXML = `
<stylemenu id="basicmenu" defaultvalue="full" defaultlang="en">
	<layer id="waterbodies" enabled="true">
		<name lang="en" value="Water"/>
		<name lang="cs" value="Vodní plochy"/>
		<cat id="water"/>
	</layer>
	<layer id="paths" enabled="false">
		<name lang="en" value="Footpaths and cycleways"/>
		<name lang="cs" value="Stezky a cyklostezky"/>
		<cat id="paths"/>
	</layer>
	<layer id="base" visible="true">
		<name lang="en" value="Base map"/>
		<name lang="cs" value="Základní mapa"/>
		<cat id="landuse"/>
		<cat id="roads"/>
		<overlay id="waterbodies"/>
		<overlay id="paths"/>
	</layer>
	<layer id="full" parent="base" visible="true">
		<name lang="en" value="Full map"/>
		<name lang="cs" value="Plná mapa"/>
		<cat id="railways"/>
		<cat id="places"/>
	</layer>
</stylemenu>`

var basicStyleMenu *StyleMenu

func init() {
	menu, err := ParseStyleMenuXML(strings.NewReader(basicStyleMenuXML))
	if err != nil {
		panic(err)
	}

	basicStyleMenu = menu
}

type CustomBasicStyle struct{}

func (_ *CustomBasicStyle) GetBackground() color.Color {
	return color.RGBA{0xf2, 0xef, 0xe9, 0xff}
}

func (_ *CustomBasicStyle) GetStyleID() string {
	return BUILTIN_STYLEID
}

func (_ *CustomBasicStyle) GetStyleMenu() *StyleMenu {
	return basicStyleMenu
}

func (_ *CustomBasicStyle) GetNodeStyle(tags osm.Tags, zoomLevel mercator.ZoomLevel) (*NodeStyle, errorsx.Error) {
	place := tags.Find("place")
	if place == "" || tags.Find("name") == "" {
		return nil, nil
	}

	switch place {
	case "city":
		return &NodeStyle{TextSize: 16, TextColor: color.Black, ZIndex: zindexPlace, Category: CategoryPlaces}, nil
	case "town", "suburb":
		return &NodeStyle{TextSize: 13, TextColor: color.Black, ZIndex: zindexPlace, Category: CategoryPlaces}, nil
	default:
		if zoomLevel < 12 {
			return nil, nil
		}
		return &NodeStyle{TextSize: 10, TextColor: color.RGBA{0x33, 0x33, 0x33, 0xff}, ZIndex: zindexPlace, Category: CategoryPlaces}, nil
	}
}

const (
	zindexForest      = 1
	zindexResidential = 2
	zindexWater       = 3
	zindexRailway     = 4
	zindexHighway     = 5
	zindexPlace       = 6
)

var forestStyle = &WayStyle{
	FillColor: color.RGBA{172, 200, 160, 0xff},
	ZIndex:    zindexForest,
	Category:  CategoryLanduse,
}

var waterStyle = &WayStyle{
	FillColor: color.RGBA{0xaa, 0xd3, 0xdf, 0xff},
	LineColor: color.RGBA{0xaa, 0xd3, 0xdf, 0xff},
	ZIndex:    zindexWater,
	Category:  CategoryWater,
}

func (_ *CustomBasicStyle) GetWayStyle(tags osm.Tags, zoomLevel mercator.ZoomLevel) (*WayStyle, errorsx.Error) {
	var highwayType string
	for _, tag := range tags {
		switch tag.Key {
		case "highway":
			highwayType = tag.Value
		case "railway":
			return &WayStyle{
				LineColor: color.RGBA{190, 190, 190, 0xff},
				LineWidth: 3,
				ZIndex:    zindexRailway,
				Category:  CategoryRailways,
			}, nil
		case "natural":
			switch tag.Value {
			case "wood":
				return forestStyle, nil
			case "water":
				return waterStyle, nil
			}
		case "waterway":
			return &WayStyle{
				LineColor: waterStyle.LineColor,
				LineWidth: 2,
				ZIndex:    zindexWater,
				Category:  CategoryWater,
			}, nil
		case "landuse":
			switch tag.Value {
			case "forest":
				return forestStyle, nil
			case "residential":
				return &WayStyle{
					FillColor: color.RGBA{223, 223, 223, 0xff},
					ZIndex:    zindexResidential,
					Category:  CategoryLanduse,
				}, nil
			}
		}
	}

	if highwayType == "" {
		// not shown
		return nil, nil
	}

	wayStyle := &WayStyle{
		LineWidth: 2,
		ZIndex:    zindexHighway,
		Category:  CategoryRoads,
	}
	switch highwayType {
	case "motorway", "motorway_link":
		wayStyle.LineColor = color.RGBA{0xe8, 0x92, 0xa2, 0xff}
		wayStyle.LineWidth = 4
	case "trunk", "trunk_link":
		wayStyle.LineColor = color.RGBA{0xf9, 0xb2, 0x9c, 0xff}
		wayStyle.LineWidth = 4
	case "primary", "primary_link":
		wayStyle.LineColor = color.RGBA{0xfc, 0xd6, 0xa4, 0xff}
		wayStyle.LineWidth = 3
	case "secondary", "secondary_link":
		wayStyle.LineColor = color.RGBA{0xf7, 0xfa, 0xbf, 0xff}
		wayStyle.LineWidth = 3
	case "tertiary", "tertiary_link":
		wayStyle.LineColor = color.RGBA{0xc8, 0xc8, 0xc8, 0xff}
	case "unclassified", "residential", "living_street", "service", "track", "pedestrian":
		wayStyle.LineColor = color.RGBA{0xbc, 0xac, 0xa5, 0xff}
		wayStyle.LineWidth = 1.5
	case "footway", "path", "steps":
		wayStyle.LineColor = color.RGBA{0xfa, 0x80, 0x72, 0xff}
		wayStyle.LineWidth = 1
		wayStyle.LineDashPolicy = []float64{2, 2}
		wayStyle.Category = CategoryPaths
	case "bridleway", "cycleway":
		wayStyle.LineColor = color.RGBA{0, 0, 0xff, 0xff}
		wayStyle.LineWidth = 1
		wayStyle.LineDashPolicy = []float64{4, 2}
		wayStyle.Category = CategoryPaths
	default:
		return nil, errorsx.Errorf("unhandled highway type: %q", highwayType)
	}

	if zoomLevel < 10 && wayStyle.LineWidth < 3 {
		// minor roads are noise at low zoom levels
		return nil, nil
	}

	return wayStyle, nil
}
