package mapboxglstyle

import (
	"image/color"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/jamesrr39/ownmap-viewport/styling"
	"github.com/paulmach/osm"
)

type LayerType string

const (
	LayerTypeBackground    LayerType = "background"
	LayerTypeFill          LayerType = "fill"
	LayerTypeLine          LayerType = "line"
	LayerTypeSymbol        LayerType = "symbol"
	LayerTypeRaster        LayerType = "raster"
	LayerTypeCircle        LayerType = "circle"
	LayerTypeFillExtrusion LayerType = "fill-extrusion"
	LayerTypeHeatmap       LayerType = "heatmap"
	LayerTypeHillshade     LayerType = "hillshade"
)

const (
	defaultTextSize  = 16
	defaultLineWidth = 1
	maxStyleZoom     = 24
)

type Layer struct {
	ID          string                 `json:"id"`
	Type        LayerType              `json:"type"`
	Source      string                 `json:"source"`
	SourceLayer string                 `json:"source-layer"`
	Filter      Filter                 `json:"filter"`
	MinZoom     *float64               `json:"minzoom"`
	MaxZoom     *float64               `json:"maxzoom"`
	Layout      *Layout                `json:"layout"`
	Paint       *Paint                 `json:"paint"`
	Metadata    map[string]interface{} `json:"metadata"`
}

func (l *Layer) Validate() errorsx.Error {
	if l.MaxZoom != nil && l.MinZoom != nil {
		if *l.MaxZoom < *l.MinZoom {
			return errorsx.Errorf("layer %q: max zoom is smaller than min zoom", l.ID)
		}
	}

	if l.MaxZoom != nil && (*l.MaxZoom < 0 || *l.MaxZoom > maxStyleZoom) {
		return errorsx.Errorf("layer %q: max zoom must be between 0 and %d (inclusive) but was %f", l.ID, maxStyleZoom, *l.MaxZoom)
	}

	if l.MinZoom != nil && (*l.MinZoom < 0 || *l.MinZoom > maxStyleZoom) {
		return errorsx.Errorf("layer %q: min zoom must be between 0 and %d (inclusive) but was %f", l.ID, maxStyleZoom, *l.MinZoom)
	}

	return nil
}

// isShownAtZoomLevel checks visibility and the [minzoom, maxzoom) range
func (l *Layer) isShownAtZoomLevel(zoomLevel mercator.ZoomLevel) bool {
	if l.Layout != nil && l.Layout.Visibility == VisibilityNone {
		return false
	}

	zoom := float64(zoomLevel)
	if l.MinZoom != nil && zoom < *l.MinZoom {
		return false
	}

	if l.MaxZoom != nil && zoom >= *l.MaxZoom {
		return false
	}

	return true
}

func (l *Layer) paint() *Paint {
	if l.Paint == nil {
		return &Paint{}
	}
	return l.Paint
}

func (l *Layer) GetLayerNodeStyle(tags osm.Tags, zoomLevel mercator.ZoomLevel, layerIndex int) (*styling.NodeStyle, errorsx.Error) {
	if l.Type != LayerTypeSymbol || l.SourceLayer != SourceLayerPlace {
		return nil, nil
	}

	if !l.isShownAtZoomLevel(zoomLevel) || !areTagsInSourceLayer(l.SourceLayer, tags) {
		return nil, nil
	}

	shown, err := isObjectShown(l.Filter, l.SourceLayer, tags, FilterThingTypePoint)
	if err != nil {
		return nil, errorsx.Wrap(err, "layer", l.ID)
	}

	if !shown {
		return nil, nil
	}

	textSize := float64(defaultTextSize)
	if l.Layout != nil && l.Layout.TextSize != nil {
		textSize = l.Layout.TextSize.GetValueAtZoomLevel(zoomLevel)
	}

	var textColor color.Color = color.Black
	paintTextColor := l.paint().TextColor.GetColorAtZoomLevel(zoomLevel)
	if paintTextColor != nil {
		textColor = paintTextColor
	}

	return &styling.NodeStyle{
		TextSize:  int(textSize),
		TextColor: textColor,
		ZIndex:    layerIndex,
		Category:  l.SourceLayer,
	}, nil
}

func (l *Layer) GetLayerWayStyle(tags osm.Tags, zoomLevel mercator.ZoomLevel, layerIndex int) (*styling.WayStyle, errorsx.Error) {
	if l.Type != LayerTypeFill && l.Type != LayerTypeLine {
		return nil, nil
	}

	if !l.isShownAtZoomLevel(zoomLevel) {
		return nil, nil
	}

	tagsInSourceLayer := areTagsInSourceLayer(l.SourceLayer, tags)
	if !tagsInSourceLayer {
		// OSM Way doesn't "belong" in this sourceLayer, skip everything
		return nil, nil
	}

	shown, err := isObjectShown(l.Filter, l.SourceLayer, tags, geometryTypeForSourceLayer(l.SourceLayer))
	if err != nil {
		return nil, errorsx.Wrap(err, "layer", l.ID)
	}

	if !shown {
		return nil, nil
	}

	paint := l.paint()
	wayStyle := &styling.WayStyle{
		ZIndex:   layerIndex,
		Category: l.SourceLayer,
	}

	switch l.Type {
	case LayerTypeFill:
		wayStyle.FillColor = paint.FillColor.GetColorAtZoomLevel(zoomLevel)
		if wayStyle.FillColor == nil {
			return nil, nil
		}
	case LayerTypeLine:
		wayStyle.LineColor = paint.LineColor.GetColorAtZoomLevel(zoomLevel)
		wayStyle.LineWidth = defaultLineWidth
		if paint.LineWidth != nil {
			wayStyle.LineWidth = paint.LineWidth.GetValueAtZoomLevel(zoomLevel)
		}
		wayStyle.LineDashPolicy = paint.LineDashArray

		if wayStyle.LineColor == nil || wayStyle.LineWidth == 0 {
			// there is no line to draw, so don't show this item
			return nil, nil
		}
	}

	return wayStyle, nil
}
