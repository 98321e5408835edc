package tilerenderer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-viewport/mapsource"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/jamesrr39/ownmap-viewport/styling"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

var (
	ErrNoDataAvailable = errors.New("no data available")
	ErrTileOutOfRange  = errors.New("tile out of range")
)

const (
	// places just outside the tile can have labels reaching into it
	extraLatDegs = 0.01
	extraLonDegs = 0.01
)

var (
	tileFrameColor       = color.RGBA{0xff, 0, 0, 0xff}
	tileCoordinatesColor = color.RGBA{0, 0, 0xff, 0xff}
)

type RasterRenderer struct {
	logger        *logpkg.Logger
	mapSource     *mapsource.MapSource
	font          *truetype.Font
	screenDensity float64

	densityMu    sync.Mutex
	densityCache styling.DensityCache
}

// NewRasterRenderer creates a renderer drawing tiles of the map source's tile size.
// screenDensity is the amount of pixels per density-independent pixel of the display.
func NewRasterRenderer(logger *logpkg.Logger, mapSource *mapsource.MapSource, font *truetype.Font, screenDensity float64) *RasterRenderer {
	return &RasterRenderer{
		logger:        logger,
		mapSource:     mapSource,
		font:          font,
		screenDensity: screenDensity,
	}
}

func (rr *RasterRenderer) TileSize() int {
	return rr.mapSource.TilePixelSize()
}

func (rr *RasterRenderer) RenderTextTile(size image.Rectangle, text string) (image.Image, errorsx.Error) {
	img := image.NewRGBA(size)
	x := size.Max.X / 2
	y := size.Max.Y / 2

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(rr.font)
	ctx.SetFontSize(16.0)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.NewUniform(color.Black))

	_, err := ctx.DrawString(text, freetype.Pt(x, y))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return img, nil
}

// RenderTile draws the ways and places of one tile.
// Tiles outside the world fail with ErrTileOutOfRange, tiles outside the map source with ErrNoDataAvailable.
func (rr *RasterRenderer) RenderTile(ctx context.Context, job RenderJob) (image.Image, errorsx.Error) {
	renderSpan := startSpan(ctx, "render tile "+job.Key.String())
	defer renderSpan.End(ctx)

	err := job.Parameters.Validate()
	if err != nil {
		return nil, errorsx.Wrap(err, "tile", job.Key.String())
	}

	err = mercator.ValidateZoomLevel(job.Key.Zoom)
	if err != nil {
		return nil, errorsx.Wrap(err, "tile", job.Key.String())
	}

	if !job.Key.IsInWorld() {
		return nil, errorsx.Wrap(ErrTileOutOfRange, "tile", job.Key.String())
	}

	tileSize := rr.TileSize()
	bounds, err := mercator.TileBounds(job.Key.X, job.Key.Y, job.Key.Zoom, tileSize)
	if err != nil {
		return nil, errorsx.Wrap(err, "tile", job.Key.String())
	}

	if !rr.mapSource.Overlaps(bounds) {
		return nil, errorsx.Wrap(ErrNoDataAvailable, "tile", job.Key.String())
	}

	mapSize, err := mercator.MapSize(job.Key.Zoom, tileSize)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	getDataSpan := startSpan(ctx, "get data")
	ways := rr.mapSource.WaysInBounds(bounds)
	places := rr.mapSource.PlacesInBounds(osm.Bounds{
		MinLat: bounds.MinLat - extraLatDegs,
		MaxLat: bounds.MaxLat + extraLatDegs,
		MinLon: bounds.MinLon - extraLonDegs,
		MaxLon: bounds.MaxLon,
	})
	getDataSpan.End(ctx)

	rr.logger.Debug("tile %s: %d ways and %d places found", job.Key, len(ways), len(places))

	tile := &tileProjection{
		mapSize: mapSize,
		originX: float64(job.Key.X * int64(tileSize)),
		originY: float64(job.Key.Y * int64(tileSize)),
	}

	img, err := rr.drawMap(ctx, job, tile, image.Rect(0, 0, tileSize, tileSize), ways, places)
	if err != nil {
		return nil, errorsx.Wrap(err, "tile", job.Key.String())
	}

	if job.Debug.DrawTileFrames {
		drawTileFrame(img)
	}

	if job.Debug.DrawTileCoordinates {
		err = rr.drawTileCoordinates(img, job)
		if err != nil {
			return nil, errorsx.Wrap(err, "tile", job.Key.String())
		}
	}

	return img, nil
}

// tileProjection places geographic points on the tile image
type tileProjection struct {
	mapSize int64
	originX float64
	originY float64
}

func (tp *tileProjection) toPixel(point orb.Point) (float64, float64, errorsx.Error) {
	pixelX, err := mercator.LongitudeToPixelX(point.Lon(), tp.mapSize)
	if err != nil {
		return 0, 0, err
	}

	pixelY, err := mercator.LatitudeToPixelY(point.Lat(), tp.mapSize)
	if err != nil {
		return 0, 0, err
	}

	return pixelX - tp.originX, pixelY - tp.originY, nil
}

func (rr *RasterRenderer) dpPixels(value float64) float64 {
	rr.densityMu.Lock()
	defer rr.densityMu.Unlock()

	return styling.DpPixels(&rr.densityCache, rr.screenDensity, value, true)
}

func (rr *RasterRenderer) drawMap(
	ctx context.Context,
	job RenderJob,
	tile *tileProjection,
	size image.Rectangle,
	ways []*mapsource.Way,
	places []*mapsource.Place,
) (*image.RGBA, errorsx.Error) {
	drawMapSpan := startSpan(ctx, "drawMap")
	defer drawMapSpan.End(ctx)

	style := job.Style
	zoomLevel := job.Key.Zoom

	img := NewImageWithBackground(size, style.GetBackground())

	layerID := job.StyleLayerID
	menu := style.GetStyleMenu()
	if layerID == "" && menu != nil {
		layerID = menu.DefaultValue
	}
	categories := styling.EnabledCategories(menu, layerID)

	type itemWithStyleType struct {
		ItemStyle styling.ItemStyle
		Item      interface{}
	}

	var itemStyles []itemWithStyleType

	for _, way := range ways {
		wayStyle, err := style.GetWayStyle(way.Tags, zoomLevel)
		if err != nil {
			rr.logger.Warn("error getting style for way %d. Error: %q", way.ID, err)
			continue
		}

		if wayStyle == nil {
			// this element shouldn't be shown
			continue
		}

		if wayStyle.ZIndex == 0 {
			return nil, errorsx.Errorf("no zindex provided")
		}

		if !styling.IsCategoryEnabled(categories, wayStyle.Category) {
			continue
		}

		itemStyles = append(itemStyles, itemWithStyleType{wayStyle, way})
	}

	for _, place := range places {
		nodeStyle, err := style.GetNodeStyle(place.Tags, zoomLevel)
		if err != nil {
			return nil, err
		}

		if nodeStyle == nil {
			continue
		}

		if nodeStyle.ZIndex == 0 {
			return nil, errorsx.Errorf("no zindex provided")
		}

		if !styling.IsCategoryEnabled(categories, nodeStyle.Category) {
			continue
		}

		itemStyles = append(itemStyles, itemWithStyleType{nodeStyle, place})
	}

	// lowest zindex at the bottom (first to be drawn), highest at the top (last to be drawn)
	sort.SliceStable(itemStyles, func(a, b int) bool {
		return itemStyles[a].ItemStyle.GetZIndex() < itemStyles[b].ItemStyle.GetZIndex()
	})

	for _, itemStyleAndItem := range itemStyles {
		switch itemStyle := itemStyleAndItem.ItemStyle.(type) {
		case *styling.NodeStyle:
			place := itemStyleAndItem.Item.(*mapsource.Place)
			err := rr.drawPlace(img, tile, place, itemStyle, job.ScaleFactor)
			if err != nil {
				return nil, err
			}
		case *styling.WayStyle:
			way := itemStyleAndItem.Item.(*mapsource.Way)
			err := rr.drawWay(img, tile, way.Points, itemStyle, job.ScaleFactor)
			if err != nil {
				return nil, err
			}
		default:
			return nil, errorsx.Errorf("didn't understand object %#v", itemStyleAndItem.ItemStyle)
		}
	}

	return img, nil
}

func (rr *RasterRenderer) drawPlace(img draw.Image, tile *tileProjection, place *mapsource.Place, nodeStyle *styling.NodeStyle, scaleFactor float64) errorsx.Error {
	name := rr.mapSource.Label(place.Tags)
	if name == "" {
		return nil
	}

	x, y, err := tile.toPixel(place.Point)
	if err != nil {
		return err
	}

	fontSize := rr.dpPixels(float64(nodeStyle.TextSize)) * scaleFactor

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(rr.font)
	ctx.SetFontSize(fontSize)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.NewUniform(nodeStyle.TextColor))

	_, drawErr := ctx.DrawString(name, freetype.Pt(int(math.Floor(x)), int(math.Floor(y))))
	if drawErr != nil {
		return errorsx.Wrap(drawErr, "place", place.ID)
	}

	return nil
}

func (rr *RasterRenderer) drawWay(img *image.RGBA, tile *tileProjection, lineString orb.LineString, lineStyle *styling.WayStyle, scaleFactor float64) errorsx.Error {
	var points []point
	for _, wayPoint := range lineString {
		x, y, err := tile.toPixel(wayPoint)
		if err != nil {
			return err
		}

		points = append(points, point{x, y})
	}

	gc := draw2dimg.NewGraphicContext(img)
	drawLine(gc, points, lineStyle, rr.dpPixels(lineStyle.LineWidth)*scaleFactor)

	return nil
}

// point is a position in pixels, relative to the top-left of the tile
type point struct {
	X float64
	Y float64
}

func drawLine(gc *draw2dimg.GraphicContext, points []point, lineStyle *styling.WayStyle, lineWidth float64) {
	if len(points) == 0 {
		return
	}

	if lineStyle.FillColor != nil {
		gc.SetFillColor(lineStyle.FillColor)
	}
	if lineStyle.LineColor != nil {
		gc.SetStrokeColor(lineStyle.LineColor)
	}
	if lineWidth != 0 {
		gc.SetLineWidth(lineWidth)
	}
	if lineStyle.LineDashPolicy != nil {
		gc.SetLineDash(lineStyle.LineDashPolicy, 0)
	}
	gc.BeginPath()

	for i, p := range points {
		if i == 0 {
			gc.MoveTo(p.X, p.Y)
		} else {
			gc.LineTo(p.X, p.Y)
		}
	}

	switch {
	case lineStyle.FillColor != nil && lineStyle.LineColor != nil:
		gc.LineTo(points[0].X, points[0].Y)
		gc.FillStroke()
	case lineStyle.FillColor != nil:
		gc.LineTo(points[0].X, points[0].Y)
		gc.Fill()
	default:
		gc.Stroke()
	}
}

func drawTileFrame(img *image.RGBA) {
	bounds := img.Bounds()
	maxX := float64(bounds.Max.X) - 0.5
	maxY := float64(bounds.Max.Y) - 0.5

	gc := draw2dimg.NewGraphicContext(img)
	gc.SetStrokeColor(tileFrameColor)
	gc.SetLineWidth(1)
	gc.BeginPath()
	gc.MoveTo(0.5, 0.5)
	gc.LineTo(maxX, 0.5)
	gc.LineTo(maxX, maxY)
	gc.LineTo(0.5, maxY)
	gc.LineTo(0.5, 0.5)
	gc.Stroke()
}

func (rr *RasterRenderer) drawTileCoordinates(img *image.RGBA, job RenderJob) errorsx.Error {
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(rr.font)
	ctx.SetFontSize(rr.dpPixels(12) * job.ScaleFactor)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.NewUniform(tileCoordinatesColor))

	_, err := ctx.DrawString(job.Key.String(), freetype.Pt(4, img.Bounds().Max.Y/2))
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}
