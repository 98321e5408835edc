package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/jamesrr39/ownmap-viewport/tilegrid"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/paulmach/orb"
)

var DefaultGuideColor = color.RGBA{0xff, 0, 0, 0xff}

// Viewport is the part of the map shown on the surface: the surface center is drawn at Center
type Viewport struct {
	Center   orb.Point
	Zoom     mercator.ZoomLevel
	TileSize int
}

func (v Viewport) Validate() errorsx.Error {
	err := mercator.ValidateZoomLevel(v.Zoom)
	if err != nil {
		return err
	}

	return mercator.ValidateTileSize(v.TileSize)
}

// Compositor draws cached tiles onto a surface, aligned to the viewport
type Compositor struct {
	Background color.Color
	GuideColor color.Color
	// DrawGuides draws a horizontal and a vertical line through the surface center
	DrawGuides bool
}

func NewCompositor(background color.Color) *Compositor {
	return &Compositor{
		Background: background,
		GuideColor: DefaultGuideColor,
		DrawGuides: true,
	}
}

// Draw clears dst and draws every record of the viewport's zoom level that has an image,
// each at its pixel position relative to the viewport center. Records without an image are left out.
// It returns the amount of tiles drawn. The same viewport and records always give the same pixels.
func (c *Compositor) Draw(dst *image.RGBA, viewport Viewport, records []*tilegrid.TileRecord) (int, errorsx.Error) {
	err := viewport.Validate()
	if err != nil {
		return 0, err
	}

	mapSize, err := mercator.MapSize(viewport.Zoom, viewport.TileSize)
	if err != nil {
		return 0, err
	}

	offsetX, err := mercator.LongitudeToPixelX(viewport.Center.Lon(), mapSize)
	if err != nil {
		return 0, errorsx.Wrap(err, "center", viewport.Center)
	}

	offsetY, err := mercator.LatitudeToPixelY(viewport.Center.Lat(), mapSize)
	if err != nil {
		return 0, errorsx.Wrap(err, "center", viewport.Center)
	}

	bounds := dst.Bounds()
	middleX, middleY := middle(bounds)
	centerX := offsetX - (middleX - float64(bounds.Min.X))
	centerY := offsetY - (middleY - float64(bounds.Min.Y))

	draw.Draw(dst, bounds, image.NewUniform(c.Background), image.Point{}, draw.Src)

	var drawn int
	for _, record := range records {
		if record.Key.Zoom != viewport.Zoom {
			continue
		}

		img := record.Image()
		if img == nil {
			continue
		}

		pxLeft, err := mercator.LongitudeToPixelX(record.Lon, mapSize)
		if err != nil {
			return drawn, errorsx.Wrap(err, "tile", record.Key.String())
		}

		pxTop, err := mercator.LatitudeToPixelY(record.Lat, mapSize)
		if err != nil {
			return drawn, errorsx.Wrap(err, "tile", record.Key.String())
		}

		topLeft := bounds.Min.Add(image.Point{
			X: int(math.Round(pxLeft - centerX)),
			Y: int(math.Round(pxTop - centerY)),
		})

		imgBounds := img.Bounds()
		draw.Draw(dst, image.Rectangle{Min: topLeft, Max: topLeft.Add(imgBounds.Size())}, img, imgBounds.Min, draw.Over)
		drawn++
	}

	if c.DrawGuides {
		c.drawGuides(dst)
	}

	return drawn, nil
}

// middle is where the viewport center is drawn. With an even size it falls on the edge between two pixels
func middle(bounds image.Rectangle) (float64, float64) {
	return float64(bounds.Min.X) + float64(bounds.Dx())/2, float64(bounds.Min.Y) + float64(bounds.Dy())/2
}

func (c *Compositor) drawGuides(dst *image.RGBA) {
	bounds := dst.Bounds()
	middleX, middleY := middle(bounds)

	gc := draw2dimg.NewGraphicContext(dst)
	gc.SetStrokeColor(c.GuideColor)
	gc.SetLineWidth(1)

	gc.BeginPath()
	gc.MoveTo(float64(bounds.Min.X), middleY)
	gc.LineTo(float64(bounds.Max.X), middleY)
	gc.MoveTo(middleX, float64(bounds.Min.Y))
	gc.LineTo(middleX, float64(bounds.Max.Y))
	gc.Stroke()
}
