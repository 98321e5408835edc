package tilerenderer

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-viewport/styling"
	"github.com/jamesrr39/ownmap-viewport/tilegrid"
)

// Parameters are the settings shared by every tile of a viewport
type Parameters struct {
	Style styling.Style
	// StyleLayerID is the style menu layer to draw. Empty means the menu's default layer
	StyleLayerID string
	// ScaleFactor scales line widths and text sizes, on top of the screen density
	ScaleFactor float64
}

func (p Parameters) Validate() errorsx.Error {
	if p.Style == nil {
		return errorsx.Errorf("no style set")
	}
	if p.ScaleFactor <= 0 {
		return errorsx.Errorf("scale factor must be greater than 0, but was %f", p.ScaleFactor)
	}
	return nil
}

type DebugSettings struct {
	DrawTileFrames      bool
	DrawTileCoordinates bool
}

// RenderJob is everything needed to render one tile
type RenderJob struct {
	Key tilegrid.TileKey
	Parameters
	Debug DebugSettings
}

func NewRenderJob(key tilegrid.TileKey, parameters Parameters, debug DebugSettings) RenderJob {
	return RenderJob{
		Key:        key,
		Parameters: parameters,
		Debug:      debug,
	}
}
