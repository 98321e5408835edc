package config

import (
	"math"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/userextra"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/jamesrr39/ownmap-viewport/styling"
	"github.com/jamesrr39/ownmap-viewport/tilerenderer"
	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"
)

const (
	// MaxRadius keeps the tile block small enough to render on demand
	MaxRadius = 5
)

type DebugConfig struct {
	DrawTileFrames      bool `yaml:"drawTileFrames"`
	DrawTileCoordinates bool `yaml:"drawTileCoordinates"`
}

// ViewerConfig is the configuration of a map viewer. Fields not set in a config file keep their default values
type ViewerConfig struct {
	MapFile           string  `yaml:"mapFile"`
	CenterLon         float64 `yaml:"centerLon"`
	CenterLat         float64 `yaml:"centerLat"`
	Zoom              uint8   `yaml:"zoom"`
	TileSize          int     `yaml:"tileSize"`
	ScaleFactor       float64 `yaml:"scaleFactor"`
	ScreenDensity     float64 `yaml:"screenDensity"`
	Radius            uint    `yaml:"radius"`
	Workers           uint    `yaml:"workers"`
	RetainDistance    uint    `yaml:"retainDistance"`
	StyleID           string  `yaml:"styleId"`
	StyleLayerID      string  `yaml:"styleLayerId"`
	PreferredLanguage string  `yaml:"preferredLanguage"`
	CountryCode       string  `yaml:"countryCode"`

	// ExtraStyles are paths to Mapbox GL style documents, or directories holding a style.json
	ExtraStyles []string    `yaml:"extraStyles"`
	Debug       DebugConfig `yaml:"debug"`
}

// DefaultViewerConfig shows central Prague
func DefaultViewerConfig() *ViewerConfig {
	return &ViewerConfig{
		CenterLon:         14.42974,
		CenterLat:         50.07978,
		Zoom:              14,
		TileSize:          256,
		ScaleFactor:       1.5,
		ScreenDensity:     1,
		Radius:            1,
		Workers:           1,
		StyleID:           styling.BUILTIN_STYLEID,
		PreferredLanguage: "cs",
		CountryCode:       "cz",
	}
}

// Load reads the YAML config file at path over the defaults. An empty path gives the defaults.
// Paths starting with ~/ are in the user's home directory.
func Load(fs gofs.Fs, path string) (*ViewerConfig, errorsx.Error) {
	viewerConfig := DefaultViewerConfig()

	if path == "" {
		return viewerConfig, nil
	}

	expandedPath, err := userextra.ExpandUser(path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	data, err := fs.ReadFile(expandedPath)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", expandedPath)
	}

	err = yaml.Unmarshal(data, viewerConfig)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", expandedPath)
	}

	if viewerConfig.MapFile != "" {
		viewerConfig.MapFile, err = userextra.ExpandUser(viewerConfig.MapFile)
		if err != nil {
			return nil, errorsx.Wrap(err, "path", expandedPath)
		}
	}

	for i, stylePath := range viewerConfig.ExtraStyles {
		viewerConfig.ExtraStyles[i], err = userextra.ExpandUser(stylePath)
		if err != nil {
			return nil, errorsx.Wrap(err, "path", expandedPath)
		}
	}

	validationErr := viewerConfig.Validate()
	if validationErr != nil {
		return nil, errorsx.Wrap(validationErr, "path", expandedPath)
	}

	return viewerConfig, nil
}

func (c *ViewerConfig) Validate() errorsx.Error {
	if math.IsNaN(c.CenterLon) || c.CenterLon < -180 || c.CenterLon > 180 {
		return errorsx.Errorf("center longitude must be between -180 and 180, but was %v", c.CenterLon)
	}

	if math.IsNaN(c.CenterLat) || c.CenterLat < -90 || c.CenterLat > 90 {
		return errorsx.Errorf("center latitude must be between -90 and 90, but was %v", c.CenterLat)
	}

	err := mercator.ValidateZoomLevel(c.ZoomLevel())
	if err != nil {
		return err
	}

	err = mercator.ValidateTileSize(c.TileSize)
	if err != nil {
		return err
	}

	if c.ScaleFactor <= 0 {
		return errorsx.Errorf("scale factor must be greater than 0, but was %v", c.ScaleFactor)
	}

	if c.ScreenDensity <= 0 {
		return errorsx.Errorf("screen density must be greater than 0, but was %v", c.ScreenDensity)
	}

	if c.Radius > MaxRadius {
		return errorsx.Errorf("radius must be at most %d, but was %d", MaxRadius, c.Radius)
	}

	if c.RetainDistance != 0 && c.RetainDistance < c.Radius {
		return errorsx.Errorf("retain distance must be 0 or at least the radius (%d), but was %d", c.Radius, c.RetainDistance)
	}

	return nil
}

func (c *ViewerConfig) Center() orb.Point {
	return orb.Point{c.CenterLon, c.CenterLat}
}

func (c *ViewerConfig) ZoomLevel() mercator.ZoomLevel {
	return mercator.ZoomLevel(c.Zoom)
}

func (c *ViewerConfig) RenderParameters(style styling.Style) tilerenderer.Parameters {
	return tilerenderer.Parameters{
		Style:        style,
		StyleLayerID: c.StyleLayerID,
		ScaleFactor:  c.ScaleFactor,
	}
}

func (c *ViewerConfig) DebugSettings() tilerenderer.DebugSettings {
	return tilerenderer.DebugSettings{
		DrawTileFrames:      c.Debug.DrawTileFrames,
		DrawTileCoordinates: c.Debug.DrawTileCoordinates,
	}
}
