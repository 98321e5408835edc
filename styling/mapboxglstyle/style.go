package mapboxglstyle

import (
	"encoding/json"
	"image/color"
	"io"
	"path/filepath"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/jamesrr39/ownmap-viewport/styling"
	"github.com/paulmach/osm"
)

const supportedVersion = 8

type Source struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Style is a render theme read from a Mapbox GL style document (https://docs.mapbox.com/mapbox-gl-js/style-spec/).
// Layers later in the document are drawn on top of earlier ones.
type Style struct {
	Version int               `json:"version"`
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Sources map[string]Source `json:"sources"`
	Layers  []*Layer          `json:"layers"`

	background color.Color
}

func Parse(reader io.Reader) (*Style, errorsx.Error) {
	style := new(Style)
	err := json.NewDecoder(reader).Decode(style)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	if style.Version != supportedVersion {
		return nil, errorsx.Errorf("unsupported Mapbox GL style version %d (only version %d is supported)", style.Version, supportedVersion)
	}

	if style.ID == "" {
		style.ID = style.Name
	}

	if style.ID == "" {
		return nil, errorsx.Errorf("style has neither an id nor a name")
	}

	if style.ID == styling.BUILTIN_STYLEID {
		return nil, errorsx.Errorf("style ID %q is reserved for the built-in style", style.ID)
	}

	style.background = color.White
	for _, layer := range style.Layers {
		validationErr := layer.Validate()
		if validationErr != nil {
			return nil, errorsx.Wrap(validationErr, "styleId", style.ID)
		}

		if layer.Type == LayerTypeBackground && layer.Paint != nil && layer.Paint.BackgroundColor != nil {
			style.background = layer.Paint.BackgroundColor.GetColorAtZoomLevel(mercator.MinZoomLevel)
		}
	}

	return style, nil
}

// ParseFile reads a style document, or the style.json inside it if path is a directory
func ParseFile(fs gofs.Fs, path string) (*Style, errorsx.Error) {
	fileInfo, err := fs.Stat(path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	if fileInfo.IsDir() {
		path = filepath.Join(path, "style.json")
	}

	file, err := fs.Open(path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}
	defer file.Close()

	style, parseErr := Parse(file)
	if parseErr != nil {
		return nil, errorsx.Wrap(parseErr, "path", path)
	}

	return style, nil
}

// GetNodeStyle gives the style of the top-most layer drawing the node
func (s *Style) GetNodeStyle(tags osm.Tags, zoomLevel mercator.ZoomLevel) (*styling.NodeStyle, errorsx.Error) {
	for i := len(s.Layers) - 1; i >= 0; i-- {
		nodeStyle, err := s.Layers[i].GetLayerNodeStyle(tags, zoomLevel, i)
		if err != nil {
			return nil, err
		}

		if nodeStyle != nil {
			return nodeStyle, nil
		}
	}

	return nil, nil
}

// GetWayStyle gives the style of the top-most layer drawing the way
func (s *Style) GetWayStyle(tags osm.Tags, zoomLevel mercator.ZoomLevel) (*styling.WayStyle, errorsx.Error) {
	for i := len(s.Layers) - 1; i >= 0; i-- {
		wayStyle, err := s.Layers[i].GetLayerWayStyle(tags, zoomLevel, i)
		if err != nil {
			return nil, err
		}

		if wayStyle != nil {
			return wayStyle, nil
		}
	}

	return nil, nil
}

func (s *Style) GetBackground() color.Color {
	return s.background
}

func (s *Style) GetStyleID() string {
	return s.ID
}

// GetStyleMenu is nil: Mapbox GL styles don't have a layer menu, so nothing is filtered out by category
func (s *Style) GetStyleMenu() *styling.StyleMenu {
	return nil
}
