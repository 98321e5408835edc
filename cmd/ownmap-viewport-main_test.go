package main

import (
	"testing"

	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/jamesrr39/ownmap-viewport/config"
	"github.com/jamesrr39/ownmap-viewport/styling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViewerFlags(mapFile, lon, lat, zoom string) viewerFlags {
	styleLayerID := ""
	styleID := ""
	extraStyles := "/styles/bright,,/styles/dark/style.json"
	drawTileFrames := true
	drawTileCoordinates := false

	return viewerFlags{
		mapFile:             &mapFile,
		lon:                 &lon,
		lat:                 &lat,
		zoom:                &zoom,
		styleLayerID:        &styleLayerID,
		styleID:             &styleID,
		extraStyles:         &extraStyles,
		drawTileFrames:      &drawTileFrames,
		drawTileCoordinates: &drawTileCoordinates,
	}
}

func Test_applyViewerFlags(t *testing.T) {
	viewerConfig := config.DefaultViewerConfig()

	err := applyViewerFlags(viewerConfig, newViewerFlags("/maps/prague.osm.pbf", "14.4", "", "12"))
	require.NoError(t, err)

	assert.Equal(t, "/maps/prague.osm.pbf", viewerConfig.MapFile)
	assert.Equal(t, 14.4, viewerConfig.CenterLon)
	// not given, so the default is kept
	assert.Equal(t, 50.07978, viewerConfig.CenterLat)
	assert.Equal(t, uint8(12), viewerConfig.Zoom)
	assert.True(t, viewerConfig.Debug.DrawTileFrames)
	assert.False(t, viewerConfig.Debug.DrawTileCoordinates)
	assert.Equal(t, []string{"/styles/bright", "/styles/dark/style.json"}, viewerConfig.ExtraStyles)
}

func Test_applyViewerFlags_errors(t *testing.T) {
	tests := []struct {
		name  string
		flags viewerFlags
	}{
		{"no map file", newViewerFlags("", "", "", "")},
		{"non-numeric longitude", newViewerFlags("/maps/a.osm", "east", "", "")},
		{"zoom out of range", newViewerFlags("/maps/a.osm", "", "", "23")},
		{"zoom too large for a byte", newViewerFlags("/maps/a.osm", "", "", "300")},
		{"latitude out of range", newViewerFlags("/maps/a.osm", "", "95", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := applyViewerFlags(config.DefaultViewerConfig(), tt.flags)
			assert.Error(t, err)
		})
	}
}

func Test_localURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000", localURL(":9000"))
	assert.Equal(t, "http://127.0.0.1:8080", localURL("127.0.0.1:8080"))
}

func Test_loadStyleSet(t *testing.T) {
	fs := mockfs.NewMockFs()
	err := fs.WriteFile("/styles/dark/style.json", []byte(`{"version": 8, "id": "dark", "layers": [{"id": "bg", "type": "background", "paint": {"background-color": "#111"}}]}`), 0600)
	require.NoError(t, err)

	viewerConfig := config.DefaultViewerConfig()
	viewerConfig.ExtraStyles = []string{"/styles/dark"}
	viewerConfig.StyleID = "dark"

	styleSet, loadErr := loadStyleSet(fs, viewerConfig)
	require.NoError(t, loadErr)
	assert.Equal(t, []string{styling.BUILTIN_STYLEID, "dark"}, styleSet.GetAllStyleIDs())
	assert.Equal(t, "dark", styleSet.GetDefaultStyle().GetStyleID())

	t.Run("missing style", func(t *testing.T) {
		viewerConfig := config.DefaultViewerConfig()
		viewerConfig.ExtraStyles = []string{"/styles/missing"}

		_, err := loadStyleSet(fs, viewerConfig)
		assert.Error(t, err)
	})

	t.Run("unknown default style", func(t *testing.T) {
		viewerConfig := config.DefaultViewerConfig()
		viewerConfig.StyleID = "bright"

		_, err := loadStyleSet(fs, viewerConfig)
		assert.Error(t, err)
	})
}
