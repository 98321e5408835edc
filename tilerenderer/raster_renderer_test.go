package tilerenderer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-viewport/fonts"
	"github.com/jamesrr39/ownmap-viewport/mapsource"
	"github.com/jamesrr39/ownmap-viewport/styling"
	"github.com/jamesrr39/ownmap-viewport/tilegrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a forest covering the whole of tile 14/8848/5550
const forestExtract = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6">
	<node id="1" lat="50.07" lon="14.40" version="1"/>
	<node id="2" lat="50.10" lon="14.40" version="1"/>
	<node id="3" lat="50.10" lon="14.45" version="1"/>
	<node id="4" lat="50.07" lon="14.45" version="1"/>
	<node id="5" lat="50.0850" lon="14.4250" version="1">
		<tag k="place" v="suburb"/>
		<tag k="name" v="Nové Město"/>
	</node>
	<way id="10" version="1">
		<nd ref="1"/>
		<nd ref="2"/>
		<nd ref="3"/>
		<nd ref="4"/>
		<nd ref="1"/>
		<tag k="landuse" v="forest"/>
	</way>
</osm>`

var pragueTile = tilegrid.NewTileKey(8848, 5550, 14)

func newTestRenderer(t *testing.T) *RasterRenderer {
	fs := mockfs.NewMockFs()
	err := fs.WriteFile("/maps/forest.osm", []byte(forestExtract), 0600)
	require.NoError(t, err)

	mapSource, openErr := mapsource.Open(context.Background(), fs, "/maps/forest.osm", mapsource.Options{PreferredLanguage: "cs"})
	require.NoError(t, openErr)

	logger := logpkg.NewLogger(io.Discard, logpkg.LogLevelDebug)

	return NewRasterRenderer(logger, mapSource, fonts.DefaultFont(), 1)
}

func newTestParameters() Parameters {
	return Parameters{
		Style:       &styling.CustomBasicStyle{},
		ScaleFactor: 1,
	}
}

func TestRasterRenderer_RenderTile(t *testing.T) {
	renderer := newTestRenderer(t)
	style := &styling.CustomBasicStyle{}

	forestColor := color.RGBA{172, 200, 160, 0xff}
	backgroundColor := color.RGBAModel.Convert(style.GetBackground())

	tests := []struct {
		name         string
		styleLayerID string
		wantColor    color.Color
	}{
		{"default layer draws landuse", "", forestColor},
		{"full layer draws landuse", "full", forestColor},
		{"paths layer hides landuse", "paths", backgroundColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parameters := newTestParameters()
			parameters.StyleLayerID = tt.styleLayerID

			img, err := renderer.RenderTile(context.Background(), NewRenderJob(pragueTile, parameters, DebugSettings{}))
			require.NoError(t, err)

			assert.Equal(t, image.Rect(0, 0, 256, 256), img.Bounds())
			// bottom right corner, away from the place label
			assert.Equal(t, tt.wantColor, img.At(250, 250))
		})
	}
}

func TestRasterRenderer_RenderTile_errors(t *testing.T) {
	renderer := newTestRenderer(t)

	tests := []struct {
		name       string
		job        RenderJob
		wantCause  error
		checkCause bool
	}{
		{"tile west of the world", NewRenderJob(tilegrid.NewTileKey(-1, 5550, 14), newTestParameters(), DebugSettings{}), ErrTileOutOfRange, true},
		{"tile south of the world", NewRenderJob(tilegrid.NewTileKey(8848, 1<<14, 14), newTestParameters(), DebugSettings{}), ErrTileOutOfRange, true},
		{"tile without data", NewRenderJob(tilegrid.NewTileKey(0, 0, 14), newTestParameters(), DebugSettings{}), ErrNoDataAvailable, true},
		{"zoom level too high", NewRenderJob(tilegrid.NewTileKey(0, 0, 30), newTestParameters(), DebugSettings{}), nil, false},
		{"no style", NewRenderJob(pragueTile, Parameters{ScaleFactor: 1}, DebugSettings{}), nil, false},
		{"no scale factor", NewRenderJob(pragueTile, Parameters{Style: &styling.CustomBasicStyle{}}, DebugSettings{}), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := renderer.RenderTile(context.Background(), tt.job)
			require.Error(t, err)
			assert.Nil(t, img)
			if tt.checkCause {
				assert.Equal(t, tt.wantCause, errorsx.Cause(err))
			}
		})
	}
}

func TestRasterRenderer_RenderTile_debug(t *testing.T) {
	renderer := newTestRenderer(t)

	img, err := renderer.RenderTile(context.Background(), NewRenderJob(pragueTile, newTestParameters(), DebugSettings{
		DrawTileFrames:      true,
		DrawTileCoordinates: true,
	}))
	require.NoError(t, err)

	r, g, b, _ := img.At(0, 200).RGBA()
	assert.True(t, r > 0xc000, "expected the frame to be red, but got %v", img.At(0, 200))
	assert.True(t, g < 0x4000)
	assert.True(t, b < 0x4000)
}

func TestRasterRenderer_RenderTile_traced(t *testing.T) {
	renderer := newTestRenderer(t)

	tracer := tracing.NewTracer(new(bytes.Buffer))
	trace := tracing.StartTrace(tracer, "render test")

	ctx := context.WithValue(context.Background(), tracing.TracerCtxKey, tracer)
	ctx = context.WithValue(ctx, tracing.TraceCtxKey, trace)

	_, err := renderer.RenderTile(ctx, NewRenderJob(pragueTile, newTestParameters(), DebugSettings{}))
	require.NoError(t, err)

	var spanNames []string
	for _, span := range trace.Spans {
		spanNames = append(spanNames, span.Name)
	}
	assert.Equal(t, []string{"get data", "drawMap", "render tile 14/8848/5550"}, spanNames)
}

func TestRasterRenderer_RenderTextTile(t *testing.T) {
	renderer := newTestRenderer(t)

	img, err := renderer.RenderTextTile(image.Rect(0, 0, 256, 256), "(no data found)")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 256, 256), img.Bounds())

	var drawnPixels int
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a != 0 {
				drawnPixels++
			}
		}
	}
	assert.NotZero(t, drawnPixels)
}

func TestNewImageWithBackground(t *testing.T) {
	img := NewImageWithBackground(image.Rect(0, 0, 2, 2), color.White)
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, img.At(1, 1))
}
