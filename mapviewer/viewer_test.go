package mapviewer

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/jamesrr39/ownmap-viewport/styling"
	"github.com/jamesrr39/ownmap-viewport/tilegrid"
	"github.com/jamesrr39/ownmap-viewport/tilerenderer"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zoomColorRenderer fills each tile with a colour depending on its zoom level
type zoomColorRenderer struct{}

func zoomColor(zoom mercator.ZoomLevel) color.RGBA {
	return color.RGBA{uint8(zoom) * 10, 0x40, 0x40, 0xff}
}

func (r *zoomColorRenderer) RenderTile(ctx context.Context, job tilerenderer.RenderJob) (image.Image, errorsx.Error) {
	if !job.Key.IsInWorld() {
		return nil, errorsx.Wrap(tilerenderer.ErrTileOutOfRange)
	}

	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	draw.Draw(img, img.Bounds(), image.NewUniform(zoomColor(job.Key.Zoom)), image.Point{}, draw.Src)
	return img, nil
}

var pragueCenter = orb.Point{14.42974, 50.07978}

func newTestViewer(t *testing.T) *Viewer {
	state, err := NewViewportState(pragueCenter, 14, 256)
	require.NoError(t, err)

	logger := logpkg.NewLogger(io.Discard, logpkg.LogLevelDebug)
	viewer, err := NewViewer(logger, &zoomColorRenderer{}, state, Options{
		Radius: tilegrid.DefaultRadius,
		Parameters: tilerenderer.Parameters{
			Style:       &styling.CustomBasicStyle{},
			ScaleFactor: 1.5,
		},
	})
	require.NoError(t, err)

	return viewer
}

func TestNewViewportState(t *testing.T) {
	state, err := NewViewportState(pragueCenter, 14, 256)
	require.NoError(t, err)
	assert.Equal(t, int64(4194304), state.MapSize)

	_, err = NewViewportState(pragueCenter, 23, 256)
	assert.Equal(t, mercator.ErrInvalidArgument, errorsx.Cause(err))

	_, err = NewViewportState(pragueCenter, 14, 0)
	assert.Equal(t, mercator.ErrInvalidArgument, errorsx.Cause(err))
}

func TestViewer_LoadAndDraw(t *testing.T) {
	viewer := newTestViewer(t)

	records, err := viewer.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 9)

	select {
	case <-viewer.Refresh():
	default:
		t.Error("expected a refresh after loading tiles")
	}

	// nine loads are coalesced into one refresh
	select {
	case <-viewer.Refresh():
		t.Error("expected only one pending refresh")
	default:
	}

	surface := image.NewRGBA(image.Rect(0, 0, 512, 512))
	err = viewer.Draw(surface)
	require.NoError(t, err)
	assert.Equal(t, zoomColor(14), surface.RGBAAt(20, 20))
	assert.Equal(t, zoomColor(14), surface.RGBAAt(500, 500))
}

func TestViewer_SetZoom(t *testing.T) {
	viewer := newTestViewer(t)

	_, err := viewer.Load(context.Background())
	require.NoError(t, err)

	records, err := viewer.SetZoom(context.Background(), 15)
	require.NoError(t, err)
	require.Len(t, records, 9)

	state := viewer.State()
	assert.Equal(t, mercator.ZoomLevel(15), state.Zoom)
	assert.Equal(t, int64(8388608), state.MapSize)
	assert.Equal(t, 18, viewer.Cache().Len())

	surface := image.NewRGBA(image.Rect(0, 0, 512, 512))
	err = viewer.Draw(surface)
	require.NoError(t, err)
	assert.Equal(t, zoomColor(15), surface.RGBAAt(20, 20))

	// an invalid zoom level leaves the state as it was
	_, err = viewer.SetZoom(context.Background(), 40)
	require.Error(t, err)
	assert.Equal(t, state, viewer.State())
}

func TestViewer_Recenter(t *testing.T) {
	viewer := newTestViewer(t)

	records, err := viewer.Recenter(context.Background(), orb.Point{-180, 85})
	require.NoError(t, err)
	require.Len(t, records, 9)

	var withImage int
	for _, record := range records {
		if record.HasImage() {
			withImage++
		}
	}
	// the column of tiles west of the antimeridian is outside the world, so isn't rendered
	assert.Equal(t, 6, withImage)
	assert.Equal(t, orb.Point{-180, 85}, viewer.State().Center)

	_, err = viewer.Recenter(context.Background(), orb.Point{math.NaN(), 0})
	require.Error(t, err)
	assert.Equal(t, orb.Point{-180, 85}, viewer.State().Center)
}

func TestViewer_Recenter_offTheWorld(t *testing.T) {
	viewer := newTestViewer(t)

	centers := []orb.Point{
		{540, 50.07978},
		{-180.5, 50.07978},
		{14.42974, 95},
		{14.42974, -90.1},
	}
	for _, center := range centers {
		records, err := viewer.Recenter(context.Background(), center)
		require.Error(t, err, "center %v", center)
		assert.Equal(t, mercator.ErrInvalidArgument, errorsx.Cause(err))
		assert.Nil(t, records)

		_, err = viewer.MoveTo(context.Background(), center, 10)
		require.Error(t, err, "center %v", center)
		assert.Equal(t, mercator.ErrInvalidArgument, errorsx.Cause(err))
	}

	assert.Equal(t, pragueCenter, viewer.State().Center)
	assert.Equal(t, mercator.ZoomLevel(14), viewer.State().Zoom)
	assert.Zero(t, viewer.Cache().Len())
}

func TestViewer_MoveTo(t *testing.T) {
	viewer := newTestViewer(t)

	records, err := viewer.MoveTo(context.Background(), orb.Point{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, records, 9)

	// 0,0 is on the corner of 4 tiles; the tile south east of the corner contains it
	assert.Equal(t, tilegrid.NewTileKey(2, 2, 2), records[4].Key)
	assert.Equal(t, 9, viewer.Cache().Len())

	state := viewer.State()
	assert.Equal(t, orb.Point{0, 0}, state.Center)
	assert.Equal(t, mercator.ZoomLevel(2), state.Zoom)
	assert.Equal(t, int64(1024), state.MapSize)

	_, err = viewer.MoveTo(context.Background(), orb.Point{10, 10}, 23)
	require.Error(t, err)
	assert.Equal(t, state, viewer.State())
}

func TestViewer_RetainDistance(t *testing.T) {
	state, err := NewViewportState(pragueCenter, 14, 256)
	require.NoError(t, err)

	logger := logpkg.NewLogger(io.Discard, logpkg.LogLevelDebug)
	options := Options{
		Radius:         tilegrid.DefaultRadius,
		RetainDistance: 1,
		Parameters: tilerenderer.Parameters{
			Style:       &styling.CustomBasicStyle{},
			ScaleFactor: 1.5,
		},
	}
	viewer, err := NewViewer(logger, &zoomColorRenderer{}, state, options)
	require.NoError(t, err)

	_, err = viewer.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, viewer.Cache().Len())

	// one tile east: the west column is evicted, a new east column is loaded
	_, err = viewer.Recenter(context.Background(), orb.Point{pragueCenter.Lon() + 0.022, pragueCenter.Lat()})
	require.NoError(t, err)
	assert.Equal(t, 9, viewer.Cache().Len())
	assert.Nil(t, viewer.Cache().Get(tilegrid.NewTileKey(8847, 5550, 14)))
	assert.NotNil(t, viewer.Cache().Get(tilegrid.NewTileKey(8850, 5550, 14)))

	// tiles of the old zoom level are evicted
	_, err = viewer.SetZoom(context.Background(), 15)
	require.NoError(t, err)
	assert.Equal(t, 9, viewer.Cache().Len())
	for _, record := range viewer.Cache().Records() {
		assert.Equal(t, mercator.ZoomLevel(15), record.Key.Zoom)
	}

	options.Radius = 2
	_, err = NewViewer(logger, &zoomColorRenderer{}, state, options)
	assert.Error(t, err)
}
