package mapviewer

import (
	"context"
	"image"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-viewport/compositor"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/jamesrr39/ownmap-viewport/tilecache"
	"github.com/jamesrr39/ownmap-viewport/tilegrid"
	"github.com/jamesrr39/ownmap-viewport/tilerenderer"
	"github.com/paulmach/orb"
)

// ViewportState is where the viewer is looking. Tile size and map size always belong to the current zoom level.
type ViewportState struct {
	Center   orb.Point
	Zoom     mercator.ZoomLevel
	TileSize int
	MapSize  int64
}

func NewViewportState(center orb.Point, zoom mercator.ZoomLevel, tileSize int) (ViewportState, errorsx.Error) {
	state := ViewportState{Center: center}

	err := state.setZoom(zoom, tileSize)
	if err != nil {
		return ViewportState{}, err
	}

	return state, nil
}

// setZoom changes the zoom level, tile size and map size together, or leaves the state as it was on error
func (s *ViewportState) setZoom(zoom mercator.ZoomLevel, tileSize int) errorsx.Error {
	mapSize, err := mercator.MapSize(zoom, tileSize)
	if err != nil {
		return err
	}

	s.Zoom = zoom
	s.TileSize = tileSize
	s.MapSize = mapSize
	return nil
}

func (s ViewportState) Viewport() compositor.Viewport {
	return compositor.Viewport{
		Center:   s.Center,
		Zoom:     s.Zoom,
		TileSize: s.TileSize,
	}
}

type Options struct {
	Radius         uint
	// Workers is the amount of tiles rendered at once. 0 or 1 renders one tile after another
	Workers        uint
	// RetainDistance evicts cached tiles further than this many tiles from the center tile, or of another zoom level,
	// after each load. 0 keeps every tile.
	RetainDistance uint
	Parameters     tilerenderer.Parameters
	Debug          tilerenderer.DebugSettings
}

// Viewer selects the tiles around the viewport center, resolves them through the tile cache
// and composites them onto a surface. Safe for concurrent use.
type Viewer struct {
	logger     *logpkg.Logger
	cache      *tilecache.TileCache
	selector   *tilegrid.Selector
	compositor *compositor.Compositor
	workers    uint
	retain     int64

	mu      sync.RWMutex
	state   ViewportState
	refresh chan struct{}
}

func NewViewer(logger *logpkg.Logger, renderer tilecache.TileRenderer, state ViewportState, options Options) (*Viewer, errorsx.Error) {
	err := options.Parameters.Validate()
	if err != nil {
		return nil, err
	}

	if options.RetainDistance != 0 && options.RetainDistance < options.Radius {
		return nil, errorsx.Errorf("retain distance (%d) must be 0 or at least the radius (%d)", options.RetainDistance, options.Radius)
	}

	cache := tilecache.NewTileCache(logger, renderer, state.TileSize, options.Parameters, options.Debug)

	viewer := &Viewer{
		logger:     logger,
		cache:      cache,
		selector:   tilegrid.NewSelector(options.Radius),
		compositor: compositor.NewCompositor(options.Parameters.Style.GetBackground()),
		workers:    options.Workers,
		retain:     int64(options.RetainDistance),
		state:      state,
		refresh:    make(chan struct{}, 1),
	}

	cache.SetOnLoad(viewer.onTileLoaded)

	return viewer, nil
}

func (v *Viewer) onTileLoaded(key tilegrid.TileKey) {
	select {
	case v.refresh <- struct{}{}:
	default:
		// a refresh is already pending
	}
}

// Refresh receives a value after tiles have been loaded, to tell the host the surface should be redrawn.
// Loads in quick succession are coalesced into one value.
func (v *Viewer) Refresh() <-chan struct{} {
	return v.refresh
}

func (v *Viewer) State() ViewportState {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.state
}

func (v *Viewer) Cache() *tilecache.TileCache {
	return v.cache
}

// Load resolves the tiles around the current center. Failed tiles are logged by the cache and left blank.
func (v *Viewer) Load(ctx context.Context) ([]*tilegrid.TileRecord, errorsx.Error) {
	state := v.State()

	keys, err := v.selector.Select(state.Center, state.Zoom, state.TileSize)
	if err != nil {
		return nil, errorsx.Wrap(err, "center", state.Center, "zoom", state.Zoom)
	}

	records, err := v.cache.ResolveAll(ctx, keys, v.workers)
	if err != nil {
		return nil, err
	}

	v.logger.Debug("loaded %d tiles around %v at zoom %d", len(records), state.Center, state.Zoom)

	if v.retain > 0 {
		centerKey := tilegrid.CenterKey(keys)
		evicted := v.cache.Evict(func(key tilegrid.TileKey) bool {
			return key.Distance(centerKey) <= v.retain
		})
		if evicted > 0 {
			v.logger.Debug("evicted %d tiles further than %d tiles from %s", evicted, v.retain, centerKey)
		}
	}

	return records, nil
}

// validateCenter rejects centers off the world. Tile corners may lie past ±180, a center may not
func validateCenter(center orb.Point) errorsx.Error {
	_, err := mercator.LongitudeToPixelX(center.Lon(), 1)
	if err != nil {
		return err
	}

	_, err = mercator.LatitudeToPixelY(center.Lat(), 1)
	if err != nil {
		return err
	}

	if center.Lon() < -180 || center.Lon() > 180 {
		return errorsx.Wrap(mercator.ErrInvalidArgument, "reason", "longitude out of range", "longitude", center.Lon())
	}

	if center.Lat() < -90 || center.Lat() > 90 {
		return errorsx.Wrap(mercator.ErrInvalidArgument, "reason", "latitude out of range", "latitude", center.Lat())
	}

	return nil
}

// update applies modify to a copy of the state, keeping the copy only if modify succeeds
func (v *Viewer) update(modify func(state *ViewportState) errorsx.Error) errorsx.Error {
	v.mu.Lock()
	defer v.mu.Unlock()

	newState := v.state
	err := modify(&newState)
	if err != nil {
		return err
	}

	v.state = newState
	return nil
}

// Recenter moves the viewport and loads the tiles around the new center
func (v *Viewer) Recenter(ctx context.Context, center orb.Point) ([]*tilegrid.TileRecord, errorsx.Error) {
	err := validateCenter(center)
	if err != nil {
		return nil, err
	}

	err = v.update(func(state *ViewportState) errorsx.Error {
		state.Center = center
		return nil
	})
	if err != nil {
		return nil, err
	}

	return v.Load(ctx)
}

// SetZoom changes the zoom level and loads the tiles for it. Tiles of other zoom levels stay in the cache but are not drawn.
func (v *Viewer) SetZoom(ctx context.Context, zoom mercator.ZoomLevel) ([]*tilegrid.TileRecord, errorsx.Error) {
	err := v.update(func(state *ViewportState) errorsx.Error {
		return state.setZoom(zoom, v.cache.TileSize())
	})
	if err != nil {
		return nil, err
	}

	return v.Load(ctx)
}

// MoveTo changes the center and zoom level together, loading the tiles once
func (v *Viewer) MoveTo(ctx context.Context, center orb.Point, zoom mercator.ZoomLevel) ([]*tilegrid.TileRecord, errorsx.Error) {
	err := validateCenter(center)
	if err != nil {
		return nil, err
	}

	err = v.update(func(state *ViewportState) errorsx.Error {
		state.Center = center
		return state.setZoom(zoom, v.cache.TileSize())
	})
	if err != nil {
		return nil, err
	}

	return v.Load(ctx)
}

// Draw composites the cached tiles onto the surface
func (v *Viewer) Draw(surface *image.RGBA) errorsx.Error {
	state := v.State()

	drawn, err := v.compositor.Draw(surface, state.Viewport(), v.cache.Records())
	if err != nil {
		return err
	}

	v.logger.Debug("drew %d tiles", drawn)
	return nil
}
