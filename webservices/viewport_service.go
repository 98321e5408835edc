package webservices

import (
	"image"
	"net/http"
	"sync"

	"github.com/go-chi/chi"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-viewport/mapviewer"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/paulmach/orb"
	"github.com/pkg/profile"
)

const (
	defaultSurfaceSize = 512
	maxSurfaceSize     = 4096
)

// ViewportService draws the viewer's surface. Moving the viewport through the query moves it for all clients.
type ViewportService struct {
	logger        *logpkg.Logger
	viewer        *mapviewer.Viewer
	shouldProfile bool
	// mu keeps a move and the draw after it together
	mu sync.Mutex
	chi.Router
}

func NewViewportService(logger *logpkg.Logger, viewer *mapviewer.Viewer, shouldProfile bool) *ViewportService {
	vs := &ViewportService{
		logger:        logger,
		viewer:        viewer,
		shouldProfile: shouldProfile,
		Router:        chi.NewRouter(),
	}

	vs.Get("/", vs.handleGetViewport)

	return vs
}

func (vs *ViewportService) handleGetViewport(w http.ResponseWriter, r *http.Request) {
	if vs.shouldProfile {
		defer profile.Start().Stop()
	}

	width, err := intQueryParam(r, "width", defaultSurfaceSize, 1, maxSurfaceSize)
	if err != nil {
		errorsx.HTTPError(w, vs.logger, err, http.StatusBadRequest)
		return
	}

	height, err := intQueryParam(r, "height", defaultSurfaceSize, 1, maxSurfaceSize)
	if err != nil {
		errorsx.HTTPError(w, vs.logger, err, http.StatusBadRequest)
		return
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()

	state := vs.viewer.State()
	center := state.Center
	zoom := state.Zoom

	lon, ok, err := floatQueryParam(r, "lon")
	if err != nil {
		errorsx.HTTPError(w, vs.logger, err, http.StatusBadRequest)
		return
	}
	if ok {
		center = orb.Point{lon, center.Lat()}
	}

	lat, ok, err := floatQueryParam(r, "lat")
	if err != nil {
		errorsx.HTTPError(w, vs.logger, err, http.StatusBadRequest)
		return
	}
	if ok {
		center = orb.Point{center.Lon(), lat}
	}

	zoomInt, err := intQueryParam(r, "zoom", int(zoom), int(mercator.MinZoomLevel), int(mercator.MaxZoomLevel))
	if err != nil {
		errorsx.HTTPError(w, vs.logger, err, http.StatusBadRequest)
		return
	}

	_, err = vs.viewer.MoveTo(r.Context(), center, mercator.ZoomLevel(zoomInt))
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errorsx.Cause(err) == mercator.ErrInvalidArgument {
			statusCode = http.StatusBadRequest
		}
		errorsx.HTTPError(w, vs.logger, err, statusCode)
		return
	}

	surface := image.NewRGBA(image.Rect(0, 0, width, height))
	err = vs.viewer.Draw(surface)
	if err != nil {
		errorsx.HTTPError(w, vs.logger, err, http.StatusInternalServerError)
		return
	}

	writePNG(w, vs.logger, surface)
}
