package webservices

import (
	"context"
	"image"
	"image/png"
	"net"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/jamesrr39/ownmap-viewport/styling"
	"github.com/jamesrr39/ownmap-viewport/tilerenderer"
	"github.com/jamesrr39/semaphore"
	"github.com/pkg/profile"
)

type TileRenderer interface {
	RenderTile(ctx context.Context, job tilerenderer.RenderJob) (image.Image, errorsx.Error)
	RenderTextTile(size image.Rectangle, text string) (image.Image, errorsx.Error)
	TileSize() int
}

type TileService struct {
	logger        *logpkg.Logger
	sema          *semaphore.Semaphore
	rasterer      TileRenderer
	styleSet      *styling.StyleSet
	scaleFactor   float64
	debug         tilerenderer.DebugSettings
	shouldProfile bool
	chi.Router
}

func NewTileService(logger *logpkg.Logger, rasterer TileRenderer, styleSet *styling.StyleSet, scaleFactor float64, debug tilerenderer.DebugSettings, shouldProfile bool) *TileService {
	ts := &TileService{logger, semaphore.NewSemaphore(4), rasterer, styleSet, scaleFactor, debug, shouldProfile, chi.NewRouter()}

	ts.Get("/raster/{z}/{x}/{y}", ts.handleGetTile)

	return ts
}

func getStyle(styleSet *styling.StyleSet, styleID string) (styling.Style, errorsx.Error) {
	if styleID == "" {
		return styleSet.GetDefaultStyle(), nil
	}

	style := styleSet.GetStyleByID(styleID)
	if style == nil {
		return nil, errorsx.Errorf("couldn't get requested style %q (style not loaded)", styleID)
	}

	return style, nil
}

func (ts *TileService) handleGetTile(w http.ResponseWriter, r *http.Request) {
	if ts.shouldProfile {
		defer profile.Start().Stop()
	}

	key, err := tileKeyFromURL(r)
	if err != nil {
		errorsx.HTTPError(w, ts.logger, err, http.StatusBadRequest)
		return
	}

	style, err := getStyle(ts.styleSet, r.URL.Query().Get("styleId"))
	if err != nil {
		errorsx.HTTPError(w, ts.logger, err, http.StatusBadRequest)
		return
	}

	ts.logger.Debug("serving tile %s", key)

	ts.sema.Add()
	defer ts.sema.Done()

	job := tilerenderer.NewRenderJob(key, tilerenderer.Parameters{
		Style:        style,
		StyleLayerID: r.URL.Query().Get("styleLayerId"),
		ScaleFactor:  ts.scaleFactor,
	}, ts.debug)

	img, err := ts.rasterer.RenderTile(r.Context(), job)
	if err != nil {
		switch errorsx.Cause(err) {
		case tilerenderer.ErrNoDataAvailable:
			tileSize := ts.rasterer.TileSize()
			img, err = ts.rasterer.RenderTextTile(image.Rect(0, 0, tileSize, tileSize), "(no data found)")
			if err != nil {
				errorsx.HTTPError(w, ts.logger, err, http.StatusInternalServerError)
				return
			}
		case tilerenderer.ErrTileOutOfRange, mercator.ErrInvalidArgument:
			errorsx.HTTPError(w, ts.logger, err, http.StatusBadRequest)
			return
		default:
			errorsx.HTTPError(w, ts.logger, err, http.StatusInternalServerError)
			return
		}
	}

	writePNG(w, ts.logger, img)
}

func writePNG(w http.ResponseWriter, logger *logpkg.Logger, img image.Image) {
	w.Header().Set("Content-Type", "image/png")

	err := png.Encode(w, img)
	if err != nil {
		switch err.(type) {
		case *net.OpError:
			// broken pipe (request cancelled). Do nothing
		default:
			errorsx.HTTPError(w, logger, errorsx.Wrap(err), http.StatusInternalServerError)
		}
		return
	}
}
