package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/goutil/open"
	"github.com/jamesrr39/ownmap-viewport/config"
	"github.com/jamesrr39/ownmap-viewport/fonts"
	"github.com/jamesrr39/ownmap-viewport/mapsource"
	"github.com/jamesrr39/ownmap-viewport/mapviewer"
	"github.com/jamesrr39/ownmap-viewport/styling"
	"github.com/jamesrr39/ownmap-viewport/styling/mapboxglstyle"
	"github.com/jamesrr39/ownmap-viewport/tilerenderer"
	"github.com/jamesrr39/ownmap-viewport/webservices"
	"github.com/pkg/profile"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DEFAULT_PORT                = 9000
	MAX_SERVER_RUNNING_ATTEMPTS = 50
	DEFAULT_SURFACE_SIZE        = 512
)

var (
	verbose    = kingpin.Flag("v", "verbose logging").Bool()
	configPath = kingpin.Flag("config", "path to a YAML viewer config file. Flags given on the command line override values in the file").String()
	logFile    = kingpin.Flag("log-file", "also write the log to this file, rotated when it reaches 32MB").String()
)

func main() {
	setupRender()
	setupServe()

	kingpin.Parse()
}

func newLogger() *logpkg.Logger {
	logLevel := logpkg.LogLevelInfo
	if *verbose {
		logLevel = logpkg.LogLevelDebug
	}

	var writer io.Writer = os.Stderr
	if *logFile != "" {
		writer = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    32, // MB
			MaxBackups: 3,
			Compress:   true,
		})
	}

	return logpkg.NewLogger(writer, logLevel)
}

// viewerFlags are the config values that can be overridden on the command line. Empty strings are not set.
type viewerFlags struct {
	mapFile             *string
	lon                 *string
	lat                 *string
	zoom                *string
	styleLayerID        *string
	styleID             *string
	extraStyles         *string
	drawTileFrames      *bool
	drawTileCoordinates *bool
}

func addViewerFlags(cmd *kingpin.CmdClause) viewerFlags {
	return viewerFlags{
		mapFile:             cmd.Arg("map-file", "OSM XML (.osm) or PBF (.osm.pbf) file to read the map from").String(),
		lon:                 cmd.Flag("lon", "longitude of the viewport center").String(),
		lat:                 cmd.Flag("lat", "latitude of the viewport center").String(),
		zoom:                cmd.Flag("zoom", "zoom level").String(),
		styleLayerID:        cmd.Flag("style-layer-id", "layer of the style menu to draw").String(),
		styleID:             cmd.Flag("default-style-id", "ID of the style to render with").String(),
		extraStyles:         cmd.Flag("extra-styles", "comma separated list of paths to Mapbox GL style documents, or folders containing a style.json").String(),
		drawTileFrames:      cmd.Flag("draw-tile-frames", "draw a frame around each tile (debugging)").Bool(),
		drawTileCoordinates: cmd.Flag("draw-tile-coordinates", "draw the tile coordinates on each tile (debugging)").Bool(),
	}
}

func loadViewerConfig(fs gofs.Fs, flags viewerFlags) (*config.ViewerConfig, errorsx.Error) {
	viewerConfig, err := config.Load(fs, *configPath)
	if err != nil {
		return nil, err
	}

	err = applyViewerFlags(viewerConfig, flags)
	if err != nil {
		return nil, err
	}

	return viewerConfig, nil
}

func applyViewerFlags(viewerConfig *config.ViewerConfig, flags viewerFlags) errorsx.Error {
	if *flags.mapFile != "" {
		viewerConfig.MapFile = *flags.mapFile
	}

	if *flags.lon != "" {
		lon, err := strconv.ParseFloat(*flags.lon, 64)
		if err != nil {
			return errorsx.Wrap(err, "flag", "lon")
		}
		viewerConfig.CenterLon = lon
	}

	if *flags.lat != "" {
		lat, err := strconv.ParseFloat(*flags.lat, 64)
		if err != nil {
			return errorsx.Wrap(err, "flag", "lat")
		}
		viewerConfig.CenterLat = lat
	}

	if *flags.zoom != "" {
		zoom, err := strconv.ParseUint(*flags.zoom, 10, 8)
		if err != nil {
			return errorsx.Wrap(err, "flag", "zoom")
		}
		viewerConfig.Zoom = uint8(zoom)
	}

	if *flags.styleLayerID != "" {
		viewerConfig.StyleLayerID = *flags.styleLayerID
	}

	if *flags.styleID != "" {
		viewerConfig.StyleID = *flags.styleID
	}

	for _, path := range strings.Split(*flags.extraStyles, ",") {
		if path == "" {
			continue
		}
		viewerConfig.ExtraStyles = append(viewerConfig.ExtraStyles, path)
	}

	if *flags.drawTileFrames {
		viewerConfig.Debug.DrawTileFrames = true
	}

	if *flags.drawTileCoordinates {
		viewerConfig.Debug.DrawTileCoordinates = true
	}

	if viewerConfig.MapFile == "" {
		return errorsx.Errorf("no map file given. Give it as an argument, or as mapFile in the config file")
	}

	return viewerConfig.Validate()
}

type components struct {
	mapSource *mapsource.MapSource
	renderer  *tilerenderer.RasterRenderer
	styleSet  *styling.StyleSet
	viewer    *mapviewer.Viewer
}

// buildComponents opens the map source and puts the viewer together. Failing to open the map source is fatal for the caller.
func buildComponents(ctx context.Context, logger *logpkg.Logger, fs gofs.Fs, viewerConfig *config.ViewerConfig) (*components, errorsx.Error) {
	startTime := time.Now()

	mapSource, err := mapsource.Open(ctx, fs, viewerConfig.MapFile, mapsource.Options{
		TilePixelSize:     viewerConfig.TileSize,
		PreferredLanguage: viewerConfig.PreferredLanguage,
		CountryCode:       viewerConfig.CountryCode,
	})
	if err != nil {
		return nil, errorsx.Wrap(err, "mapFile", viewerConfig.MapFile)
	}

	logger.Info("read %q in %s", viewerConfig.MapFile, time.Since(startTime))

	styleSet, err := loadStyleSet(fs, viewerConfig)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	renderer := tilerenderer.NewRasterRenderer(logger, mapSource, fonts.DefaultFont(), viewerConfig.ScreenDensity)

	state, err := mapviewer.NewViewportState(viewerConfig.Center(), viewerConfig.ZoomLevel(), viewerConfig.TileSize)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	viewer, err := mapviewer.NewViewer(logger, renderer, state, mapviewer.Options{
		Radius:         viewerConfig.Radius,
		Workers:        viewerConfig.Workers,
		RetainDistance: viewerConfig.RetainDistance,
		Parameters:     viewerConfig.RenderParameters(styleSet.GetDefaultStyle()),
		Debug:          viewerConfig.DebugSettings(),
	})
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return &components{mapSource, renderer, styleSet, viewer}, nil
}

// loadStyleSet gives the built-in style plus the extra styles of the config
func loadStyleSet(fs gofs.Fs, viewerConfig *config.ViewerConfig) (*styling.StyleSet, errorsx.Error) {
	styles := []styling.Style{&styling.CustomBasicStyle{}}
	for _, styleDefinitionPath := range viewerConfig.ExtraStyles {
		style, err := mapboxglstyle.ParseFile(fs, styleDefinitionPath)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}

		styles = append(styles, style)
	}

	return styling.NewStyleSet(styles, viewerConfig.StyleID)
}

func setupRender() {
	cmd := kingpin.Command("render", "render the viewport around the center to a PNG file")
	flags := addViewerFlags(cmd)
	outputPath := cmd.Flag("output", "PNG file to write").Short('o').Required().String()
	width := cmd.Flag("width", "width of the image, in pixels").Default(strconv.Itoa(DEFAULT_SURFACE_SIZE)).Int()
	height := cmd.Flag("height", "height of the image, in pixels").Default(strconv.Itoa(DEFAULT_SURFACE_SIZE)).Int()
	shouldProfile := cmd.Flag("profile", "profile the render performance").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		run := func() errorsx.Error {
			logger := newLogger()
			fs := gofs.NewOsFs()

			if *shouldProfile {
				defer profile.Start().Stop()
			}

			if *width <= 0 || *height <= 0 {
				return errorsx.Errorf("width and height must be greater than 0, but were %dx%d", *width, *height)
			}

			viewerConfig, err := loadViewerConfig(fs, flags)
			if err != nil {
				return errorsx.Wrap(err)
			}

			c, err := buildComponents(context.Background(), logger, fs, viewerConfig)
			if err != nil {
				return errorsx.Wrap(err)
			}

			_, err = c.viewer.Load(context.Background())
			if err != nil {
				return errorsx.Wrap(err)
			}

			surface := image.NewRGBA(image.Rect(0, 0, *width, *height))
			err = c.viewer.Draw(surface)
			if err != nil {
				return errorsx.Wrap(err)
			}

			file, createErr := fs.Create(*outputPath)
			if createErr != nil {
				return errorsx.Wrap(createErr, "output", *outputPath)
			}
			defer file.Close()

			encodeErr := png.Encode(file, surface)
			if encodeErr != nil {
				return errorsx.Wrap(encodeErr, "output", *outputPath)
			}

			logger.Info("wrote %dx%d viewport to %q", *width, *height, *outputPath)
			return nil
		}

		err := run()
		if err != nil {
			return fmt.Errorf("error: %q\nStack trace:\n%s", err.Error(), err.Stack())
		}
		return nil
	})
}

var addrHelp = fmt.Sprintf(
	`address to serve on. Ex: ':%d' listen on port %d to traffic from anywhere. 'localhost:%d' listen on port %d to traffic from localhost`,
	DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT,
)

func setupServe() {
	cmd := kingpin.Command("serve", "serve the viewport, tiles and map info over HTTP")
	flags := addViewerFlags(cmd)
	addr := cmd.Flag("addr", addrHelp).Default(fmt.Sprintf(":%d", DEFAULT_PORT)).String()
	shouldProfile := cmd.Flag("profile", "profile the request performance").Bool()
	shouldOpen := cmd.Flag("open", "open the viewport in the browser once the server is running").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		run := func() errorsx.Error {
			logger := newLogger()
			fs := gofs.NewOsFs()

			viewerConfig, err := loadViewerConfig(fs, flags)
			if err != nil {
				return errorsx.Wrap(err)
			}

			c, err := buildComponents(context.Background(), logger, fs, viewerConfig)
			if err != nil {
				return errorsx.Wrap(err)
			}

			router, err := createServer(logger, c, viewerConfig, *shouldProfile)
			if err != nil {
				return errorsx.Wrap(err)
			}

			server := httpextra.NewServerWithTimeouts()
			server.Addr = *addr
			server.Handler = router

			if *shouldOpen {
				go openWhenRunning(logger, server.Addr)
			}

			logger.Info("about to start serving on %q", *addr)

			listenErr := server.ListenAndServe()
			if listenErr != nil {
				return errorsx.Wrap(listenErr)
			}
			return nil
		}

		err := run()
		if err != nil {
			return fmt.Errorf("error: %q\nStack trace:\n%s", err.Error(), err.Stack())
		}
		return nil
	})
}

func localURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return fmt.Sprintf("http://%s", addr)
}

// openWhenRunning waits for the API to answer, then opens the viewport in the browser
func openWhenRunning(logger *logpkg.Logger, addr string) {
	baseURL := localURL(addr)
	client := http.Client{
		Timeout: time.Second * 10,
	}

	for i := 0; i < MAX_SERVER_RUNNING_ATTEMPTS; i++ {
		resp, err := client.Get(baseURL + "/api/info")
		if err != nil {
			// retry after wait
			time.Sleep(time.Millisecond * 500)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			logger.Error("expected response code %d from /api/info call, but got %d", http.StatusOK, resp.StatusCode)
			return
		}

		err = open.OpenURL(baseURL + "/api/viewport.png")
		if err != nil {
			logger.Error("failed to open browser: %q", err)
		}
		return
	}

	logger.Error("server did not start after %d attempts", MAX_SERVER_RUNNING_ATTEMPTS)
}

func createServer(logger *logpkg.Logger, c *components, viewerConfig *config.ViewerConfig, shouldProfile bool) (chi.Router, errorsx.Error) {
	traceDirPath, err := ioutil.TempDir("", "ownmap-viewport")
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	traceFilePath := filepath.Join(traceDirPath, fmt.Sprintf("trace_%s.pbf", time.Now().Format("2006-01-02__03_04_05")))
	logger.Info("tracing at %q", traceFilePath)

	traceFile, err := os.Create(traceFilePath)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	tracer := tracing.NewTracer(traceFile)

	router := chi.NewRouter()
	router.Use(middleware.DefaultLogger)
	router.Use(tracing.Middleware(tracer))
	router.Route("/api/", func(r chi.Router) {
		r.Mount("/info", webservices.NewInfoService(logger, c.mapSource, c.viewer, c.styleSet, viewerConfig.StyleLayerID))
		r.Mount("/viewport.png", webservices.NewViewportService(logger, c.viewer, shouldProfile))
		r.Mount("/tiles/", webservices.NewTileService(logger, c.renderer, c.styleSet, viewerConfig.ScaleFactor, viewerConfig.DebugSettings(), shouldProfile))
		r.Mount("/nearby/", webservices.NewNearbyPlacesWebService(logger, c.mapSource))
	})

	return router, nil
}
