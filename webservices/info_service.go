package webservices

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-viewport/mapsource"
	"github.com/jamesrr39/ownmap-viewport/mapviewer"
	"github.com/jamesrr39/ownmap-viewport/styling"
	"github.com/paulmach/osm"
)

type viewportStateGetter interface {
	State() mapviewer.ViewportState
}

func NewInfoService(logger *logpkg.Logger, mapSource *mapsource.MapSource, viewer viewportStateGetter, styleSet *styling.StyleSet, styleLayerID string) *InfoService {
	ws := &InfoService{logger, mapSource, viewer, styleSet, styleLayerID, chi.NewRouter()}
	ws.Get("/", ws.handleGet)

	return ws
}

type InfoService struct {
	logger       *logpkg.Logger
	mapSource    *mapsource.MapSource
	viewer       viewportStateGetter
	styleSet     *styling.StyleSet
	styleLayerID string
	chi.Router
}

type stylesType struct {
	DefaultStyleID string   `json:"defaultStyleId"`
	StyleIDs       []string `json:"styleIds"`
}

type styleLayerType struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Enabled bool   `json:"enabled"`
	Visible bool   `json:"visible"`
}

type viewportType struct {
	CenterLon float64 `json:"centerLon"`
	CenterLat float64 `json:"centerLat"`
	Zoom      uint8   `json:"zoom"`
	TileSize  int     `json:"tileSize"`
	MapSize   int64   `json:"mapSize"`
}

type mapSourceType struct {
	Bounds            osm.Bounds `json:"bounds"`
	PreferredLanguage string     `json:"preferredLanguage"`
	CountryCode       string     `json:"countryCode"`
}

type infoType struct {
	Viewport          viewportType     `json:"viewport"`
	MapSource         mapSourceType    `json:"mapSource"`
	Style             stylesType       `json:"style"`
	StyleLayers       []styleLayerType `json:"styleLayers"`
	EnabledCategories []string         `json:"enabledCategories"`
}

func (ws *InfoService) handleGet(w http.ResponseWriter, r *http.Request) {
	state := ws.viewer.State()
	defaultStyle := ws.styleSet.GetDefaultStyle()

	info := infoType{
		Viewport: viewportType{
			CenterLon: state.Center.Lon(),
			CenterLat: state.Center.Lat(),
			Zoom:      uint8(state.Zoom),
			TileSize:  state.TileSize,
			MapSize:   state.MapSize,
		},
		MapSource: mapSourceType{
			Bounds:            ws.mapSource.Bounds(),
			PreferredLanguage: ws.mapSource.PreferredLanguage(),
			CountryCode:       ws.mapSource.CountryCode(),
		},
		Style: stylesType{
			defaultStyle.GetStyleID(),
			ws.styleSet.GetAllStyleIDs(),
		},
		StyleLayers:       []styleLayerType{},
		EnabledCategories: []string{},
	}

	menu := defaultStyle.GetStyleMenu()
	if menu != nil {
		for _, layer := range menu.Layers() {
			info.StyleLayers = append(info.StyleLayers, styleLayerType{
				ID:      layer.ID,
				Title:   layer.Title(ws.mapSource.PreferredLanguage()),
				Enabled: layer.Enabled,
				Visible: layer.Visible,
			})
		}

		layerID := ws.styleLayerID
		if layerID == "" {
			layerID = menu.DefaultValue
		}

		categories := styling.EnabledCategories(menu, layerID)
		if categories != nil {
			info.EnabledCategories = categories.Sorted()
		}
	}

	render.JSON(w, r, info)
}
