package webservices

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-viewport/mapsource"
	"github.com/paulmach/osm"
)

type NearbyPlacesWebService struct {
	logger    *logpkg.Logger
	mapSource *mapsource.MapSource
	chi.Router
}

func NewNearbyPlacesWebService(logger *logpkg.Logger, mapSource *mapsource.MapSource) *NearbyPlacesWebService {
	router := chi.NewRouter()
	service := &NearbyPlacesWebService{logger, mapSource, router}

	router.Get("/", service.handleGet)
	return service
}

type nearbyPlaceType struct {
	ID    osm.NodeID `json:"id"`
	Label string     `json:"label"`
	Place string     `json:"place"`
	Lon   float64    `json:"lon"`
	Lat   float64    `json:"lat"`
}

type getNearbyPlacesResponseType struct {
	Places []nearbyPlaceType `json:"places"`
}

func (s *NearbyPlacesWebService) handleGet(w http.ResponseWriter, r *http.Request) {
	bounds, err := parseBoundsString(r.URL.Query().Get("bounds"))
	if err != nil {
		errorsx.HTTPError(w, s.logger, err, http.StatusBadRequest)
		return
	}

	response := getNearbyPlacesResponseType{Places: []nearbyPlaceType{}}

	if !s.mapSource.Overlaps(*bounds) {
		render.JSON(w, r, response)
		return
	}

	for _, place := range s.mapSource.PlacesInBounds(*bounds) {
		placeType := place.Tags.Find("place")
		if placeType == "" {
			continue
		}

		response.Places = append(response.Places, nearbyPlaceType{
			ID:    place.ID,
			Label: s.mapSource.Label(place.Tags),
			Place: placeType,
			Lon:   place.Point.Lon(),
			Lat:   place.Point.Lat(),
		})
	}

	// make deterministic
	sort.Slice(response.Places, func(a, b int) bool {
		return response.Places[a].ID < response.Places[b].ID
	})

	render.JSON(w, r, response)
}

// (S,W,N,E)
// (50.07,14.40,50.10,14.45)
func parseBoundsString(boundsString string) (*osm.Bounds, errorsx.Error) {
	bounds := &osm.Bounds{}

	withoutBrackets := strings.TrimPrefix(strings.TrimSuffix(boundsString, ")"), "(")
	fragments := strings.Split(withoutBrackets, ",")
	if len(fragments) != 4 {
		return nil, errorsx.Errorf("expected 4 bounds, but got %d. A bounds URL parameter should be in the format 'bounds=(S,W,N,E)'", len(fragments))
	}

	for index, fragment := range fragments {
		coordinate, err := strconv.ParseFloat(strings.TrimSpace(fragment), 64)
		if err != nil {
			return nil, errorsx.Wrap(err, "fragment", fragment)
		}

		switch index {
		case 0:
			bounds.MinLat = coordinate
		case 1:
			bounds.MinLon = coordinate
		case 2:
			bounds.MaxLat = coordinate
		case 3:
			bounds.MaxLon = coordinate
		}
	}

	if bounds.MinLat > bounds.MaxLat || bounds.MinLon > bounds.MaxLon {
		return nil, errorsx.Errorf("bounds minimum is greater than maximum: %q", boundsString)
	}

	return bounds, nil
}
