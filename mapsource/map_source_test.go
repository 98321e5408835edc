package mapsource

import (
	"context"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pragueExtract = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
	<node id="1" lat="50.0755" lon="14.4378" version="1">
		<tag k="place" v="city"/>
		<tag k="name" v="Praha"/>
		<tag k="name:en" v="Prague"/>
	</node>
	<node id="2" lat="50.0800" lon="14.4200" version="1"/>
	<node id="3" lat="50.0850" lon="14.4400" version="1"/>
	<node id="4" lat="50.0700" lon="14.4500" version="1"/>
	<node id="5" lat="50.1000" lon="14.5000" version="1">
		<tag k="place" v="suburb"/>
		<tag k="name" v="Vysočany"/>
	</node>
	<way id="10" version="1">
		<nd ref="2"/>
		<nd ref="3"/>
		<tag k="highway" v="primary"/>
	</way>
	<way id="11" version="1">
		<nd ref="3"/>
		<nd ref="4"/>
	</way>
	<way id="12" version="1">
		<nd ref="4"/>
		<nd ref="999"/>
		<tag k="railway" v="rail"/>
	</way>
</osm>`

func newTestFs(t *testing.T, files map[string]string) mockfs.MockFs {
	fs := mockfs.NewMockFs()
	for path, contents := range files {
		err := fs.WriteFile(path, []byte(contents), 0600)
		require.NoError(t, err)
	}
	return fs
}

func TestOpen(t *testing.T) {
	fs := newTestFs(t, map[string]string{"/maps/prague.osm": pragueExtract})

	mapSource, err := Open(context.Background(), fs, "/maps/prague.osm", Options{PreferredLanguage: "en", CountryCode: "cz"})
	require.NoError(t, err)

	assert.Equal(t, DefaultTilePixelSize, mapSource.TilePixelSize())
	assert.Equal(t, "en", mapSource.PreferredLanguage())
	assert.Equal(t, "cz", mapSource.CountryCode())

	assert.Equal(t, osm.Bounds{
		MinLat: 50.07,
		MaxLat: 50.1,
		MinLon: 14.42,
		MaxLon: 14.5,
	}, mapSource.Bounds())

	// the untagged way and the railway with only one known node are left out
	require.Len(t, mapSource.ways, 1)
	assert.Equal(t, osm.WayID(10), mapSource.ways[0].ID)
	require.Len(t, mapSource.places, 2)
}

func TestOpen_errors(t *testing.T) {
	fs := newTestFs(t, map[string]string{
		"/maps/empty.osm":   `<?xml version="1.0" encoding="UTF-8"?><osm version="0.6"></osm>`,
		"/maps/garbage.osm": `this is not a map`,
		"/maps/prague.map":  pragueExtract,
	})

	tests := []struct {
		name      string
		path      string
		options   Options
		wantCause error
	}{
		{"missing file", "/maps/missing.osm", Options{}, nil},
		{"empty file", "/maps/empty.osm", Options{}, ErrEmptyMapSource},
		{"not a map", "/maps/garbage.osm", Options{}, nil},
		{"binary mapsforge file", "/maps/prague.map", Options{}, ErrUnsupportedFormat},
		{"bad tile size", "/maps/empty.osm", Options{TilePixelSize: 300}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), fs, tt.path, tt.options)
			require.Error(t, err)
			if tt.wantCause != nil {
				assert.Equal(t, tt.wantCause, errorsx.Cause(err))
			}
		})
	}
}

func TestMapSource_GetInBounds(t *testing.T) {
	fs := newTestFs(t, map[string]string{"/maps/prague.osm": pragueExtract})

	mapSource, err := Open(context.Background(), fs, "/maps/prague.osm", Options{})
	require.NoError(t, err)

	places, ways := mapSource.GetInBounds(osm.Bounds{MinLat: 50.07, MaxLat: 50.082, MinLon: 14.43, MaxLon: 14.44})
	require.Len(t, places, 1)
	assert.Equal(t, osm.NodeID(1), places[0].ID)
	// the way's extent crosses the bounds, even though none of its nodes are inside
	require.Len(t, ways, 1)

	places, ways = mapSource.GetInBounds(osm.Bounds{MinLat: 10, MaxLat: 11, MinLon: 10, MaxLon: 11})
	assert.Empty(t, places)
	assert.Empty(t, ways)

	assert.True(t, mapSource.Overlaps(osm.Bounds{MinLat: 50, MaxLat: 51, MinLon: 14, MaxLon: 15}))
	assert.False(t, mapSource.Overlaps(osm.Bounds{MinLat: 10, MaxLat: 11, MinLon: 10, MaxLon: 11}))
}

func TestMapSource_Label(t *testing.T) {
	tags := osm.Tags{{Key: "name", Value: "Praha"}, {Key: "name:en", Value: "Prague"}}

	assert.Equal(t, "Prague", (&MapSource{options: Options{PreferredLanguage: "en"}}).Label(tags))
	assert.Equal(t, "Praha", (&MapSource{options: Options{PreferredLanguage: "cs"}}).Label(tags))
	assert.Equal(t, "Praha", (&MapSource{}).Label(tags))
	assert.Equal(t, "", (&MapSource{}).Label(osm.Tags{{Key: "highway", Value: "primary"}}))
}

func Test_detectFileFormat(t *testing.T) {
	assert.Equal(t, fileFormatXML, detectFileFormat("/maps/prague.osm"))
	assert.Equal(t, fileFormatXML, detectFileFormat("/maps/PRAGUE.OSM.XML"))
	assert.Equal(t, fileFormatPBF, detectFileFormat("/maps/czech-republic-latest.osm.pbf"))
	assert.Equal(t, fileFormatUnknown, detectFileFormat("/maps/czech-republic.map"))
}
