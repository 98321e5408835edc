package styling

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMenu() *StyleMenu {
	menu := NewStyleMenu("testmenu", "en", "terrain")

	shopping := menu.CreateLayer("shopping", false, true)
	shopping.AddCategory("shops")

	transport := menu.CreateLayer("transport", false, false)
	transport.AddCategory("bus_stops")

	terrain := menu.CreateLayer("terrain", true, true)
	terrain.AddCategory("contours")
	terrain.AddCategory("landuse")
	terrain.AddOverlay(shopping)
	terrain.AddOverlay(transport)

	return menu
}

func TestEnabledCategories(t *testing.T) {
	tests := []struct {
		name            string
		menu            *StyleMenu
		selectedLayerID string
		want            []string
	}{
		{"nil menu", nil, "terrain", nil},
		{"empty layer list", NewStyleMenu("empty", "en", ""), "terrain", nil},
		{"menu without id", func() *StyleMenu {
			menu := newTestMenu()
			menu.ID = ""
			return menu
		}(), "terrain", nil},
		{"no selected layer", newTestMenu(), "", nil},
		{"unknown selected layer", newTestMenu(), "nope", nil},
		{"selected layer plus enabled overlays", newTestMenu(), "terrain", []string{"contours", "landuse", "shops"}},
		{"layer without overlays", newTestMenu(), "transport", []string{"bus_stops"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			categories := EnabledCategories(tt.menu, tt.selectedLayerID)
			if tt.want == nil {
				assert.Nil(t, categories)
				return
			}

			assert.Equal(t, tt.want, categories.Sorted())
		})
	}
}

func TestIsCategoryEnabled(t *testing.T) {
	assert.True(t, IsCategoryEnabled(nil, "anything"))
	assert.True(t, IsCategoryEnabled(Categories{}, ""))
	assert.False(t, IsCategoryEnabled(Categories{}, "roads"))
	assert.True(t, IsCategoryEnabled(Categories{"roads": {}}, "roads"))
}

func TestParseStyleMenuXML(t *testing.T) {
	menu, err := ParseStyleMenuXML(strings.NewReader(basicStyleMenuXML))
	require.NoError(t, err)

	assert.Equal(t, "basicmenu", menu.ID)
	assert.Equal(t, "full", menu.DefaultValue)
	assert.Equal(t, "en", menu.DefaultLanguage)
	require.Len(t, menu.Layers(), 4)

	full := menu.GetLayer("full")
	require.NotNil(t, full)
	assert.True(t, full.Visible)
	assert.Equal(t, []string{"landuse", "roads", "railways", "places"}, full.Categories())
	require.Len(t, full.Overlays(), 2)
	assert.Equal(t, "waterbodies", full.Overlays()[0].ID)

	assert.Equal(t, "Plná mapa", full.Title("cs"))
	assert.Equal(t, "Full map", full.Title("de"))

	categories := EnabledCategories(menu, "full")
	assert.Equal(t, []string{"landuse", "places", "railways", "roads", "water"}, categories.Sorted())
	assert.False(t, categories.Has(CategoryPaths))
}

func TestParseStyleMenuXML_errors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"not xml", `{"json": true}`},
		{"no id", `<stylemenu><layer id="a"/></stylemenu>`},
		{"layer without id", `<stylemenu id="m"><layer/></stylemenu>`},
		{"duplicate layer", `<stylemenu id="m"><layer id="a"/><layer id="a"/></stylemenu>`},
		{"unknown parent", `<stylemenu id="m"><layer id="a" parent="b"/></stylemenu>`},
		{"parent cycle", `<stylemenu id="m"><layer id="a" parent="b"/><layer id="b" parent="a"/></stylemenu>`},
		{"unknown overlay", `<stylemenu id="m"><layer id="a"><overlay id="x"/></layer></stylemenu>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStyleMenuXML(strings.NewReader(tt.xml))
			assert.Error(t, err)
		})
	}
}

func TestStyleLayer_AddCategory_deduplicates(t *testing.T) {
	layer := NewStyleMenu("m", "en", "").CreateLayer("a", true, true)
	layer.AddCategory("roads")
	layer.AddCategory("roads")
	assert.Equal(t, []string{"roads"}, layer.Categories())
}
