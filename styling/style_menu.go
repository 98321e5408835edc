package styling

import (
	"encoding/xml"
	"io"
	"sort"

	"github.com/jamesrr39/goutil/errorsx"
)

// StyleMenu is the set of layers a render theme offers. One layer is picked as the base,
// and each layer has overlays that can be switched on or off.
type StyleMenu struct {
	ID              string
	DefaultLanguage string
	DefaultValue    string

	layers   map[string]*StyleLayer
	layerIDs []string
}

func NewStyleMenu(id, defaultLanguage, defaultValue string) *StyleMenu {
	return &StyleMenu{
		ID:              id,
		DefaultLanguage: defaultLanguage,
		DefaultValue:    defaultValue,
		layers:          make(map[string]*StyleLayer),
	}
}

// CreateLayer adds a layer to the menu, replacing any layer with the same ID
func (m *StyleMenu) CreateLayer(id string, visible, enabled bool) *StyleLayer {
	layer := &StyleLayer{
		ID:              id,
		Visible:         visible,
		Enabled:         enabled,
		defaultLanguage: m.DefaultLanguage,
		categorySet:     make(map[string]struct{}),
		titles:          make(map[string]string),
	}

	if _, ok := m.layers[id]; !ok {
		m.layerIDs = append(m.layerIDs, id)
	}
	m.layers[id] = layer

	return layer
}

func (m *StyleMenu) GetLayer(id string) *StyleLayer {
	return m.layers[id]
}

// Layers returns the layers in the order they were created
func (m *StyleMenu) Layers() []*StyleLayer {
	var layers []*StyleLayer
	for _, id := range m.layerIDs {
		layers = append(layers, m.layers[id])
	}
	return layers
}

type StyleLayer struct {
	ID      string
	Visible bool
	Enabled bool

	defaultLanguage string
	categories      []string
	categorySet     map[string]struct{}
	overlays        []*StyleLayer
	titles          map[string]string
}

func (l *StyleLayer) AddCategory(category string) {
	if _, ok := l.categorySet[category]; ok {
		return
	}
	l.categorySet[category] = struct{}{}
	l.categories = append(l.categories, category)
}

func (l *StyleLayer) Categories() []string {
	return l.categories
}

func (l *StyleLayer) AddOverlay(overlay *StyleLayer) {
	l.overlays = append(l.overlays, overlay)
}

func (l *StyleLayer) Overlays() []*StyleLayer {
	return l.overlays
}

func (l *StyleLayer) AddTranslation(language, name string) {
	l.titles[language] = name
}

// Title gives the name of the layer in the language, falling back to the menu's default language
func (l *StyleLayer) Title(language string) string {
	title, ok := l.titles[language]
	if !ok {
		return l.titles[l.defaultLanguage]
	}
	return title
}

// Categories is a set of render theme categories
type Categories map[string]struct{}

func (c Categories) Has(category string) bool {
	_, ok := c[category]
	return ok
}

func (c Categories) Sorted() []string {
	var list []string
	for category := range c {
		list = append(list, category)
	}
	sort.Strings(list)
	return list
}

// IsCategoryEnabled reports whether items of the category should be drawn.
// nil categories means no filter. Items without a category are always drawn.
func IsCategoryEnabled(categories Categories, category string) bool {
	if categories == nil || category == "" {
		return true
	}
	return categories.Has(category)
}

// EnabledCategories gives the categories of the selected layer, plus those of the layer's enabled overlays.
// nil is returned if the menu can't be used: it is nil, has no ID or layers, or doesn't know the selected layer.
func EnabledCategories(menu *StyleMenu, selectedLayerID string) Categories {
	if menu == nil || len(menu.layers) == 0 || menu.ID == "" {
		return nil
	}

	if selectedLayerID == "" {
		return nil
	}

	layer := menu.GetLayer(selectedLayerID)
	if layer == nil {
		return nil
	}

	categories := make(Categories)
	for _, category := range layer.Categories() {
		categories[category] = struct{}{}
	}

	for _, overlayID := range enabledOverlayIDs(layer) {
		overlay := menu.GetLayer(overlayID)
		if overlay == nil {
			continue
		}
		for _, category := range overlay.Categories() {
			categories[category] = struct{}{}
		}
	}

	return categories
}

func enabledOverlayIDs(layer *StyleLayer) []string {
	var ids []string
	for _, overlay := range layer.Overlays() {
		if overlay.Enabled {
			ids = append(ids, overlay.ID)
		}
	}
	return ids
}

type xmlStyleMenu struct {
	XMLName         xml.Name         `xml:"stylemenu"`
	ID              string           `xml:"id,attr"`
	DefaultLanguage string           `xml:"defaultlang,attr"`
	DefaultValue    string           `xml:"defaultvalue,attr"`
	Layers          []*xmlStyleLayer `xml:"layer"`
}

type xmlStyleLayer struct {
	ID       string  `xml:"id,attr"`
	Parent   string  `xml:"parent,attr"`
	Visible  bool    `xml:"visible,attr"`
	Enabled  bool    `xml:"enabled,attr"`
	Names    []xmlID `xml:"name"`
	Cats     []xmlID `xml:"cat"`
	Overlays []xmlID `xml:"overlay"`
}

type xmlID struct {
	ID       string `xml:"id,attr"`
	Language string `xml:"lang,attr"`
	Value    string `xml:"value,attr"`
}

// ParseStyleMenuXML reads a <stylemenu> element, as found in mapsforge render themes.
// A layer with a parent inherits the parent's categories and overlays.
func ParseStyleMenuXML(reader io.Reader) (*StyleMenu, errorsx.Error) {
	var raw xmlStyleMenu
	err := xml.NewDecoder(reader).Decode(&raw)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	if raw.ID == "" {
		return nil, errorsx.Errorf("style menu has no id")
	}

	rawLayers := make(map[string]*xmlStyleLayer)
	menu := NewStyleMenu(raw.ID, raw.DefaultLanguage, raw.DefaultValue)
	for _, rawLayer := range raw.Layers {
		if rawLayer.ID == "" {
			return nil, errorsx.Errorf("layer without id in style menu %q", raw.ID)
		}
		if _, ok := rawLayers[rawLayer.ID]; ok {
			return nil, errorsx.Errorf("duplicate layer id %q in style menu %q", rawLayer.ID, raw.ID)
		}
		rawLayers[rawLayer.ID] = rawLayer

		layer := menu.CreateLayer(rawLayer.ID, rawLayer.Visible, rawLayer.Enabled)
		for _, name := range rawLayer.Names {
			layer.AddTranslation(name.Language, name.Value)
		}
	}

	for _, rawLayer := range raw.Layers {
		layer := menu.GetLayer(rawLayer.ID)

		lineage, err := layerLineage(rawLayers, rawLayer)
		if err != nil {
			return nil, errorsx.Wrap(err, "styleMenu", raw.ID)
		}

		// ancestors first, so inherited categories come before the layer's own
		for i := len(lineage) - 1; i >= 0; i-- {
			for _, cat := range lineage[i].Cats {
				layer.AddCategory(cat.ID)
			}
			for _, overlayRef := range lineage[i].Overlays {
				overlay := menu.GetLayer(overlayRef.ID)
				if overlay == nil {
					return nil, errorsx.Errorf("layer %q references unknown overlay %q", lineage[i].ID, overlayRef.ID)
				}
				layer.AddOverlay(overlay)
			}
		}
	}

	return menu, nil
}

// layerLineage returns the layer followed by its parent, grandparent etc
func layerLineage(rawLayers map[string]*xmlStyleLayer, rawLayer *xmlStyleLayer) ([]*xmlStyleLayer, errorsx.Error) {
	lineage := []*xmlStyleLayer{rawLayer}
	seen := map[string]bool{rawLayer.ID: true}

	for current := rawLayer; current.Parent != ""; {
		parent, ok := rawLayers[current.Parent]
		if !ok {
			return nil, errorsx.Errorf("layer %q has unknown parent %q", current.ID, current.Parent)
		}
		if seen[parent.ID] {
			return nil, errorsx.Errorf("parent cycle at layer %q", parent.ID)
		}
		seen[parent.ID] = true
		lineage = append(lineage, parent)
		current = parent
	}

	return lineage, nil
}
