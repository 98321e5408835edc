package styling

import (
	"image/color"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-viewport/mercator"
	"github.com/paulmach/osm"
)

const BUILTIN_STYLEID = "__ownmap_builtin"

type ItemStyle interface {
	GetZIndex() int
	GetCategory() string
}

type WayStyle struct {
	FillColor      color.Color
	LineColor      color.Color
	LineDashPolicy []float64
	LineWidth      float64
	ZIndex         int
	Category       string
}

func (ws *WayStyle) GetZIndex() int {
	return ws.ZIndex
}

func (ws *WayStyle) GetCategory() string {
	return ws.Category
}

type NodeStyle struct {
	TextSize  int
	TextColor color.Color
	ZIndex    int
	Category  string
}

func (ns *NodeStyle) GetZIndex() int {
	return ns.ZIndex
}

func (ns *NodeStyle) GetCategory() string {
	return ns.Category
}

// Style is a render theme. A nil item style (with a nil error) means the item isn't drawn
type Style interface {
	GetNodeStyle(tags osm.Tags, zoomLevel mercator.ZoomLevel) (*NodeStyle, errorsx.Error)
	GetWayStyle(tags osm.Tags, zoomLevel mercator.ZoomLevel) (*WayStyle, errorsx.Error)
	GetBackground() color.Color
	GetStyleID() string
	// GetStyleMenu returns the menu of layers the user can pick from, or nil if the style has none
	GetStyleMenu() *StyleMenu
}

type StyleSet struct {
	stylesMap      map[string]Style // map[Style ID]Style
	styleIDs       []string
	defaultStyleID string
}

func NewStyleSet(styles []Style, defaultStyleID string) (*StyleSet, errorsx.Error) {
	styleSet := &StyleSet{
		stylesMap:      make(map[string]Style),
		defaultStyleID: defaultStyleID,
	}

	defaultIDFound := false

	for _, style := range styles {
		styleID := style.GetStyleID()
		_, ok := styleSet.stylesMap[styleID]
		if ok {
			return nil, errorsx.Errorf("duplicate style ID found: %q", styleID)
		}

		styleSet.stylesMap[styleID] = style
		styleSet.styleIDs = append(styleSet.styleIDs, styleID)

		if defaultStyleID == styleID {
			defaultIDFound = true
		}
	}

	if !defaultIDFound {
		return nil, errorsx.Errorf("default ID %q not found in any supplied styles", defaultStyleID)
	}

	return styleSet, nil
}

func (s *StyleSet) GetStyleByID(id string) Style {
	return s.stylesMap[id]
}

func (s *StyleSet) GetDefaultStyle() Style {
	return s.stylesMap[s.defaultStyleID]
}

// GetAllStyleIDs returns the IDs in the order the styles were supplied
func (s *StyleSet) GetAllStyleIDs() []string {
	return append([]string(nil), s.styleIDs...)
}
