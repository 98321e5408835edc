package mapboxglstyle

const (
	VisibilityVisible = "visible"
	VisibilityNone    = "none"
)

// Layout holds the layout properties this renderer reads. Others in the style file are ignored.
type Layout struct {
	Visibility string                       `json:"visibility"`
	LineCap    string                       `json:"line-cap"`
	LineJoin   string                       `json:"line-join"`
	TextField  string                       `json:"text-field"`
	TextFont   []string                     `json:"text-font"`
	TextSize   *NumberOrFunctionWrapperType `json:"text-size"` // float64 or {"base": 1.4, "stops": [[10, 8], [20, 14]]}
}

type Paint struct {
	BackgroundColor *ColorOrFunctionWrapperType  `json:"background-color"`
	FillColor       *ColorOrFunctionWrapperType  `json:"fill-color"`
	LineColor       *ColorOrFunctionWrapperType  `json:"line-color"`
	LineWidth       *NumberOrFunctionWrapperType `json:"line-width"`
	LineDashArray   []float64                    `json:"line-dasharray"`
	TextColor       *ColorOrFunctionWrapperType  `json:"text-color"`
}
