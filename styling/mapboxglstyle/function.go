package mapboxglstyle

import (
	"encoding/json"
	"image/color"
	"math"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-viewport/mercator"
)

// NumberOrFunctionWrapperType is either a plain number, or a zoom function like {"base": 1.4, "stops": [[10, 8], [20, 14]]}
type NumberOrFunctionWrapperType struct {
	Value *float64
	Base  float64
	Stops [][2]float64
}

func (n *NumberOrFunctionWrapperType) UnmarshalJSON(data []byte) error {
	var value float64
	err := json.Unmarshal(data, &value)
	if err == nil {
		n.Value = &value
		return nil
	}

	var function struct {
		Base  *float64     `json:"base"`
		Stops [][2]float64 `json:"stops"`
	}
	err = json.Unmarshal(data, &function)
	if err != nil {
		return errorsx.Wrap(err, "value", string(data))
	}

	if len(function.Stops) == 0 {
		return errorsx.Errorf("zoom function has no stops: %s", data)
	}

	n.Base = 1
	if function.Base != nil {
		n.Base = *function.Base
	}
	n.Stops = function.Stops

	return nil
}

// GetValueAtZoomLevel interpolates between the stops either side of the zoom level. nil gives 0.
func (n *NumberOrFunctionWrapperType) GetValueAtZoomLevel(zoomLevel mercator.ZoomLevel) float64 {
	if n == nil {
		return 0
	}

	if n.Value != nil {
		return *n.Value
	}

	zoom := float64(zoomLevel)
	if zoom <= n.Stops[0][0] {
		return n.Stops[0][1]
	}

	for i := 1; i < len(n.Stops); i++ {
		lower, upper := n.Stops[i-1], n.Stops[i]
		if zoom > upper[0] {
			continue
		}

		return lower[1] + interpolationFactor(n.Base, zoom-lower[0], upper[0]-lower[0])*(upper[1]-lower[1])
	}

	return n.Stops[len(n.Stops)-1][1]
}

// interpolationFactor is linear for a base of 1, and grows exponentially for larger bases
func interpolationFactor(base, progress, difference float64) float64 {
	if difference == 0 {
		return 1
	}

	if base == 1 {
		return progress / difference
	}

	return (math.Pow(base, progress) - 1) / (math.Pow(base, difference) - 1)
}

type colorStop struct {
	zoom  float64
	color color.Color
}

// ColorOrFunctionWrapperType is either a color string, or a zoom function like {"stops": [[6, "#f2efe9"], [12, "#fff"]]}
type ColorOrFunctionWrapperType struct {
	Color color.Color
	Stops []colorStop
}

func (c *ColorOrFunctionWrapperType) UnmarshalJSON(data []byte) error {
	var colorString string
	err := json.Unmarshal(data, &colorString)
	if err == nil {
		parsedColor, err := parseColor(colorString)
		if err != nil {
			return err
		}
		c.Color = parsedColor
		return nil
	}

	var function struct {
		Stops [][2]interface{} `json:"stops"`
	}
	err = json.Unmarshal(data, &function)
	if err != nil {
		return errorsx.Wrap(err, "value", string(data))
	}

	if len(function.Stops) == 0 {
		return errorsx.Errorf("zoom function has no stops: %s", data)
	}

	for _, rawStop := range function.Stops {
		zoom, ok := rawStop[0].(float64)
		if !ok {
			return errorsx.Errorf("expected a zoom level as the first value of the stop, but got %v", rawStop[0])
		}

		colorString, ok := rawStop[1].(string)
		if !ok {
			return errorsx.Errorf("expected a color as the second value of the stop, but got %v", rawStop[1])
		}

		parsedColor, err := parseColor(colorString)
		if err != nil {
			return err
		}

		c.Stops = append(c.Stops, colorStop{zoom, parsedColor})
	}

	return nil
}

// GetColorAtZoomLevel gives the color of the last stop at or below the zoom level. nil gives nil.
func (c *ColorOrFunctionWrapperType) GetColorAtZoomLevel(zoomLevel mercator.ZoomLevel) color.Color {
	if c == nil {
		return nil
	}

	if c.Color != nil {
		return c.Color
	}

	chosen := c.Stops[0].color
	for _, stop := range c.Stops {
		if stop.zoom > float64(zoomLevel) {
			break
		}
		chosen = stop.color
	}

	return chosen
}
