package mapboxglstyle

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/lucasb-eyer/go-colorful"
)

// parseColor reads the CSS color forms used in Mapbox GL styles: #rgb, #rrggbb, rgb(), rgba(), hsl() and hsla()
func parseColor(colorString string) (color.Color, errorsx.Error) {
	s := strings.ToLower(strings.TrimSpace(colorString))

	if strings.HasPrefix(s, "#") {
		return parseHexColor(s)
	}

	openIndex := strings.Index(s, "(")
	if openIndex == -1 || !strings.HasSuffix(s, ")") {
		return nil, errorsx.Errorf("unsupported color: %q", colorString)
	}

	function := s[:openIndex]
	var args []string
	for _, arg := range strings.Split(s[openIndex+1:len(s)-1], ",") {
		args = append(args, strings.TrimSpace(arg))
	}

	switch function {
	case "rgb", "rgba":
		return parseRGBColor(colorString, args, function == "rgba")
	case "hsl", "hsla":
		return parseHSLColor(colorString, args, function == "hsla")
	default:
		return nil, errorsx.Errorf("unsupported color function %q in %q", function, colorString)
	}
}

func parseHexColor(s string) (color.Color, errorsx.Error) {
	if len(s) != 4 && len(s) != 7 {
		return nil, errorsx.Errorf("hex color must have 3 or 6 digits: %q", s)
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return nil, errorsx.Wrap(err, "color", s)
	}

	r, g, b := c.RGB255()
	return color.NRGBA{r, g, b, 0xff}, nil
}

func parseAlpha(colorString string, args []string, hasAlpha bool) (uint8, errorsx.Error) {
	wantArgs := 3
	if hasAlpha {
		wantArgs = 4
	}

	if len(args) != wantArgs {
		return 0, errorsx.Errorf("expected %d values in color %q, but got %d", wantArgs, colorString, len(args))
	}

	if !hasAlpha {
		return 0xff, nil
	}

	alpha, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return 0, errorsx.Wrap(err, "color", colorString)
	}

	return toByte(alpha * 255), nil
}

func parseRGBColor(colorString string, args []string, hasAlpha bool) (color.Color, errorsx.Error) {
	alpha, err := parseAlpha(colorString, args, hasAlpha)
	if err != nil {
		return nil, err
	}

	var channels [3]uint8
	for i := range channels {
		value, parseErr := strconv.ParseFloat(args[i], 64)
		if parseErr != nil {
			return nil, errorsx.Wrap(parseErr, "color", colorString)
		}
		channels[i] = toByte(value)
	}

	return color.NRGBA{channels[0], channels[1], channels[2], alpha}, nil
}

func parsePercentage(value string) (float64, error) {
	percentage, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
	if err != nil {
		return 0, err
	}
	return percentage / 100, nil
}

func parseHSLColor(colorString string, args []string, hasAlpha bool) (color.Color, errorsx.Error) {
	alpha, err := parseAlpha(colorString, args, hasAlpha)
	if err != nil {
		return nil, err
	}

	hue, parseErr := strconv.ParseFloat(args[0], 64)
	if parseErr != nil {
		return nil, errorsx.Wrap(parseErr, "color", colorString)
	}

	saturation, parseErr := parsePercentage(args[1])
	if parseErr != nil {
		return nil, errorsx.Wrap(parseErr, "color", colorString)
	}

	lightness, parseErr := parsePercentage(args[2])
	if parseErr != nil {
		return nil, errorsx.Wrap(parseErr, "color", colorString)
	}

	r, g, b := colorful.Hsl(math.Mod(hue, 360), saturation, lightness).Clamped().RGB255()

	return color.NRGBA{r, g, b, alpha}, nil
}

func toByte(value float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(value))))
}
