package render

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	ColormapTab10 = "tab10"
	ColormapTab20 = "tab20"
)

var (
	tab10 = mustPalette(
		"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
		"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
	)

	tab20 = mustPalette(
		"#1f77b4", "#aec7e8", "#ff7f0e", "#ffbb78", "#2ca02c",
		"#98df8a", "#d62728", "#ff9896", "#9467bd", "#c5b0d5",
		"#8c564b", "#c49c94", "#e377c2", "#f7b6d2", "#7f7f7f",
		"#c7c7c7", "#bcbd22", "#dbdb8d", "#17becf", "#9edae5",
	)

	namedColors = map[string]string{
		"black":  "#000000",
		"blue":   "#0000ff",
		"gray":   "#808080",
		"green":  "#008000",
		"grey":   "#808080",
		"orange": "#ffa500",
		"purple": "#800080",
		"red":    "#ff0000",
		"white":  "#ffffff",
		"yellow": "#ffff00",
	}

	axisColor = color.Black
	gridColor = color.Gray{Y: 0xdd}
)

func mustPalette(hex ...string) []color.Color {
	palette := make([]color.Color, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(err)
		}
		palette[i] = c
	}
	return palette
}

// ParseColor resolves a color name or a #rrggbb value.
func ParseColor(name string) (color.Color, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if hex, ok := namedColors[name]; ok {
		name = hex
	}
	c, err := colorful.Hex(name)
	if err != nil {
		return nil, false
	}
	return c, true
}

// SeriesColor returns the color of series i drawn with the given colormap.
func SeriesColor(colormap string, i int) color.Color {
	switch colormap {
	case ColormapTab20:
		return tab20[i%len(tab20)]
	default:
		return tab10[i%len(tab10)]
	}
}

// seriesColors resolves the color of every series of a request.
func seriesColors(req Request) []color.Color {
	colors := make([]color.Color, len(req.Series))
	for i, s := range req.Series {
		if s.Color != "" {
			if c, ok := ParseColor(s.Color); ok {
				colors[i] = c
				continue
			}
		}
		colors[i] = SeriesColor(req.Colormap, i)
	}
	return colors
}
