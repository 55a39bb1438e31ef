package render

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	defaultFigWidth  = 7.0
	defaultFigHeight = 5.0
	minFigSize       = 2.0
	maxFigSize       = 60.0

	defaultFontSize = 10.0
	glyphRadius     = 1.5
	barRadius       = 3.0
)

// ScatterRenderer draws scatter and line figures with gonum/plot. It handles time and numeric
// x axes as well as categorical y axes. The output format follows the file extension.
type ScatterRenderer struct{}

// NewScatterRenderer creates a gonum/plot based renderer.
func NewScatterRenderer() *ScatterRenderer {
	return &ScatterRenderer{}
}

func (r *ScatterRenderer) Render(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = titleWithSummary(req)
	p.X.Label.Text = req.XLabel
	p.Y.Label.Text = req.AxisLabel()
	applyFontSize(p, req.FontSize)

	if isTimeAxis(req.Series) {
		p.X.Tick.Marker = timeTicker(req.Series)
	}

	categories := categoryIndex(req.Series)
	if len(categories.names) > 0 {
		ticks := make([]plot.Tick, len(categories.names))
		for i, name := range categories.names {
			ticks[i] = plot.Tick{Value: float64(i), Label: name}
		}
		p.Y.Tick.Marker = plot.ConstantTicks(ticks)
		p.Y.Min, p.Y.Max = -0.5, float64(len(categories.names))-0.5
	}

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Horizontal.Color = gridColor
	p.Add(grid)

	colors := seriesColors(req)
	for i, s := range req.Series {
		xys := seriesXYs(s, categories)
		if len(xys) == 0 {
			continue
		}

		if req.PlotType != PlotTypeScatter {
			line, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("series %q: %w", s.Label, err)
			}
			line.LineStyle.Color = colors[i]
			line.LineStyle.Width = vg.Points(1)
			p.Add(line)
			if req.Legend && s.Label != "" {
				p.Legend.Add(s.Label, line)
			}
			continue
		}

		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Label, err)
		}
		sc.GlyphStyle = glyphStyle(req.Marker, colors[i])
		p.Add(sc)
		if req.Legend && s.Label != "" {
			p.Legend.Add(s.Label, sc)
		}
	}

	p.Legend.Top = req.LegendLocation == LegendTop || req.LegendLocation == LegendRight
	if req.XLim != nil {
		p.X.Min, p.X.Max = req.XLim.Min, req.XLim.Max
	}
	if req.YLim != nil {
		p.Y.Min, p.Y.Max = req.YLim.Min, req.YLim.Max
	}
	if len(req.YTicks) > 0 {
		p.Y.Tick.Marker = plot.ConstantTicks(constantTicks(req.YTicks, req.YTickLabels))
	}

	w, h := figureSize(req.FigSize)
	if err := p.Save(vg.Length(w)*vg.Inch, vg.Length(h)*vg.Inch, req.Path); err != nil {
		return fmt.Errorf("saving %s: %w", req.Path, err)
	}
	return nil
}

func applyFontSize(p *plot.Plot, size float64) {
	if size <= 0 {
		size = defaultFontSize
	}

	p.Title.TextStyle.Font.Size = vg.Points(size + 2)
	p.X.Label.TextStyle.Font.Size = vg.Points(size)
	p.Y.Label.TextStyle.Font.Size = vg.Points(size)
	p.X.Tick.Label.Font.Size = vg.Points(size)
	p.Y.Tick.Label.Font.Size = vg.Points(size)
	p.Legend.TextStyle.Font.Size = vg.Points(size)
}

// figureSize clamps the requested size in inches to what the canvas backends can handle.
func figureSize(size Size) (float64, float64) {
	w, h := size.Width, size.Height
	if w <= 0 {
		w = defaultFigWidth
	}
	if h <= 0 {
		h = defaultFigHeight
	}
	return math.Min(math.Max(w, minFigSize), maxFigSize), math.Min(math.Max(h, minFigSize), maxFigSize)
}

func isTimeAxis(series []Series) bool {
	for _, s := range series {
		if s.Times != nil {
			return true
		}
	}
	return false
}

func timeTicker(series []Series) plot.Ticker {
	var first, last time.Time
	for _, s := range series {
		for _, t := range s.Times {
			if first.IsZero() || t.Before(first) {
				first = t
			}
			if last.IsZero() || t.After(last) {
				last = t
			}
		}
	}

	format := "15:04"
	if last.Sub(first) > 48*time.Hour {
		format = "2006-01-02"
	}
	return plot.TimeTicks{Format: format, Time: fromUnixSeconds}
}

// categories maps text y values to axis positions in order of first appearance.
type categories struct {
	names []string
	index map[string]int
}

func categoryIndex(series []Series) categories {
	c := categories{index: make(map[string]int)}
	for _, s := range series {
		for _, text := range s.Text {
			if _, ok := c.index[text]; !ok {
				c.index[text] = len(c.names)
				c.names = append(c.names, text)
			}
		}
	}
	return c
}

// seriesXYs returns the finite points of a series.
func seriesXYs(s Series, c categories) plotter.XYs {
	xys := make(plotter.XYs, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		var x, y float64
		if s.Times != nil {
			x = unixSeconds(s.Times[i])
		} else {
			x = s.X[i]
		}
		if s.Text != nil {
			y = float64(c.index[s.Text[i]])
		} else {
			y = s.Y[i]
		}
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: x, Y: y})
	}
	return xys
}

func glyphStyle(marker string, c color.Color) draw.GlyphStyle {
	sty := draw.GlyphStyle{Color: c, Radius: vg.Points(glyphRadius), Shape: draw.CircleGlyph{}}
	switch marker {
	case ",":
		sty.Radius = vg.Points(0.5)
	case "|":
		sty.Radius = vg.Points(barRadius)
		sty.Shape = vbarGlyph{}
	case "+":
		sty.Shape = draw.PlusGlyph{}
	case "x":
		sty.Shape = draw.CrossGlyph{}
	case "s":
		sty.Shape = draw.SquareGlyph{}
	case "^":
		sty.Shape = draw.TriangleGlyph{}
	}
	return sty
}

func constantTicks(values []float64, labels []string) []plot.Tick {
	ticks := make([]plot.Tick, len(values))
	for i, v := range values {
		label := fmt.Sprintf("%g", v)
		if i < len(labels) {
			label = labels[i]
		}
		ticks[i] = plot.Tick{Value: v, Label: label}
	}
	return ticks
}

// vbarGlyph draws a vertical bar, the "|" marker.
type vbarGlyph struct{}

func (vbarGlyph) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	ls := draw.LineStyle{Color: sty.Color, Width: vg.Points(0.5)}
	c.StrokeLine2(ls, pt.X, pt.Y-sty.Radius, pt.X, pt.Y+sty.Radius)
}
