package render

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const lineDPI = 100.0

// LineRenderer draws time series line charts with go-chart. It writes png, jpeg and svg.
type LineRenderer struct{}

// NewLineRenderer creates a go-chart based renderer.
func NewLineRenderer() *LineRenderer {
	return &LineRenderer{}
}

// CanRender reports whether the request is a time series line chart go-chart can draw: at
// least two distinct epochs and no categorical values.
func (r *LineRenderer) CanRender(req Request) bool {
	var first time.Time
	distinct := false
	for _, s := range req.Series {
		if s.Times == nil || s.IsCategorical() {
			return false
		}
		for _, t := range s.Times {
			if first.IsZero() {
				first = t
			} else if !t.Equal(first) {
				distinct = true
			}
		}
	}
	return distinct
}

func (r *LineRenderer) Render(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if !r.CanRender(req) {
		return fmt.Errorf("line chart needs time series with at least two epochs")
	}

	fontSize := req.FontSize
	if fontSize <= 0 {
		fontSize = defaultFontSize
	}
	w, h := figureSize(req.FigSize)

	graph := chart.Chart{
		Title:      strings.ReplaceAll(titleWithSummary(req), "\n", " / "),
		TitleStyle: chart.Style{FontSize: fontSize + 2},
		Width:      int(w * lineDPI),
		Height:     int(h * lineDPI),
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           req.XLabel,
			NameStyle:      chart.Style{FontSize: fontSize},
			Style:          chart.Style{FontSize: fontSize},
			ValueFormatter: chart.TimeValueFormatterWithFormat("15:04"),
		},
		YAxis: chart.YAxis{
			Name:      req.AxisLabel(),
			NameStyle: chart.Style{FontSize: fontSize},
			Style:     chart.Style{FontSize: fontSize},
		},
	}

	if req.XLim != nil {
		graph.XAxis.Range = &chart.ContinuousRange{
			Min: chart.TimeToFloat64(fromUnixSeconds(req.XLim.Min)),
			Max: chart.TimeToFloat64(fromUnixSeconds(req.XLim.Max)),
		}
	}
	if req.YLim != nil {
		graph.YAxis.Range = &chart.ContinuousRange{Min: req.YLim.Min, Max: req.YLim.Max}
	}

	colors := seriesColors(req)
	for i, s := range req.Series {
		ts := chart.TimeSeries{
			Name: s.Label,
			Style: chart.Style{
				StrokeColor: toDrawingColor(colors[i]),
				StrokeWidth: 1,
			},
		}
		if req.Marker != "" && req.Marker != "," {
			ts.Style.DotColor = ts.Style.StrokeColor
			ts.Style.DotWidth = 2
		}
		for j, t := range s.Times {
			if math.IsNaN(s.Y[j]) || math.IsInf(s.Y[j], 0) {
				continue
			}
			ts.XValues = append(ts.XValues, t)
			ts.YValues = append(ts.YValues, s.Y[j])
		}
		if len(ts.XValues) == 0 {
			continue
		}
		graph.Series = append(graph.Series, ts)
	}
	if len(graph.Series) == 0 {
		return ErrNoSeries
	}

	if req.Legend {
		graph.Elements = []chart.Renderable{chart.LegendThin(&graph)}
	}

	return writeChart(graph, req.Path)
}

func writeChart(graph chart.Chart, path string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	var buf bytes.Buffer
	if ext == "svg" {
		if err := graph.Render(chart.SVG, &buf); err != nil {
			return fmt.Errorf("rendering chart: %w", err)
		}
		return os.WriteFile(path, buf.Bytes(), 0o644)
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if err = graph.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	if format == ImagePNG {
		return os.WriteFile(path, buf.Bytes(), 0o644)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		return fmt.Errorf("decoding chart: %w", err)
	}
	return writeImage(img, path)
}

func toDrawingColor(c color.Color) drawing.Color {
	return drawing.ColorFromAlphaMixedRGBA(c.RGBA())
}
