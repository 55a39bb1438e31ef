package render

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	PlotTypeScatter PlotType = "scatter"
	PlotTypeLine    PlotType = "plot"

	ProjectionPolar Projection = "polar"

	LegendBottom LegendLocation = "bottom"
	LegendRight  LegendLocation = "right"
	LegendTop    LegendLocation = "top"

	PlotToFile = "file"
)

// ErrNoSeries is returned when a request carries no series to draw.
var ErrNoSeries = errors.New("no series to render")

type (
	PlotType       string
	Projection     string
	LegendLocation string
)

// Size is a figure size in inches.
type Size struct {
	Width  float64
	Height float64
}

// Limits is an axis range. Time axes use seconds since the Unix epoch, see TimeLimits.
type Limits struct {
	Min float64
	Max float64
}

// TimeLimits returns the limits of a time axis spanning start to end.
func TimeLimits(start, end time.Time) *Limits {
	return &Limits{Min: unixSeconds(start), Max: unixSeconds(end)}
}

// Series is one labelled curve. The x values are either Times or X, the y values either Y
// or Text (categorical axis).
type Series struct {
	Label string
	Times []time.Time
	X     []float64
	Y     []float64
	Text  []string
	Color string // named color or #rrggbb, empty for the colormap
}

// Len returns the number of points in the series.
func (s Series) Len() int {
	if s.Times != nil {
		return len(s.Times)
	}
	return len(s.X)
}

// IsCategorical reports whether the series has text y values.
func (s Series) IsCategorical() bool {
	return s.Text != nil
}

func (s Series) validate() error {
	n := s.Len()
	if s.Times != nil && s.X != nil {
		return fmt.Errorf("series %q: both time and numeric x values", s.Label)
	}
	switch {
	case s.Text != nil && len(s.Text) != n:
		return fmt.Errorf("series %q: %d x values, %d text values", s.Label, n, len(s.Text))
	case s.Text == nil && len(s.Y) != n:
		return fmt.Errorf("series %q: %d x values, %d y values", s.Label, n, len(s.Y))
	}
	return nil
}

// Options holds the styling options of a figure.
type Options struct {
	FigSize        Size
	Legend         bool
	LegendNCol     int
	LegendLocation LegendLocation
	PlotTo         string
	PlotType       PlotType // lines unless scatter
	Statistic      []Statistic
	Colormap       string
	FontSize       float64
	Marker         string
	Projection     Projection
	Title          string
	XLim           *Limits
	YLim           *Limits
	YTicks         []float64
	YTickLabels    []string
}

// Request describes one figure to render.
type Request struct {
	Series []Series
	XLabel string
	YLabel string
	YUnit  string
	Path   string
	Options
}

// Validate checks that the request can be rendered.
func (r Request) Validate() error {
	if r.Path == "" {
		return errors.New("empty figure path")
	}
	if len(r.Series) == 0 {
		return ErrNoSeries
	}
	for _, s := range r.Series {
		if err := s.validate(); err != nil {
			return err
		}
	}
	if len(r.YTickLabels) > 0 && len(r.YTickLabels) != len(r.YTicks) {
		return fmt.Errorf("%d y ticks, %d y tick labels", len(r.YTicks), len(r.YTickLabels))
	}
	return nil
}

// AxisLabel returns the y axis label with the unit appended.
func (r Request) AxisLabel() string {
	if r.YUnit == "" {
		return r.YLabel
	}
	return fmt.Sprintf("%s [%s]", r.YLabel, r.YUnit)
}

// Renderer renders figures to files. Files are overwritten; the parent directory must exist.
type Renderer interface {
	Render(ctx context.Context, req Request) error
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromUnixSeconds(s float64) time.Time {
	return time.Unix(0, int64(s*float64(time.Second))).UTC()
}
