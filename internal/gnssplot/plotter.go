package gnssplot

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/roman-kulish/gnss-reporting/internal/dataset"
	"github.com/roman-kulish/gnss-reporting/internal/render"
)

const (
	// DefaultFigureFormat is the file extension substituted for {FIGURE_FORMAT}.
	DefaultFigureFormat = "png"

	skipReasonAllNaN  = "all_nan"
	skipReasonNoData  = "no_data"
	skipReasonNoStage = "no_read_stage"
)

// FigureInfo describes a linear combination figure for captions in downstream reports.
type FigureInfo struct {
	Path     string
	Name     string
	System   string
	Obstypes []string
}

// StageLoader gives access to the datasets written by earlier pipeline stages of the same run.
type StageLoader interface {
	Path(stage string) string
	Exists(stage string) bool
	Load(ctx context.Context, stage string, systems []string) (*dataset.Memory, error)
}

// Metrics records plot activity.
type Metrics interface {
	FigureRendered(method string)
	FigureSkipped(method, reason string)
	ObservePlot(method string, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) FigureRendered(string)             {}
func (nopMetrics) FigureSkipped(string, string)      {}
func (nopMetrics) ObservePlot(string, time.Duration) {}

// Option configures a Plotter.
type Option func(*Plotter)

// WithStages sets the loader of sibling stage datasets used by PlotSatelliteOverview.
func WithStages(stages StageLoader) Option {
	return func(p *Plotter) {
		p.stages = stages
	}
}

// WithFigureFormat sets the figure file format, e.g. "png" or "svg".
func WithFigureFormat(format string) Option {
	return func(p *Plotter) {
		p.format = format
	}
}

// WithTimeScale sets the time scale of the time axes, GPS by default.
func WithTimeScale(scale dataset.TimeScale) Option {
	return func(p *Plotter) {
		if scale != "" {
			p.timeScale = scale
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(p *Plotter) {
		p.metrics = m
	}
}

// WithTracer sets the tracer used to create a span per plot method call.
func WithTracer(t trace.Tracer) Option {
	return func(p *Plotter) {
		p.tracer = t
	}
}

// Plotter generates the diagnostic figures of a GNSS analysis dataset. Every method renders
// one or more figures into the figure directory and returns their paths.
//
// Satellites are grouped into systems by prefix match of the satellite name on the system
// identifier. Systems and satellites are enumerated in ascending order, except in
// PlotSatelliteAvailability and PlotSatelliteOverview.
type Plotter struct {
	ds        dataset.Dataset
	figureDir string
	renderer  render.Renderer
	logger    *slog.Logger

	stages    StageLoader
	format    string
	timeScale dataset.TimeScale
	metrics   Metrics
	tracer    trace.Tracer
}

// New creates a Plotter for the dataset.
func New(ds dataset.Dataset, figureDir string, renderer render.Renderer, logger *slog.Logger, opts ...Option) *Plotter {
	p := &Plotter{
		ds:        ds,
		figureDir: figureDir,
		renderer:  renderer,
		logger:    logger,
		format:    DefaultFigureFormat,
		timeScale: dataset.TimeScaleGPS,
		metrics:   nopMetrics{},
		tracer:    noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlotOption configures a single plot call.
type PlotOption func(*plotConfig)

type plotConfig struct {
	figureName string
}

// WithFigureName overrides the figure name template of a plot call. Templates may contain
// {solution}, {system} and {FIGURE_FORMAT} placeholders depending on the method.
func WithFigureName(name string) PlotOption {
	return func(c *plotConfig) {
		c.figureName = name
	}
}

func newPlotConfig(defaultName string, opts []PlotOption) plotConfig {
	c := plotConfig{figureName: defaultName}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// figurePath substitutes the placeholders of a figure name template, {FIGURE_FORMAT} included,
// and places the file in the figure directory.
func (p *Plotter) figurePath(template string, placeholders ...string) string {
	pairs := append([]string{"{FIGURE_FORMAT}", p.format}, placeholders...)
	return filepath.Join(p.figureDir, strings.NewReplacer(pairs...).Replace(template))
}

func (p *Plotter) timeLabel() string {
	return fmt.Sprintf("Time [%s]", strings.ToUpper(string(p.timeScale)))
}

// start opens a span for a plot method and returns the function closing it.
func (p *Plotter) start(ctx context.Context, method string) (context.Context, func(figures int, err error)) {
	ctx, span := p.tracer.Start(ctx, "gnssplot."+method)
	began := time.Now()

	return ctx, func(figures int, err error) {
		p.metrics.ObservePlot(method, time.Since(began))
		span.SetAttributes(attribute.Int("figures", figures))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// render logs and renders one figure.
func (p *Plotter) render(ctx context.Context, method string, req render.Request) error {
	p.logger.Debug("plot", slog.String("method", method), slog.String("path", req.Path))

	if err := p.renderer.Render(ctx, req); err != nil {
		return err
	}
	p.metrics.FigureRendered(method)
	return nil
}

func (p *Plotter) skip(method, reason string, attrs ...any) {
	p.metrics.FigureSkipped(method, reason)
	if reason != skipReasonAllNaN {
		p.logger.Debug("plot skipped", append([]any{slog.String("method", method), slog.String("reason", reason)}, attrs...)...)
	}
}

// obstypeSystems returns the systems with observation types in the metadata, ascending.
func (p *Plotter) obstypeSystems() []string {
	systems := p.ds.Meta().Systems()
	slices.Sort(systems)
	return systems
}

// satellitesOf returns the satellites belonging to sys by prefix match, ascending.
func satellitesOf(ds dataset.Dataset, sys string) []string {
	var sats []string
	for _, sat := range ds.Unique(dataset.FieldSatellite) {
		if strings.HasPrefix(sat, sys) {
			sats = append(sats, sat)
		}
	}
	return sats
}

// satelliteSeries builds one time series per satellite of sys.
func satelliteSeries(ds dataset.Dataset, scale dataset.TimeScale, sys string, values []float64) []render.Series {
	times := ds.Time(scale)

	var series []render.Series
	for _, sat := range satellitesOf(ds, sys) {
		idx := ds.Filter(dataset.FieldSatellite, sat)
		series = append(series, render.Series{
			Label: sat,
			Times: dataset.Select(times, idx),
			Y:     dataset.Select(values, idx),
		})
	}
	return series
}

// dayLimits returns the first and last epoch of the dataset.
func dayLimits(ds dataset.Dataset, scale dataset.TimeScale) (time.Time, time.Time) {
	return dataset.MinMaxTime(ds.Time(scale))
}

// sortBySatellite returns epochs, satellites and systems of the observations ordered by
// satellite, descending.
func sortBySatellite(ds dataset.Dataset, scale dataset.TimeScale) ([]time.Time, []string, []string) {
	sats := ds.Unique(dataset.FieldSatellite)
	slices.Reverse(sats)

	epochs := ds.Time(scale)
	satellites, _ := ds.Text(dataset.FieldSatellite)
	systems, _ := ds.Text(dataset.FieldSystem)

	times := make([]time.Time, 0, ds.NumObs())
	outSats := make([]string, 0, ds.NumObs())
	outSystems := make([]string, 0, ds.NumObs())
	for _, sat := range sats {
		idx := ds.Filter(dataset.FieldSatellite, sat)
		times = append(times, dataset.Select(epochs, idx)...)
		outSats = append(outSats, dataset.Select(satellites, idx)...)
		outSystems = append(outSystems, dataset.Select(systems, idx)...)
	}
	return times, outSats, outSystems
}

// scatterOptions are the options shared by the per-satellite scatter plots.
func scatterOptions() render.Options {
	return render.Options{
		FigSize:        render.Size{Width: 7, Height: 6},
		Legend:         true,
		LegendNCol:     6,
		LegendLocation: render.LegendBottom,
		PlotTo:         render.PlotToFile,
		PlotType:       render.PlotTypeScatter,
		Statistic: []render.Statistic{
			render.StatRMS, render.StatMean, render.StatStd,
			render.StatMin, render.StatMax, render.StatPercentile,
		},
	}
}
