package gnssplot

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roman-kulish/gnss-reporting/internal/dataset"
	"github.com/roman-kulish/gnss-reporting/internal/render"
)

const (
	collectionObs = "obs"

	stageRead  = "read"
	stageOrbit = "orbit"
	stageEdit  = "edit"
)

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// PlotObstypeAvailability plots, for every satellite and observation type of a system, the
// epochs with an observation. One figure per system; systems without observations are skipped.
func (p *Plotter) PlotObstypeAvailability(ctx context.Context, opts ...PlotOption) (paths []string, err error) {
	const method = "PlotObstypeAvailability"
	ctx, end := p.start(ctx, method)
	defer func() { end(len(paths), err) }()

	cfg := newPlotConfig("plot_obstype_availability_{system}.{FIGURE_FORMAT}", opts)
	times := p.ds.Time(p.timeScale)
	meta := p.ds.Meta()

	for _, sys := range p.ds.Unique(dataset.FieldSystem) {
		sats := satellitesOf(p.ds, sys)
		numSat := float64(len(sats))
		slices.Reverse(sats)

		var series []render.Series
		for _, sat := range sats {
			satMask := p.ds.Filter(dataset.FieldSatellite, sat)
			for _, obstype := range meta.Obstypes[sys] {
				field := dataset.FieldName(collectionObs, obstype)
				if !p.ds.HasField(field) {
					continue
				}
				values, err := p.ds.Float(field)
				if err != nil {
					return nil, err
				}

				keep := dataset.NotNaN(values, satMask)
				if !dataset.Any(keep) {
					continue
				}
				series = append(series, render.Series{
					Times: dataset.Select(times, keep),
					Text:  repeat(fmt.Sprintf("%s_%s", sat, obstype), dataset.Count(keep)),
				})
			}
		}
		if len(series) == 0 {
			p.skip(method, skipReasonNoData, "system", sys)
			continue
		}

		path := p.figurePath(cfg.figureName, "{system}", sys)
		req := render.Request{
			Series: series,
			XLabel: p.timeLabel(),
			YLabel: "Satellite and observation type",
			Path:   path,
			Options: render.Options{
				Colormap: defaultColormap,
				FigSize:  render.Size{Width: numSat, Height: 3 * numSat},
				FontSize: 5,
				PlotTo:   render.PlotToFile,
				PlotType: render.PlotTypeScatter,
			},
		}
		if err = p.render(ctx, method, req); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// PlotSatelliteAvailability plots the epochs every satellite was observed, one color per system.
// Satellites and systems are ordered descending.
func (p *Plotter) PlotSatelliteAvailability(ctx context.Context, opts ...PlotOption) (_ string, err error) {
	const method = "PlotSatelliteAvailability"
	ctx, end := p.start(ctx, method)
	defer func() { end(1, err) }()

	cfg := newPlotConfig("plot_satellite_availability.{FIGURE_FORMAT}", opts)

	times, satellites, systems := sortBySatellite(p.ds, p.timeScale)
	unique := p.ds.Unique(dataset.FieldSystem)
	slices.Reverse(unique)

	series := make([]render.Series, 0, len(unique))
	for _, sys := range unique {
		idx := make([]bool, len(systems))
		for i, s := range systems {
			idx[i] = s == sys
		}
		series = append(series, render.Series{
			Label: dataset.SystemName(sys),
			Times: dataset.Select(times, idx),
			Text:  dataset.Select(satellites, idx),
		})
	}

	n := float64(len(p.ds.Unique(dataset.FieldSatellite)))
	path := p.figurePath(cfg.figureName)
	req := render.Request{
		Series: series,
		XLabel: p.timeLabel(),
		YLabel: "Satellite",
		Path:   path,
		Options: render.Options{
			Colormap:       defaultColormap,
			FigSize:        render.Size{Width: 0.1 * n, Height: 0.2 * n},
			FontSize:       10,
			Legend:         true,
			LegendLocation: render.LegendBottom,
			LegendNCol:     len(unique),
			PlotTo:         render.PlotToFile,
			PlotType:       render.PlotTypeScatter,
		},
	}
	if err = p.render(ctx, method, req); err != nil {
		return "", err
	}
	return path, nil
}

// PlotSatelliteOverview plots the satellite observations of the read, orbit and edit stages of
// the run on top of each other, so observations rejected by a stage remain visible in the color
// of the previous one. It returns an empty path when the read stage is not available.
func (p *Plotter) PlotSatelliteOverview(ctx context.Context, opts ...PlotOption) (_ string, err error) {
	const method = "PlotSatelliteOverview"
	ctx, end := p.start(ctx, method)
	defer func() { end(1, err) }()

	cfg := newPlotConfig("plot_satellite_overview.{FIGURE_FORMAT}", opts)

	if p.stages == nil || !p.stages.Exists(stageRead) {
		path := ""
		if p.stages != nil {
			path = p.stages.Path(stageRead)
		}
		p.logger.Warn("no read stage dataset, satellite overview not plotted", slog.String("path", path))
		p.skip(method, skipReasonNoStage)
		return "", nil
	}

	systems := p.obstypeSystems()
	read, err := p.stages.Load(ctx, stageRead, systems)
	if err != nil {
		return "", fmt.Errorf("loading %s stage: %w", stageRead, err)
	}

	layers := []struct {
		stage string
		color string
		ds    dataset.Dataset
	}{
		{stage: stageRead, color: "red", ds: read},
		{stage: stageOrbit, color: "orange"},
		{stage: stageEdit, color: "green"},
	}
	for i := range layers[1:] {
		layer := &layers[i+1]
		ds, err := p.stages.Load(ctx, layer.stage, systems)
		if err != nil {
			p.logger.Warn("stage dataset not available",
				slog.String("stage", layer.stage),
				slog.String("path", p.stages.Path(layer.stage)),
				slog.String("error", err.Error()),
			)
			continue
		}
		layer.ds = ds
	}

	series := make([]render.Series, 0, len(layers))
	for _, layer := range layers {
		s := render.Series{Times: []time.Time{}, Text: []string{}, Color: layer.color}
		if layer.ds != nil {
			s.Times, s.Text, _ = sortBySatellite(layer.ds, p.timeScale)
		}
		series = append(series, s)
	}

	first, last := dayLimits(p.ds, p.timeScale)
	path := p.figurePath(cfg.figureName)
	req := render.Request{
		Series: series,
		XLabel: p.timeLabel(),
		YLabel: "Satellite",
		Path:   path,
		Options: render.Options{
			Colormap: defaultColormap,
			FigSize:  render.Size{Width: 7, Height: 6},
			Marker:   "|",
			PlotTo:   render.PlotToFile,
			PlotType: render.PlotTypeScatter,
			Title:    "Overview over satellites",
			XLim:     render.TimeLimits(first, last),
		},
	}
	if err = p.render(ctx, method, req); err != nil {
		return "", err
	}
	return path, nil
}
