package gnssplot

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/roman-kulish/gnss-reporting/internal/dataset"
	"github.com/roman-kulish/gnss-reporting/internal/render"
)

const (
	fieldAzimuth          = "site_pos.azimuth"
	fieldElevation        = "site_pos.elevation"
	fieldZenithDistance   = "site_pos.zenith_distance"
	defaultColormap       = render.ColormapTab20
	skyplotElevationScale = 90.0
)

func toDegrees(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * 180 / math.Pi
	}
	return out
}

// PlotSkyplot plots satellite tracks in azimuth and zenith distance, one polar figure per
// system. The radial axis is labelled in elevation.
func (p *Plotter) PlotSkyplot(ctx context.Context, opts ...PlotOption) (paths []string, err error) {
	const method = "PlotSkyplot"
	ctx, end := p.start(ctx, method)
	defer func() { end(len(paths), err) }()

	cfg := newPlotConfig("plot_skyplot_{system}.{FIGURE_FORMAT}", opts)

	azimuth, err := p.ds.Float(fieldAzimuth)
	if err != nil {
		return nil, err
	}
	zenith, err := p.ds.Float(fieldZenithDistance)
	if err != nil {
		return nil, err
	}

	// azimuth in [0, 2π)
	azimuth = slices.Clone(azimuth)
	for i, az := range azimuth {
		if az < 0 {
			azimuth[i] = az + 2*math.Pi
		}
	}
	zenith = toDegrees(zenith)

	for _, sys := range p.ds.Unique(dataset.FieldSystem) {
		var series []render.Series
		for _, sat := range satellitesOf(p.ds, sys) {
			idx := p.ds.Filter(dataset.FieldSatellite, sat)
			series = append(series, render.Series{
				Label: sat,
				X:     dataset.Select(azimuth, idx),
				Y:     dataset.Select(zenith, idx),
			})
		}
		if len(series) == 0 {
			p.skip(method, skipReasonNoData, "system", sys)
			continue
		}

		path := p.figurePath(cfg.figureName, "{system}", sys)
		req := render.Request{
			Series: series,
			Path:   path,
			Options: render.Options{
				Colormap:       defaultColormap,
				FigSize:        render.Size{Width: 7, Height: 7.5},
				Legend:         true,
				LegendNCol:     6,
				LegendLocation: render.LegendBottom,
				PlotTo:         render.PlotToFile,
				PlotType:       render.PlotTypeScatter,
				Projection:     render.ProjectionPolar,
				Title:          fmt.Sprintf("Skyplot for %s\n Azimuth [deg] / Elevation[deg]", dataset.SystemName(sys)),
				XLim:           &render.Limits{Min: 0, Max: 2 * math.Pi},
				YLim:           &render.Limits{Min: 0, Max: skyplotElevationScale},
				YTicks:         []float64{0, 30, 60},
				YTickLabels:    []string{"90", "60", "30"},
			},
		}
		if err = p.render(ctx, method, req); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// PlotSatelliteElevation plots the elevation of every satellite over the day, one figure per system.
func (p *Plotter) PlotSatelliteElevation(ctx context.Context, opts ...PlotOption) (paths []string, err error) {
	const method = "PlotSatelliteElevation"
	ctx, end := p.start(ctx, method)
	defer func() { end(len(paths), err) }()

	cfg := newPlotConfig("plot_satellite_elevation_{system}.{FIGURE_FORMAT}", opts)

	elevation, err := p.ds.Float(fieldElevation)
	if err != nil {
		return nil, err
	}
	elevation = toDegrees(elevation)
	first, last := dayLimits(p.ds, p.timeScale)

	for _, sys := range p.ds.Unique(dataset.FieldSystem) {
		series := satelliteSeries(p.ds, p.timeScale, sys, elevation)
		if len(series) == 0 {
			p.skip(method, skipReasonNoData, "system", sys)
			continue
		}

		path := p.figurePath(cfg.figureName, "{system}", sys)
		req := render.Request{
			Series: series,
			XLabel: p.timeLabel(),
			YLabel: "Elevation [deg]",
			Path:   path,
			Options: render.Options{
				Colormap:       defaultColormap,
				FigSize:        render.Size{Width: 7, Height: 8},
				Legend:         true,
				LegendNCol:     6,
				LegendLocation: render.LegendBottom,
				PlotTo:         render.PlotToFile,
				PlotType:       render.PlotTypeScatter,
				Title:          fmt.Sprintf("Satellite elevation for %s", dataset.SystemName(sys)),
				XLim:           render.TimeLimits(first, last),
			},
		}
		if err = p.render(ctx, method, req); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
