package gnssplot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roman-kulish/gnss-reporting/internal/dataset"
	"github.com/roman-kulish/gnss-reporting/internal/render"
)

const (
	fieldGDOP = "gdop"
	fieldPDOP = "pdop"
	fieldVDOP = "vdop"
	fieldHDOP = "hdop"
	fieldTDOP = "tdop"

	fieldSatellitesAvailable = "num_satellite_available"
	fieldSatellitesUsed      = "num_satellite_used"
)

// PlotDOP plots the dilution of precision values GDOP, PDOP, VDOP, HDOP and TDOP over time.
func (p *Plotter) PlotDOP(ctx context.Context, opts ...PlotOption) (_ string, err error) {
	const method = "PlotDOP"
	ctx, end := p.start(ctx, method)
	defer func() { end(1, err) }()

	cfg := newPlotConfig("plot_dop.{FIGURE_FORMAT}", opts)
	times := p.ds.Time(p.timeScale)

	dops := []struct {
		field string
		label string
	}{
		{fieldGDOP, "GDOP"},
		{fieldPDOP, "PDOP"},
		{fieldVDOP, "VDOP"},
		{fieldHDOP, "HDOP"},
		{fieldTDOP, "TDOP"},
	}

	series := make([]render.Series, 0, len(dops))
	for _, dop := range dops {
		values, err := p.ds.Float(dop.field)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", dop.field, err)
		}
		series = append(series, render.Series{Label: dop.label, Times: times, Y: values})
	}

	path := p.figurePath(cfg.figureName)
	req := render.Request{
		Series: series,
		XLabel: p.timeLabel(),
		YLabel: "Dilution of precision",
		Path:   path,
		Options: render.Options{
			FigSize: render.Size{Width: 7, Height: 4},
			Legend:  true,
			PlotTo:  render.PlotToFile,
		},
	}
	if err = p.render(ctx, method, req); err != nil {
		return "", err
	}
	return path, nil
}

// PlotNumberOfSatellites plots the number of satellites observed per epoch, one curve per system.
func (p *Plotter) PlotNumberOfSatellites(ctx context.Context, opts ...PlotOption) (_ string, err error) {
	const method = "PlotNumberOfSatellites"
	ctx, end := p.start(ctx, method)
	defer func() { end(1, err) }()

	cfg := newPlotConfig("plot_gnss_number_of_satellites_epoch.{FIGURE_FORMAT}", opts)

	times := p.ds.Time(p.timeScale)
	systems, err := p.ds.Text(dataset.FieldSystem)
	if err != nil {
		return "", err
	}
	satellites, err := p.ds.Text(dataset.FieldSatellite)
	if err != nil {
		return "", err
	}

	unique := p.ds.Unique(dataset.FieldSystem)
	series := make([]render.Series, 0, len(unique))
	for _, sys := range unique {
		idx := p.ds.Filter(dataset.FieldSystem, sys)
		epochs := dataset.Select(times, idx)
		series = append(series, render.Series{
			Label: dataset.SystemName(sys),
			Times: epochs,
			Y:     dataset.NumberOfSatellites(dataset.Select(systems, idx), dataset.Select(satellites, idx), epochs),
		})
	}

	path := p.figurePath(cfg.figureName)
	req := render.Request{
		Series: series,
		XLabel: p.timeLabel(),
		YLabel: "# satellites",
		Path:   path,
		Options: render.Options{
			FigSize:        render.Size{Width: 7, Height: 4},
			Marker:         ",",
			Legend:         true,
			LegendLocation: render.LegendBottom,
			LegendNCol:     len(unique),
			PlotTo:         render.PlotToFile,
			PlotType:       render.PlotTypeLine,
		},
	}
	if err = p.render(ctx, method, req); err != nil {
		return "", err
	}
	return path, nil
}

// PlotNumberOfSatellitesUsed plots the number of available against used satellites. When the
// dataset has no used count, it is derived from the observations and added to the dataset.
func (p *Plotter) PlotNumberOfSatellitesUsed(ctx context.Context, opts ...PlotOption) (_ string, err error) {
	const method = "PlotNumberOfSatellitesUsed"
	ctx, end := p.start(ctx, method)
	defer func() { end(1, err) }()

	cfg := newPlotConfig("plot_number_of_satellites_used.{FIGURE_FORMAT}", opts)
	times := p.ds.Time(p.timeScale)

	if !p.ds.HasField(fieldSatellitesUsed) {
		systems, err := p.ds.Text(dataset.FieldSystem)
		if err != nil {
			return "", err
		}
		satellites, err := p.ds.Text(dataset.FieldSatellite)
		if err != nil {
			return "", err
		}
		if err = p.ds.AddFloat(fieldSatellitesUsed, dataset.NumberOfSatellites(systems, satellites, times)); err != nil {
			return "", fmt.Errorf("adding %s: %w", fieldSatellitesUsed, err)
		}
		p.logger.Debug("derived satellites used", slog.Int("observations", len(times)))
	}

	available, err := p.ds.Float(fieldSatellitesAvailable)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", fieldSatellitesAvailable, err)
	}
	used, err := p.ds.Float(fieldSatellitesUsed)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", fieldSatellitesUsed, err)
	}

	path := p.figurePath(cfg.figureName)
	req := render.Request{
		Series: []render.Series{
			{Label: "Available", Times: times, Y: available},
			{Label: "Used", Times: times, Y: used},
		},
		XLabel: p.timeLabel(),
		YLabel: "Number of satellites",
		Path:   path,
		Options: render.Options{
			FigSize:  render.Size{Width: 7, Height: 4},
			Legend:   true,
			Marker:   ",",
			PlotTo:   render.PlotToFile,
			PlotType: render.PlotTypeLine,
		},
	}
	if err = p.render(ctx, method, req); err != nil {
		return "", err
	}
	return path, nil
}
