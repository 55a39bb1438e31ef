package gnssplot

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roman-kulish/gnss-reporting/internal/dataset"
	"github.com/roman-kulish/gnss-reporting/internal/render"
)

const (
	collectionEpochDiff = "diff_epo"
	collectionLinear    = "lin"

	combMelbourneWuebbena = "melbourne_wuebbena"
	combCodeMultipathF1   = "code_multipath_f1"
	combCodeMultipathF2   = "code_multipath_f2"
	combCodePhaseF1       = "code_phase_f1"
	combCodePhaseF2       = "code_phase_f2"
)

// fieldLabels are the y axis labels of known model fields.
var fieldLabels = map[string]string{
	"gnss_ionosphere":        "Ionospheric delay",
	"gnss_range":             "Range",
	"gnss_satellite_clock":   "Satellite clock",
	"gnss_total_group_delay": "Total group delay",
	"troposphere_radio":      "Troposphere delay",
}

// hasSystemValues reports whether any satellite of sys has a finite value.
func hasSystemValues(ds dataset.Dataset, sys string, values []float64) bool {
	for _, sat := range satellitesOf(ds, sys) {
		if !dataset.AllNaN(dataset.Select(values, ds.Filter(dataset.FieldSatellite, sat))) {
			return true
		}
	}
	return false
}

// plotSystemField renders one scatter figure of values for the satellites of sys. It reports
// false when sys has no satellites in the dataset.
func (p *Plotter) plotSystemField(ctx context.Context, method, path, sys string, values []float64, yLabel string) (bool, error) {
	series := satelliteSeries(p.ds, p.timeScale, sys, values)
	if len(series) == 0 {
		p.skip(method, skipReasonNoData, "system", sys)
		return false, nil
	}

	return true, p.render(ctx, method, render.Request{
		Series:  series,
		XLabel:  p.timeLabel(),
		YLabel:  yLabel,
		YUnit:   "m",
		Path:    path,
		Options: scatterOptions(),
	})
}

// PlotEpochByEpochDifference plots every epoch by epoch difference field, one figure per system.
// Systems without finite values are skipped.
func (p *Plotter) PlotEpochByEpochDifference(ctx context.Context, opts ...PlotOption) (paths []string, err error) {
	const method = "PlotEpochByEpochDifference"
	ctx, end := p.start(ctx, method)
	defer func() { end(len(paths), err) }()

	cfg := newPlotConfig("plot_epoch_by_epoch_difference_{solution}.{FIGURE_FORMAT}", opts)

	for _, field := range p.ds.Fields(collectionEpochDiff) {
		values, err := p.ds.Float(dataset.FieldName(collectionEpochDiff, field))
		if err != nil {
			return nil, err
		}

		for _, sys := range p.obstypeSystems() {
			if !hasSystemValues(p.ds, sys, values) {
				p.skip(method, skipReasonAllNaN)
				continue
			}

			path := p.figurePath(cfg.figureName, "{solution}", fmt.Sprintf("%s_%s", sys, field))
			yLabel := fmt.Sprintf("Epoch by epoch difference (%s)", field)
			ok, err := p.plotSystemField(ctx, method, path, sys, values, yLabel)
			if err != nil {
				return nil, err
			}
			if ok {
				paths = append(paths, path)
			}
		}
	}
	return paths, nil
}

// PlotField plots a field, addressed by field name and optional collection, one figure per
// system. Systems without finite values are skipped.
func (p *Plotter) PlotField(ctx context.Context, field, collection string, opts ...PlotOption) (paths []string, err error) {
	const method = "PlotField"
	ctx, end := p.start(ctx, method)
	defer func() { end(len(paths), err) }()

	cfg := newPlotConfig("plot_field_{solution}.{FIGURE_FORMAT}", opts)

	values, err := p.ds.Float(dataset.FieldName(collection, field))
	if err != nil {
		return nil, err
	}

	yLabel, ok := fieldLabels[field]
	if !ok {
		yLabel = fmt.Sprintf("Field (%s)", field)
	}

	for _, sys := range p.obstypeSystems() {
		if !hasSystemValues(p.ds, sys, values) {
			p.skip(method, skipReasonAllNaN)
			continue
		}

		path := p.figurePath(cfg.figureName, "{solution}", fmt.Sprintf("%s_%s", sys, field))
		rendered, err := p.plotSystemField(ctx, method, path, sys, values, yLabel)
		if err != nil {
			return nil, err
		}
		if rendered {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// PlotLinearCombinations plots every linear combination field, one figure per system, and
// returns the figure descriptions. The metadata must list the observation types each
// combination was built from for every plotted system.
func (p *Plotter) PlotLinearCombinations(ctx context.Context, opts ...PlotOption) (figures []FigureInfo, err error) {
	const method = "PlotLinearCombinations"
	ctx, end := p.start(ctx, method)
	defer func() { end(len(figures), err) }()

	cfg := newPlotConfig("plot_{solution}.{FIGURE_FORMAT}", opts)
	meta := p.ds.Meta()

	for _, field := range p.ds.Fields(collectionLinear) {
		values, err := p.ds.Float(dataset.FieldName(collectionLinear, field))
		if err != nil {
			return nil, err
		}

		var (
			name    string
			yLabel  string
			systems []string
		)
		switch field {
		case combMelbourneWuebbena:
			name, yLabel, systems = field, "Melbourne-Wübbena", p.obstypeSystems()
		case combCodeMultipathF1, combCodeMultipathF2:
			name, yLabel, systems = frequencyFree(field), "Code-multipath combination", p.obstypeSystems()
		case combCodePhaseF1, combCodePhaseF2:
			name, yLabel, systems = frequencyFree(field), "Code-phase difference", p.obstypeSystems()
		default:
			// e.g. geometry_free_code, ionosphere_free_phase
			parts := strings.Split(field, "_")
			if len(parts) != 3 {
				return nil, fmt.Errorf("linear combination %q: expected <name>_<name>_<obscode>", field)
			}
			name = strings.Join(parts[:2], "_")
			yLabel = fmt.Sprintf("%s-%s (%s)", capitalize(parts[0]), parts[1], parts[2])
			systems = p.ds.Unique(dataset.FieldSystem)
		}

		for _, sys := range systems {
			obstypes, ok := meta.LinearCombination[field][sys]
			if !ok {
				return nil, fmt.Errorf("linear combination %q: no observation types for system %s", field, sys)
			}

			solution := fmt.Sprintf("%s_%s_%s", field, sys, strings.Join(obstypes, "_"))
			path := p.figurePath(cfg.figureName, "{solution}", solution)
			rendered, err := p.plotSystemField(ctx, method, path, sys, values, yLabel)
			if err != nil {
				return nil, err
			}
			if !rendered {
				continue
			}
			figures = append(figures, FigureInfo{Path: path, Name: name, System: sys, Obstypes: obstypes})
		}
	}
	return figures, nil
}

func frequencyFree(field string) string {
	return strings.NewReplacer("_f1", " ", "_f2", " ").Replace(field)
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
