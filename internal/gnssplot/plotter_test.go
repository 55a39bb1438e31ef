package gnssplot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/roman-kulish/gnss-reporting/internal/dataset"
	"github.com/roman-kulish/gnss-reporting/internal/render"
)

type recordingRenderer struct {
	requests []render.Request
}

func (r *recordingRenderer) Render(_ context.Context, req render.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	r.requests = append(r.requests, req)
	return nil
}

type fakeStages struct {
	datasets map[string]*dataset.Memory
}

func (f *fakeStages) Path(stage string) string {
	return filepath.Join("work", stage+".db")
}

func (f *fakeStages) Exists(stage string) bool {
	_, ok := f.datasets[stage]
	return ok
}

func (f *fakeStages) Load(_ context.Context, stage string, _ []string) (*dataset.Memory, error) {
	ds, ok := f.datasets[stage]
	if !ok {
		return nil, errors.New("no such stage")
	}
	return ds, nil
}

type countingMetrics struct {
	rendered map[string]int
	skipped  map[string]int
}

func (m *countingMetrics) FigureRendered(method string)       { m.rendered[method]++ }
func (m *countingMetrics) FigureSkipped(method, _ string)     { m.skipped[method]++ }
func (m *countingMetrics) ObservePlot(string, time.Duration) {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDataset returns two epochs of G01, G12 and E11 observations.
func newTestDataset(t *testing.T) *dataset.Memory {
	t.Helper()

	base := time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)
	next := base.Add(30 * time.Second)
	epochs := []time.Time{base, base, base, next, next, next}
	systems := []string{"E", "G", "G", "E", "G", "G"}
	satellites := []string{"E11", "G01", "G12", "E11", "G01", "G12"}

	ds, err := dataset.NewMemory(epochs, systems, satellites)
	if err != nil {
		t.Fatalf("Failed to create dataset: %v", err)
	}
	ds.SetMeta(dataset.Meta{
		Obstypes: map[string][]string{
			"G": {"C1C", "L1C"},
			"E": {"C1X"},
		},
	})
	return ds
}

func addFloat(t *testing.T, ds *dataset.Memory, name string, values ...float64) {
	t.Helper()
	if err := ds.AddFloat(name, values); err != nil {
		t.Fatalf("Failed to add %s: %v", name, err)
	}
}

func newTestPlotter(ds dataset.Dataset, r render.Renderer, opts ...Option) *Plotter {
	return New(ds, "figures", r, testLogger(), opts...)
}

func labels(series []render.Series) []string {
	out := make([]string, len(series))
	for i, s := range series {
		out[i] = s.Label
	}
	return out
}

func TestPlotDOP(t *testing.T) {
	ds := newTestDataset(t)
	for _, f := range []string{"gdop", "pdop", "vdop", "hdop", "tdop"} {
		addFloat(t, ds, f, 1, 1, 1, 2, 2, 2)
	}

	r := &recordingRenderer{}
	path, err := newTestPlotter(ds, r).PlotDOP(context.Background())
	if err != nil {
		t.Fatalf("Failed to plot: %v", err)
	}

	if want := filepath.Join("figures", "plot_dop.png"); path != want {
		t.Errorf("Expected path %s, got %s", want, path)
	}
	req := r.requests[0]
	if got := labels(req.Series); !slices.Equal(got, []string{"GDOP", "PDOP", "VDOP", "HDOP", "TDOP"}) {
		t.Errorf("Expected DOP labels, got %v", got)
	}
	if req.YLabel != "Dilution of precision" || req.YUnit != "" {
		t.Errorf("Expected unitless DOP label, got %q [%q]", req.YLabel, req.YUnit)
	}
	if req.PlotType == render.PlotTypeScatter {
		t.Errorf("Expected line plot, got scatter")
	}
}

func TestPlotDOP_UTCTimeScale(t *testing.T) {
	ds := newTestDataset(t)
	for _, f := range []string{"gdop", "pdop", "vdop", "hdop", "tdop"} {
		addFloat(t, ds, f, 1, 1, 1, 2, 2, 2)
	}

	r := &recordingRenderer{}
	if _, err := newTestPlotter(ds, r, WithTimeScale(dataset.TimeScaleUTC)).PlotDOP(context.Background()); err != nil {
		t.Fatalf("Failed to plot: %v", err)
	}

	req := r.requests[0]
	if req.XLabel != "Time [UTC]" {
		t.Errorf("Expected UTC time label, got %q", req.XLabel)
	}
	// GPS is 18 s ahead of UTC in 2021
	expected := time.Date(2021, 6, 30, 23, 59, 42, 0, time.UTC)
	if got := req.Series[0].Times[0]; !got.Equal(expected) {
		t.Errorf("Expected first epoch %v, got %v", expected, got)
	}
}

func TestPlotDOP_MissingField(t *testing.T) {
	ds := newTestDataset(t)
	if _, err := newTestPlotter(ds, &recordingRenderer{}).PlotDOP(context.Background()); !errors.Is(err, dataset.ErrNoField) {
		t.Errorf("Expected ErrNoField, got %v", err)
	}
}

func TestPlotField_SkipsAllNaNSystem(t *testing.T) {
	ds := newTestDataset(t)
	nan := math.NaN()
	addFloat(t, ds, "delay.gnss_range", nan, 1, 2, nan, 3, 4)

	r := &recordingRenderer{}
	m := &countingMetrics{rendered: map[string]int{}, skipped: map[string]int{}}
	paths, err := newTestPlotter(ds, r, WithMetrics(m)).PlotField(context.Background(), "gnss_range", "delay")
	if err != nil {
		t.Fatalf("Failed to plot: %v", err)
	}

	if len(paths) != 1 {
		t.Fatalf("Expected 1 figure, got %d: %v", len(paths), paths)
	}
	if want := filepath.Join("figures", "plot_field_G_gnss_range.png"); paths[0] != want {
		t.Errorf("Expected path %s, got %s", want, paths[0])
	}

	req := r.requests[0]
	if req.YLabel != "Range" || req.YUnit != "m" {
		t.Errorf("Expected Range [m], got %s [%s]", req.YLabel, req.YUnit)
	}
	if got := labels(req.Series); !slices.Equal(got, []string{"G01", "G12"}) {
		t.Errorf("Expected ascending satellites, got %v", got)
	}
	if m.rendered["PlotField"] != 1 || m.skipped["PlotField"] != 1 {
		t.Errorf("Expected 1 rendered and 1 skipped, got %d and %d", m.rendered["PlotField"], m.skipped["PlotField"])
	}
}

func TestPlotField_UnknownFieldLabel(t *testing.T) {
	ds := newTestDataset(t)
	addFloat(t, ds, "residual", 1, 2, 3, 4, 5, 6)

	r := &recordingRenderer{}
	paths, err := newTestPlotter(ds, r).PlotField(context.Background(), "residual", "", WithFigureName("{solution}.svg"))
	if err != nil {
		t.Fatalf("Failed to plot: %v", err)
	}
	if len(paths) != 2 || paths[0] != filepath.Join("figures", "E_residual.svg") {
		t.Errorf("Expected E and G figures, got %v", paths)
	}
	if r.requests[0].YLabel != "Field (residual)" {
		t.Errorf("Expected generic label, got %q", r.requests[0].YLabel)
	}
}

func TestPlotEpochByEpochDifference(t *testing.T) {
	ds := newTestDataset(t)
	nan := math.NaN()
	addFloat(t, ds, "diff_epo.C1C", nan, nan, nan, nan, 0.1, 0.2)

	r := &recordingRenderer{}
	paths, err := newTestPlotter(ds, r).PlotEpochByEpochDifference(context.Background())
	if err != nil {
		t.Fatalf("Failed to plot: %v", err)
	}
	want := []string{filepath.Join("figures", "plot_epoch_by_epoch_difference_G_C1C.png")}
	if !slices.Equal(paths, want) {
		t.Errorf("Expected %v, got %v", want, paths)
	}
	if r.requests[0].YLabel != "Epoch by epoch difference (C1C)" {
		t.Errorf("Expected epoch difference label, got %q", r.requests[0].YLabel)
	}
}

func TestPlotLinearCombinations(t *testing.T) {
	ds := newTestDataset(t)
	addFloat(t, ds, "lin.melbourne_wuebbena", 1, 2, 3, 4, 5, 6)
	addFloat(t, ds, "lin.code_multipath_f1", 1, 2, 3, 4, 5, 6)
	addFloat(t, ds, "lin.geometry_free_code", 1, 2, 3, 4, 5, 6)
	meta := ds.Meta()
	meta.LinearCombination = map[string]map[string][]string{
		"melbourne_wuebbena": {"E": {"C1X", "C5X"}, "G": {"C1C", "C2W"}},
		"code_multipath_f1":  {"E": {"C1X"}, "G": {"C1C"}},
		"geometry_free_code": {"E": {"C1X", "C5X"}, "G": {"C1C", "C2W"}},
	}
	ds.SetMeta(meta)

	r := &recordingRenderer{}
	figures, err := newTestPlotter(ds, r).PlotLinearCombinations(context.Background())
	if err != nil {
		t.Fatalf("Failed to plot: %v", err)
	}
	if len(figures) != 6 {
		t.Fatalf("Expected 6 figures, got %d", len(figures))
	}

	tests := []struct {
		index  int
		path   string
		name   string
		yLabel string
	}{
		{0, "plot_melbourne_wuebbena_E_C1X_C5X.png", "melbourne_wuebbena", "Melbourne-Wübbena"},
		{3, "plot_code_multipath_f1_G_C1C.png", "code_multipath ", "Code-multipath combination"},
		{5, "plot_geometry_free_code_G_C1C_C2W.png", "geometry_free", "Geometry-free (code)"},
	}
	for _, tt := range tests {
		f := figures[tt.index]
		if f.Path != filepath.Join("figures", tt.path) {
			t.Errorf("Expected path %s, got %s", tt.path, f.Path)
		}
		if f.Name != tt.name {
			t.Errorf("Expected name %q, got %q", tt.name, f.Name)
		}
		if got := r.requests[tt.index].YLabel; got != tt.yLabel {
			t.Errorf("Expected y label %q, got %q", tt.yLabel, got)
		}
	}
}

func TestPlotLinearCombinations_Errors(t *testing.T) {
	tests := []struct {
		name  string
		field string
		meta  map[string]map[string][]string
	}{
		{name: "missing metadata", field: "lin.melbourne_wuebbena"},
		{
			name:  "malformed name",
			field: "lin.wide_lane",
			meta:  map[string]map[string][]string{"wide_lane": {"E": {"C1X"}, "G": {"C1C"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := newTestDataset(t)
			addFloat(t, ds, tt.field, 1, 2, 3, 4, 5, 6)
			meta := ds.Meta()
			meta.LinearCombination = tt.meta
			ds.SetMeta(meta)

			if _, err := newTestPlotter(ds, &recordingRenderer{}).PlotLinearCombinations(context.Background()); err == nil {
				t.Errorf("Expected error")
			}
		})
	}
}

func TestPlotNumberOfSatellites(t *testing.T) {
	ds := newTestDataset(t)

	r := &recordingRenderer{}
	if _, err := newTestPlotter(ds, r).PlotNumberOfSatellites(context.Background()); err != nil {
		t.Fatalf("Failed to plot: %v", err)
	}

	req := r.requests[0]
	if got := labels(req.Series); !slices.Equal(got, []string{"Galileo", "GPS"}) {
		t.Errorf("Expected ascending systems, got %v", got)
	}
	if req.LegendNCol != 2 {
		t.Errorf("Expected 2 legend columns, got %d", req.LegendNCol)
	}
	if got := req.Series[1].Y; !slices.Equal(got, []float64{2, 2, 2, 2}) {
		t.Errorf("Expected 2 GPS satellites per epoch, got %v", got)
	}
}

func TestPlotNumberOfSatellitesUsed_DerivesUsed(t *testing.T) {
	ds := newTestDataset(t)
	addFloat(t, ds, "num_satellite_available", 4, 4, 4, 4, 4, 4)

	r := &recordingRenderer{}
	if _, err := newTestPlotter(ds, r).PlotNumberOfSatellitesUsed(context.Background()); err != nil {
		t.Fatalf("Failed to plot: %v", err)
	}
	if !ds.HasField("num_satellite_used") {
		t.Fatalf("Expected num_satellite_used to be added")
	}
	used, _ := ds.Float("num_satellite_used")
	if !slices.Equal(used, []float64{3, 3, 3, 3, 3, 3}) {
		t.Errorf("Expected 3 satellites used per epoch, got %v", used)
	}
	if got := labels(r.requests[0].Series); !slices.Equal(got, []string{"Available", "Used"}) {
		t.Errorf("Expected Available and Used, got %v", got)
	}

	// second call reuses the field
	if _, err := newTestPlotter(ds, r).PlotNumberOfSatellitesUsed(context.Background()); err != nil {
		t.Errorf("Expected second plot to succeed, got %v", err)
	}
}

func TestPlotObstypeAvailability(t *testing.T) {
	ds := newTestDataset(t)
	nan := math.NaN()
	addFloat(t, ds, "obs.C1C", nan, 20e6, 21e6, nan, 20e6, nan)
	addFloat(t, ds, "obs.L1C", nan, nan, nan, nan, nan, nan)
	addFloat(t, ds, "obs.C1X", nan, nan, nan, nan, nan, nan)

	r := &recordingRenderer{}
	paths, err := newTestPlotter(ds, r).PlotObstypeAvailability(context.Background())
	if err != nil {
		t.Fatalf("Failed to plot: %v", err)
	}
	if want := []string{filepath.Join("figures", "plot_obstype_availability_G.png")}; !slices.Equal(paths, want) {
		t.Errorf("Expected only the G figure, got %v", paths)
	}

	req := r.requests[0]
	if len(req.Series) != 2 {
		t.Fatalf("Expected 2 series, got %d", len(req.Series))
	}
	if req.Series[0].Text[0] != "G12_C1C" || len(req.Series[1].Text) != 2 {
		t.Errorf("Expected G12 first and two G01 epochs, got %v", req.Series)
	}
	if req.FigSize != (render.Size{Width: 2, Height: 6}) {
		t.Errorf("Expected size scaled by satellites, got %v", req.FigSize)
	}
}

func TestPlotSatelliteAvailability_Descending(t *testing.T) {
	ds := newTestDataset(t)

	r := &recordingRenderer{}
	if _, err := newTestPlotter(ds, r).PlotSatelliteAvailability(context.Background()); err != nil {
		t.Fatalf("Failed to plot: %v", err)
	}

	req := r.requests[0]
	if got := labels(req.Series); !slices.Equal(got, []string{"GPS", "Galileo"}) {
		t.Errorf("Expected descending systems, got %v", got)
	}
	if got := req.Series[0].Text; !slices.Equal(got, []string{"G12", "G12", "G01", "G01"}) {
		t.Errorf("Expected descending satellites, got %v", got)
	}
}

func TestPlotSkyplot(t *testing.T) {
	ds := newTestDataset(t)
	addFloat(t, ds, "site_pos.azimuth", -math.Pi/2, 0, 1, -math.Pi/2, 0, 1)
	addFloat(t, ds, "site_pos.zenith_distance", math.Pi/4, 0, 0, math.Pi/4, 0, 0)

	r := &recordingRenderer{}
	paths, err := newTestPlotter(ds, r).PlotSkyplot(context.Background())
	if err != nil {
		t.Fatalf("Failed to plot: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("Expected 2 figures, got %v", paths)
	}

	req := r.requests[0]
	if req.Projection != render.ProjectionPolar {
		t.Errorf("Expected polar projection, got %q", req.Projection)
	}
	if req.Title != "Skyplot for Galileo\n Azimuth [deg] / Elevation[deg]" {
		t.Errorf("Unexpected title %q", req.Title)
	}
	if got := req.Series[0].X[0]; math.Abs(got-3*math.Pi/2) > 1e-12 {
		t.Errorf("Expected azimuth 3π/2, got %f", got)
	}
	if got := req.Series[0].Y[0]; math.Abs(got-45) > 1e-12 {
		t.Errorf("Expected zenith distance 45, got %f", got)
	}
	az, _ := ds.Float("site_pos.azimuth")
	if az[0] >= 0 {
		t.Errorf("Expected dataset azimuth to stay unchanged, got %f", az[0])
	}
}

func TestPlotSatelliteElevation(t *testing.T) {
	ds := newTestDataset(t)
	addFloat(t, ds, "site_pos.elevation", 0.5, 0.6, 0.7, 0.5, 0.6, 0.7)

	r := &recordingRenderer{}
	paths, err := newTestPlotter(ds, r).PlotSatelliteElevation(context.Background())
	if err != nil {
		t.Fatalf("Failed to plot: %v", err)
	}
	if want := filepath.Join("figures", "plot_satellite_elevation_G.png"); paths[1] != want {
		t.Errorf("Expected %s, got %s", want, paths[1])
	}
	req := r.requests[1]
	if req.Title != "Satellite elevation for GPS" {
		t.Errorf("Unexpected title %q", req.Title)
	}
	if req.XLim == nil || req.XLim.Max-req.XLim.Min != 30 {
		t.Errorf("Expected 30 s time limits, got %v", req.XLim)
	}
}

func TestPlotSatelliteOverview_NoReadStage(t *testing.T) {
	ds := newTestDataset(t)

	r := &recordingRenderer{}
	for _, opt := range []Option{WithStages(&fakeStages{}), WithStages(nil)} {
		path, err := newTestPlotter(ds, r, opt).PlotSatelliteOverview(context.Background())
		if err != nil || path != "" {
			t.Errorf("Expected empty path and no error, got %q, %v", path, err)
		}
	}
	if len(r.requests) != 0 {
		t.Errorf("Expected no figures, got %d", len(r.requests))
	}
}

func TestPlotSatelliteOverview(t *testing.T) {
	ds := newTestDataset(t)
	stages := &fakeStages{datasets: map[string]*dataset.Memory{
		"read": newTestDataset(t),
		"edit": newTestDataset(t).Subset([]bool{true, true, false, true, true, false}),
	}}

	r := &recordingRenderer{}
	path, err := newTestPlotter(ds, r, WithStages(stages)).PlotSatelliteOverview(context.Background())
	if err != nil {
		t.Fatalf("Failed to plot: %v", err)
	}
	if want := filepath.Join("figures", "plot_satellite_overview.png"); path != want {
		t.Errorf("Expected %s, got %s", want, path)
	}

	req := r.requests[0]
	if len(req.Series) != 3 {
		t.Fatalf("Expected 3 layers, got %d", len(req.Series))
	}
	if req.Series[0].Color != "red" || req.Series[0].Len() != 6 {
		t.Errorf("Expected 6 red read observations, got %s/%d", req.Series[0].Color, req.Series[0].Len())
	}
	if req.Series[1].Len() != 0 {
		t.Errorf("Expected empty orbit layer, got %d", req.Series[1].Len())
	}
	if req.Series[2].Color != "green" || req.Series[2].Len() != 4 {
		t.Errorf("Expected 4 green edit observations, got %s/%d", req.Series[2].Color, req.Series[2].Len())
	}
}
