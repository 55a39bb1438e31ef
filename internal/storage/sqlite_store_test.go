package storage

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/roman-kulish/gnss-reporting/internal/dataset"
)

func newTestDataset(t *testing.T) *dataset.Memory {
	t.Helper()

	base := time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)
	epochs := []time.Time{base, base, base.Add(30 * time.Second), base.Add(30 * time.Second)}
	ds, err := dataset.NewMemory(epochs, []string{"G", "E", "G", "E"}, []string{"G01", "E11", "G01", "E11"})
	if err != nil {
		t.Fatalf("Failed to create dataset: %v", err)
	}
	if err = ds.AddFloat("gdop", []float64{1.5, 1.6, math.NaN(), 1.8}); err != nil {
		t.Fatalf("Failed to add field: %v", err)
	}
	if err = ds.AddFloat("site_pos.elevation", []float64{0.1, 0.2, 0.3, 0.4}); err != nil {
		t.Fatalf("Failed to add field: %v", err)
	}
	if err = ds.AddText("station", []string{"brux", "brux", "brux", "brux"}); err != nil {
		t.Fatalf("Failed to add field: %v", err)
	}
	ds.SetMeta(dataset.Meta{Obstypes: map[string][]string{"G": {"C1C", "L1C"}, "E": {"C1X"}}})
	ds.SetVar("station", "brux")
	return ds
}

func TestSqliteStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewSqliteStore(filepath.Join(t.TempDir(), "edit.sqlite"))
	defer store.Close()

	id, err := store.SaveDataset(ctx, newTestDataset(t))
	if err != nil {
		t.Fatalf("Failed to save dataset: %v", err)
	}

	ds, err := store.Dataset(ctx, id)
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}

	if ds.NumObs() != 4 {
		t.Fatalf("Expected 4 observations, got %d", ds.NumObs())
	}

	gdop, err := ds.Float("gdop")
	if err != nil {
		t.Fatalf("Expected gdop field, got %v", err)
	}
	if gdop[0] != 1.5 || !math.IsNaN(gdop[2]) {
		t.Errorf("Expected gdop [1.5 1.6 NaN 1.8], got %v", gdop)
	}

	if got := ds.Fields("site_pos"); len(got) != 1 || got[0] != "elevation" {
		t.Errorf("Expected site_pos fields [elevation], got %v", got)
	}

	stations, err := ds.Text("station")
	if err != nil || stations[3] != "brux" {
		t.Errorf("Expected station text field, got %v (%v)", stations, err)
	}

	if got := ds.Meta().Obstypes["G"]; len(got) != 2 || got[0] != "C1C" {
		t.Errorf("Expected GPS obstypes [C1C L1C], got %v", got)
	}
	if ds.Vars()["station"] != "brux" {
		t.Errorf("Expected station var brux, got %q", ds.Vars()["station"])
	}

	epochs := ds.Time(dataset.TimeScaleGPS)
	if !epochs[2].Equal(time.Date(2021, 7, 1, 0, 0, 30, 0, time.UTC)) {
		t.Errorf("Expected third epoch 00:00:30, got %v", epochs[2])
	}
}

func TestSqliteStore_LatestDatasetWithSystems(t *testing.T) {
	ctx := context.Background()
	store := NewSqliteStore(filepath.Join(t.TempDir(), "edit.sqlite"))
	defer store.Close()

	for range 2 {
		if _, err := store.SaveDataset(ctx, newTestDataset(t)); err != nil {
			t.Fatalf("Failed to save dataset: %v", err)
		}
	}

	infos, err := store.Datasets(ctx)
	if err != nil {
		t.Fatalf("Failed to list datasets: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 datasets, got %d", len(infos))
	}

	ds, err := store.LatestDataset(ctx, WithSystems("E"))
	if err != nil {
		t.Fatalf("Failed to load latest dataset: %v", err)
	}
	if ds.NumObs() != 2 {
		t.Errorf("Expected 2 Galileo observations, got %d", ds.NumObs())
	}
	if got := ds.Unique(dataset.FieldSystem); len(got) != 1 || got[0] != "E" {
		t.Errorf("Expected systems [E], got %v", got)
	}
}

func TestSqliteStore_DatasetTimeRange(t *testing.T) {
	ctx := context.Background()
	store := NewSqliteStore(filepath.Join(t.TempDir(), "edit.sqlite"))
	defer store.Close()

	id, err := store.SaveDataset(ctx, newTestDataset(t))
	if err != nil {
		t.Fatalf("Failed to save dataset: %v", err)
	}

	base := time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		opts     []ReaderOption
		expected int
	}{
		{"start", []ReaderOption{WithStartTime(base.Add(30 * time.Second))}, 2},
		{"end", []ReaderOption{WithEndTime(base)}, 2},
		{"range excluding all", []ReaderOption{WithTimeRange(base.Add(time.Second), base.Add(29*time.Second))}, 0},
		{"range with systems", []ReaderOption{WithTimeRange(base, base.Add(time.Minute)), WithSystems("G")}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := store.Dataset(ctx, id, tt.opts...)
			if err != nil {
				t.Fatalf("Failed to load dataset: %v", err)
			}
			if ds.NumObs() != tt.expected {
				t.Errorf("Expected %d observations, got %d", tt.expected, ds.NumObs())
			}
			gdop, err := ds.Float("gdop")
			if err != nil {
				t.Fatalf("Expected gdop field, got %v", err)
			}
			if len(gdop) != tt.expected {
				t.Errorf("Expected %d gdop values, got %d", tt.expected, len(gdop))
			}
		})
	}
}

func TestSqliteStore_DatasetNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewSqliteStore(filepath.Join(t.TempDir(), "edit.sqlite"))
	defer store.Close()

	if _, err := store.SaveDataset(ctx, newTestDataset(t)); err != nil {
		t.Fatalf("Failed to save dataset: %v", err)
	}

	if _, err := store.Dataset(ctx, 42); !errors.Is(err, ErrDatasetNotFound) {
		t.Errorf("Expected ErrDatasetNotFound, got %v", err)
	}
}

func TestStagePaths(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	paths := StagePaths{
		Template: filepath.Join(dir, "{station}_{stage}.sqlite"),
		Vars:     map[string]string{"station": "brux"},
	}

	if got, want := paths.Path("edit"), filepath.Join(dir, "brux_edit.sqlite"); got != want {
		t.Errorf("Expected path %s, got %s", want, got)
	}
	if paths.Exists("read") {
		t.Errorf("Expected read stage to be missing")
	}
	if _, err := paths.Load(ctx, "read", nil); !errors.Is(err, ErrStageNotFound) {
		t.Errorf("Expected ErrStageNotFound, got %v", err)
	}

	store := NewSqliteStore(paths.Path("read"))
	if _, err := store.SaveDataset(ctx, newTestDataset(t)); err != nil {
		t.Fatalf("Failed to save dataset: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	ds, err := paths.Load(ctx, "read", []string{"G"})
	if err != nil {
		t.Fatalf("Failed to load stage: %v", err)
	}
	if ds.NumObs() != 2 {
		t.Errorf("Expected 2 GPS observations, got %d", ds.NumObs())
	}
}
