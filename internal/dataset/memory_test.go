package dataset

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()

	base := time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)
	epochs := []time.Time{base, base, base, base.Add(30 * time.Second), base.Add(30 * time.Second)}
	systems := []string{"G", "G", "E", "G", "E"}
	satellites := []string{"G01", "G12", "E11", "G01", "E11"}

	m, err := NewMemory(epochs, systems, satellites)
	if err != nil {
		t.Fatalf("Failed to create dataset: %v", err)
	}
	return m
}

func TestMemory_FilterAndUnique(t *testing.T) {
	m := newTestMemory(t)

	mask := m.Filter(FieldSystem, "G")
	expected := []bool{true, true, false, true, false}
	if !slices.Equal(mask, expected) {
		t.Errorf("Expected mask %v, got %v", expected, mask)
	}

	if sats := m.Unique(FieldSatellite); !slices.Equal(sats, []string{"E11", "G01", "G12"}) {
		t.Errorf("Expected ascending satellites, got %v", sats)
	}
	if systems := m.Unique(FieldSystem); !slices.Equal(systems, []string{"E", "G"}) {
		t.Errorf("Expected ascending systems, got %v", systems)
	}
}

func TestMemory_Fields(t *testing.T) {
	m := newTestMemory(t)
	nan := math.NaN()

	for _, name := range []string{"lin.melbourne_wuebbena", "gdop", "lin.geometry_free_code"} {
		if err := m.AddFloat(name, []float64{1, 2, 3, 4, nan}); err != nil {
			t.Fatalf("Failed to add %s: %v", name, err)
		}
	}

	if fields := m.Fields("lin"); !slices.Equal(fields, []string{"melbourne_wuebbena", "geometry_free_code"}) {
		t.Errorf("Expected lin fields in insertion order, got %v", fields)
	}
	if !m.HasField("gdop") {
		t.Error("Expected gdop to exist")
	}
	if err := m.AddFloat("gdop", make([]float64, 5)); err == nil {
		t.Error("Expected error when adding an existing field")
	}
	if err := m.AddFloat("short", make([]float64, 2)); err == nil {
		t.Error("Expected error when adding a field with the wrong length")
	}
	if _, err := m.Float("missing"); !errors.Is(err, ErrNoField) {
		t.Errorf("Expected ErrNoField, got %v", err)
	}
}

func TestMemory_Subset(t *testing.T) {
	m := newTestMemory(t)
	if err := m.AddFloat("gdop", []float64{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("Failed to add field: %v", err)
	}
	m.SetVar("station", "brux")

	sub := m.Subset(m.Filter(FieldSystem, "E"))
	if sub.NumObs() != 2 {
		t.Fatalf("Expected 2 observations, got %d", sub.NumObs())
	}
	gdop, _ := sub.Float("gdop")
	if !slices.Equal(gdop, []float64{3, 5}) {
		t.Errorf("Expected gdop [3 5], got %v", gdop)
	}
	if sub.Vars()["station"] != "brux" {
		t.Errorf("Expected vars to be carried over, got %v", sub.Vars())
	}
}

func TestNumberOfSatellites(t *testing.T) {
	m := newTestMemory(t)
	systems, _ := m.Text(FieldSystem)
	satellites, _ := m.Text(FieldSatellite)

	counts := NumberOfSatellites(systems, satellites, m.Time(TimeScaleGPS))
	expected := []float64{3, 3, 3, 2, 2}
	if !slices.Equal(counts, expected) {
		t.Errorf("Expected %v, got %v", expected, counts)
	}
}

func TestGPSToUTC(t *testing.T) {
	gps := time.Date(2021, 7, 1, 0, 0, 18, 0, time.UTC)
	if utc := GPSToUTC(gps); !utc.Equal(time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected 18 s offset in 2021, got %s", utc)
	}

	gps = time.Date(2010, 1, 1, 0, 0, 15, 0, time.UTC)
	if utc := GPSToUTC(gps); !utc.Equal(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected 15 s offset in 2010, got %s", utc)
	}
}

func TestAllNaN(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		values []float64
		want   bool
	}{
		{nil, true},
		{[]float64{nan, nan}, true},
		{[]float64{nan, 0}, false},
	}
	for _, tt := range tests {
		if got := AllNaN(tt.values); got != tt.want {
			t.Errorf("AllNaN(%v): expected %v, got %v", tt.values, tt.want, got)
		}
	}
}

func TestSystemName(t *testing.T) {
	if name := SystemName("E"); name != "Galileo" {
		t.Errorf("Expected Galileo, got %s", name)
	}
	if name := SystemName("X"); name != "X" {
		t.Errorf("Expected pass-through for unknown id, got %s", name)
	}
}
