package dataset

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Memory is an in-memory Dataset. Epochs are stored in GPS time.
type Memory struct {
	epochs []time.Time
	floats map[string][]float64
	texts  map[string][]string
	order  []string // field insertion order
	meta   Meta
	vars   map[string]string
}

// NewMemory creates a dataset from GPS epochs and the system and satellite of every observation.
func NewMemory(epochs []time.Time, systems, satellites []string) (*Memory, error) {
	if len(systems) != len(epochs) || len(satellites) != len(epochs) {
		return nil, fmt.Errorf("length mismatch: %d epochs, %d systems, %d satellites",
			len(epochs), len(systems), len(satellites))
	}

	m := &Memory{
		epochs: slices.Clone(epochs),
		floats: make(map[string][]float64),
		texts:  make(map[string][]string),
		meta: Meta{
			Obstypes:          make(map[string][]string),
			LinearCombination: make(map[string]map[string][]string),
		},
		vars: make(map[string]string),
	}
	m.texts[FieldSystem] = slices.Clone(systems)
	m.texts[FieldSatellite] = slices.Clone(satellites)
	m.order = append(m.order, FieldSystem, FieldSatellite)
	return m, nil
}

func (m *Memory) NumObs() int {
	return len(m.epochs)
}

func (m *Memory) Time(scale TimeScale) []time.Time {
	out := make([]time.Time, len(m.epochs))
	for i, t := range m.epochs {
		if scale == TimeScaleUTC {
			t = GPSToUTC(t)
		}
		out[i] = t
	}
	return out
}

func (m *Memory) Float(name string) ([]float64, error) {
	values, ok := m.floats[name]
	if !ok {
		return nil, fmt.Errorf("float field %q: %w", name, ErrNoField)
	}
	return values, nil
}

func (m *Memory) Text(name string) ([]string, error) {
	values, ok := m.texts[name]
	if !ok {
		return nil, fmt.Errorf("text field %q: %w", name, ErrNoField)
	}
	return values, nil
}

func (m *Memory) HasField(name string) bool {
	if _, ok := m.floats[name]; ok {
		return true
	}
	_, ok := m.texts[name]
	return ok
}

func (m *Memory) Fields(collection string) []string {
	var fields []string
	prefix := collection + "."
	for _, name := range m.order {
		if collection == "" {
			if !strings.Contains(name, ".") {
				fields = append(fields, name)
			}
			continue
		}
		if strings.HasPrefix(name, prefix) {
			fields = append(fields, strings.TrimPrefix(name, prefix))
		}
	}
	return fields
}

func (m *Memory) Filter(attr, value string) []bool {
	mask := make([]bool, len(m.epochs))
	for i, v := range m.texts[attr] {
		mask[i] = v == value
	}
	return mask
}

func (m *Memory) Unique(attr string) []string {
	seen := make(map[string]struct{})
	for _, v := range m.texts[attr] {
		seen[v] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

func (m *Memory) Meta() Meta {
	return m.meta
}

func (m *Memory) Vars() map[string]string {
	return m.vars
}

func (m *Memory) AddFloat(name string, values []float64) error {
	if m.HasField(name) {
		return fmt.Errorf("field %q already exists", name)
	}
	if len(values) != len(m.epochs) {
		return fmt.Errorf("field %q: expected %d values, got %d", name, len(m.epochs), len(values))
	}
	m.floats[name] = slices.Clone(values)
	m.order = append(m.order, name)
	return nil
}

// AddText adds a text field.
func (m *Memory) AddText(name string, values []string) error {
	if m.HasField(name) {
		return fmt.Errorf("field %q already exists", name)
	}
	if len(values) != len(m.epochs) {
		return fmt.Errorf("field %q: expected %d values, got %d", name, len(m.epochs), len(values))
	}
	m.texts[name] = slices.Clone(values)
	m.order = append(m.order, name)
	return nil
}

// TextFields returns the names of all text fields in insertion order.
func (m *Memory) TextFields() []string {
	var names []string
	for _, name := range m.order {
		if _, ok := m.texts[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// FloatFields returns the names of all float fields in insertion order.
func (m *Memory) FloatFields() []string {
	var names []string
	for _, name := range m.order {
		if _, ok := m.floats[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// SetMeta replaces the dataset metadata.
func (m *Memory) SetMeta(meta Meta) {
	if meta.Obstypes == nil {
		meta.Obstypes = make(map[string][]string)
	}
	if meta.LinearCombination == nil {
		meta.LinearCombination = make(map[string]map[string][]string)
	}
	m.meta = meta
}

// SetVar sets a dataset variable.
func (m *Memory) SetVar(key, value string) {
	m.vars[key] = value
}

// Subset returns a new dataset holding the observations selected by mask. Metadata and
// variables are shared by value.
func (m *Memory) Subset(mask []bool) *Memory {
	out := &Memory{
		epochs: Select(m.epochs, mask),
		floats: make(map[string][]float64, len(m.floats)),
		texts:  make(map[string][]string, len(m.texts)),
		order:  slices.Clone(m.order),
		meta:   m.meta,
		vars:   maps.Clone(m.vars),
	}
	for name, values := range m.floats {
		out.floats[name] = Select(values, mask)
	}
	for name, values := range m.texts {
		out.texts[name] = Select(values, mask)
	}
	return out
}
