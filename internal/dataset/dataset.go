package dataset

import (
	"errors"
	"fmt"
	"time"
)

const (
	TimeScaleGPS TimeScale = "gps"
	TimeScaleUTC TimeScale = "utc"

	// Attributes every dataset carries as text fields.
	FieldSystem    = "system"
	FieldSatellite = "satellite"
)

// ErrNoField is returned when a named field does not exist in the dataset.
var ErrNoField = errors.New("no such field")

// TimeScale names a time scale the observation epochs can be expressed in.
type TimeScale string

// Meta carries dataset-wide metadata used to build plots.
type Meta struct {
	// Obstypes lists the observation types per GNSS system identifier (e.g. "G" -> [C1C, L1C]).
	Obstypes map[string][]string `json:"obstypes"`

	// LinearCombination lists, per linear-combination field and per system, the observation
	// types the combination was built from.
	LinearCombination map[string]map[string][]string `json:"linear_combination"`
}

// Systems returns the GNSS identifiers present in Obstypes.
func (m Meta) Systems() []string {
	systems := make([]string, 0, len(m.Obstypes))
	for sys := range m.Obstypes {
		systems = append(systems, sys)
	}
	return systems
}

// Dataset is the read side of a GNSS analysis dataset: one row per observation (epoch and
// satellite), with named float and text fields addressed as "field" or "collection.field".
type Dataset interface {
	// NumObs returns the number of observations.
	NumObs() int

	// Time returns the observation epochs in the given time scale.
	Time(scale TimeScale) []time.Time

	// Float returns the float field with the given name. Missing values are NaN.
	Float(name string) ([]float64, error)

	// Text returns the text field with the given name, e.g. "system" or "satellite".
	Text(name string) ([]string, error)

	// HasField reports whether a float or text field with the given name exists.
	HasField(name string) bool

	// Fields returns the names of the fields in a collection, without the collection prefix,
	// in insertion order.
	Fields(collection string) []string

	// Filter returns a mask selecting the observations whose text attribute equals value.
	Filter(attr, value string) []bool

	// Unique returns the distinct values of a text attribute in ascending order.
	Unique(attr string) []string

	// Meta returns the dataset metadata.
	Meta() Meta

	// Vars returns the variables identifying the dataset (station, date, stage, ...).
	Vars() map[string]string

	// AddFloat adds a float field. It fails if the field exists or has the wrong length.
	AddFloat(name string, values []float64) error
}

// FieldName joins a collection and a field name the way dataset fields are addressed.
func FieldName(collection, field string) string {
	if collection == "" {
		return field
	}
	return fmt.Sprintf("%s.%s", collection, field)
}
