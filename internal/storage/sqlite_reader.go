package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/roman-kulish/gnss-reporting/internal/dataset"
)

// ErrDatasetNotFound indicates that no dataset exists with the requested ID.
var ErrDatasetNotFound = errors.New("dataset not found")

// ReaderOption configures which observations are read from a stored dataset.
type ReaderOption func(*datasetReader)

// WithSystems restricts the dataset to observations of the given GNSS systems.
func WithSystems(systems ...string) ReaderOption {
	return func(r *datasetReader) {
		r.systems = systems
	}
}

// WithStartTime excludes observations with GPS epochs before t.
func WithStartTime(t time.Time) ReaderOption {
	return func(r *datasetReader) {
		r.startTime = &t
	}
}

// WithEndTime excludes observations with GPS epochs after t.
func WithEndTime(t time.Time) ReaderOption {
	return func(r *datasetReader) {
		r.endTime = &t
	}
}

// WithTimeRange sets both start and end time filters.
func WithTimeRange(startTime, endTime time.Time) ReaderOption {
	return func(r *datasetReader) {
		r.startTime = &startTime
		r.endTime = &endTime
	}
}

// datasetReader assembles a dataset.Memory from its stored tables.
type datasetReader struct {
	db        *sql.DB
	datasetID int64

	systems   []string
	startTime *time.Time
	endTime   *time.Time

	// populated by read steps
	data   datasetData
	ds     *dataset.Memory
	fields []fieldData
	mask   []bool
}

func newDatasetReader(db *sql.DB, datasetID int64, opts ...ReaderOption) *datasetReader {
	r := &datasetReader{db: db, datasetID: datasetID}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *datasetReader) read(ctx context.Context) (*dataset.Memory, error) {
	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "reading dataset", fn: r.readDataset},
		{msg: "reading observations", fn: r.readObservations},
		{msg: "reading fields", fn: r.readFields},
		{msg: "reading values", fn: r.readValues},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return nil, fmt.Errorf("%s %d: %w", step.msg, r.datasetID, err)
		}
	}

	if r.systems == nil && r.startTime == nil && r.endTime == nil {
		return r.ds, nil
	}
	return r.ds.Subset(r.mask), nil
}

func (r *datasetReader) readDataset(ctx context.Context) error {
	err := r.db.QueryRowContext(ctx, selectDatasetSQL, r.datasetID).
		Scan(&r.data.ID, &r.data.CreatedAt, &r.data.Vars, &r.data.Meta)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDatasetNotFound
	}
	return err
}

func (r *datasetReader) readObservations(ctx context.Context) (err error) {
	rows, err := r.db.QueryContext(ctx, selectObservationsSQL, r.datasetID)
	if err != nil {
		return err
	}
	defer closeWithError(rows, &err)

	var epochs []time.Time
	var systems, satellites []string
	for rows.Next() {
		var obs observationData
		if err = rows.Scan(&obs.Index, &obs.Epoch, &obs.System, &obs.Satellite); err != nil {
			return err
		}

		epoch := fromEpoch(obs.Epoch)
		epochs = append(epochs, epoch)
		systems = append(systems, obs.System)
		satellites = append(satellites, obs.Satellite)
		r.mask = append(r.mask, r.keep(epoch, obs.System))
	}
	if err = rows.Err(); err != nil {
		return err
	}

	if r.ds, err = dataset.NewMemory(epochs, systems, satellites); err != nil {
		return err
	}

	var meta dataset.Meta
	if err = json.Unmarshal([]byte(r.data.Meta), &meta); err != nil {
		return fmt.Errorf("unmarshaling meta: %w", err)
	}
	r.ds.SetMeta(meta)

	var vars map[string]string
	if err = json.Unmarshal([]byte(r.data.Vars), &vars); err != nil {
		return fmt.Errorf("unmarshaling vars: %w", err)
	}
	for k, v := range vars {
		r.ds.SetVar(k, v)
	}
	return nil
}

func (r *datasetReader) keep(epoch time.Time, system string) bool {
	if r.systems != nil && !slices.Contains(r.systems, system) {
		return false
	}
	if r.startTime != nil && epoch.Before(*r.startTime) {
		return false
	}
	if r.endTime != nil && epoch.After(*r.endTime) {
		return false
	}
	return true
}

func (r *datasetReader) readFields(ctx context.Context) (err error) {
	rows, err := r.db.QueryContext(ctx, selectFieldsSQL, r.datasetID)
	if err != nil {
		return err
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var f fieldData
		if err = rows.Scan(&f.Name, &f.Kind); err != nil {
			return err
		}
		r.fields = append(r.fields, f)
	}
	return rows.Err()
}

func (r *datasetReader) readValues(ctx context.Context) error {
	n := r.ds.NumObs()
	for _, f := range r.fields {
		switch f.Kind {
		case fieldKindFloat:
			values, err := r.readFloatValues(ctx, f.Name, n)
			if err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
			if err = r.ds.AddFloat(f.Name, values); err != nil {
				return err
			}
		case fieldKindText:
			values, err := r.readTextValues(ctx, f.Name, n)
			if err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
			if err = r.ds.AddText(f.Name, values); err != nil {
				return err
			}
		default:
			return fmt.Errorf("field %s: unknown kind %q", f.Name, f.Kind)
		}
	}
	return nil
}

func (r *datasetReader) readFloatValues(ctx context.Context, field string, n int) (values []float64, err error) {
	rows, err := r.db.QueryContext(ctx, selectFloatValuesSQL, r.datasetID, field)
	if err != nil {
		return nil, err
	}
	defer closeWithError(rows, &err)

	values = nanSlice(n)
	for rows.Next() {
		var v floatValueData
		if err = rows.Scan(&v.Index, &v.Value); err != nil {
			return nil, err
		}
		if v.Index < 0 || v.Index >= n {
			return nil, fmt.Errorf("value index %d out of range", v.Index)
		}
		values[v.Index] = fromNullFloat(v.Value)
	}
	return values, rows.Err()
}

func (r *datasetReader) readTextValues(ctx context.Context, field string, n int) (values []string, err error) {
	rows, err := r.db.QueryContext(ctx, selectTextValuesSQL, r.datasetID, field)
	if err != nil {
		return nil, err
	}
	defer closeWithError(rows, &err)

	values = make([]string, n)
	for rows.Next() {
		var v textValueData
		if err = rows.Scan(&v.Index, &v.Value); err != nil {
			return nil, err
		}
		if v.Index < 0 || v.Index >= n {
			return nil, fmt.Errorf("value index %d out of range", v.Index)
		}
		values[v.Index] = v.Value
	}
	return values, rows.Err()
}
