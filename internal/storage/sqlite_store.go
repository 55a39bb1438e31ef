package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/roman-kulish/gnss-reporting/internal/dataset"
)

// ErrNoData indicates that the database file holds no dataset.
var ErrNoData = fmt.Errorf("no data available")

var _ Store = (*SqliteStore)(nil)

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a new store backed by the Sqlite database file at dbPath.
// Connections are opened lazily; the schema is created on first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) SaveDataset(ctx context.Context, ds *dataset.Memory) (datasetID int64, err error) {
	vars, err := json.Marshal(ds.Vars())
	if err != nil {
		return 0, fmt.Errorf("marshaling vars: %w", err)
	}
	meta, err := json.Marshal(ds.Meta())
	if err != nil {
		return 0, fmt.Errorf("marshaling meta: %w", err)
	}

	db, err := s.getWriteDB()
	if err != nil {
		return 0, fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	result, err := tx.ExecContext(ctx, insertDatasetSQL, string(vars), string(meta))
	if err != nil {
		return 0, fmt.Errorf("inserting dataset: %w", err)
	}
	if datasetID, err = result.LastInsertId(); err != nil {
		return 0, fmt.Errorf("getting dataset ID: %w", err)
	}

	steps := []struct {
		msg string
		fn  func(context.Context, *sql.Tx, int64, *dataset.Memory) error
	}{
		{msg: "inserting observations", fn: insertObservations},
		{msg: "inserting float fields", fn: insertFloatFields},
		{msg: "inserting text fields", fn: insertTextFields},
	}
	for _, step := range steps {
		if err = step.fn(ctx, tx, datasetID, ds); err != nil {
			return 0, fmt.Errorf("%s: %w", step.msg, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return datasetID, nil
}

func insertObservations(ctx context.Context, tx *sql.Tx, datasetID int64, ds *dataset.Memory) (err error) {
	systems, err := ds.Text(dataset.FieldSystem)
	if err != nil {
		return err
	}
	satellites, err := ds.Text(dataset.FieldSatellite)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, insertObservationSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for i, epoch := range ds.Time(dataset.TimeScaleGPS) {
		obs := observationData{
			Index:     i,
			Epoch:     toEpoch(epoch),
			System:    systems[i],
			Satellite: satellites[i],
		}
		if _, err = stmt.ExecContext(ctx, datasetID, obs.Index, obs.Epoch, obs.System, obs.Satellite); err != nil {
			return err
		}
	}
	return nil
}

func insertFloatFields(ctx context.Context, tx *sql.Tx, datasetID int64, ds *dataset.Memory) (err error) {
	fieldStmt, err := tx.PrepareContext(ctx, insertFieldSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(fieldStmt, &err)

	valueStmt, err := tx.PrepareContext(ctx, insertFloatValueSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(valueStmt, &err)

	for pos, name := range ds.FloatFields() {
		if _, err = fieldStmt.ExecContext(ctx, datasetID, name, fieldKindFloat, pos); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}

		values, _ := ds.Float(name)
		for i, v := range values {
			if _, err = valueStmt.ExecContext(ctx, datasetID, name, i, toNullFloat(v)); err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}
		}
	}
	return nil
}

func insertTextFields(ctx context.Context, tx *sql.Tx, datasetID int64, ds *dataset.Memory) (err error) {
	fieldStmt, err := tx.PrepareContext(ctx, insertFieldSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(fieldStmt, &err)

	valueStmt, err := tx.PrepareContext(ctx, insertTextValueSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(valueStmt, &err)

	// system and satellite live in the observations table
	offset := len(ds.FloatFields())
	for pos, name := range ds.TextFields() {
		if name == dataset.FieldSystem || name == dataset.FieldSatellite {
			continue
		}
		if _, err = fieldStmt.ExecContext(ctx, datasetID, name, fieldKindText, offset+pos); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}

		values, _ := ds.Text(name)
		for i, v := range values {
			if _, err = valueStmt.ExecContext(ctx, datasetID, name, i, v); err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}
		}
	}
	return nil
}

func (s *SqliteStore) Dataset(ctx context.Context, id int64, opts ...ReaderOption) (*dataset.Memory, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	r := newDatasetReader(db, id, opts...)
	return r.read(ctx)
}

func (s *SqliteStore) LatestDataset(ctx context.Context, opts ...ReaderOption) (*dataset.Memory, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	var id sql.NullInt64
	if err = db.QueryRowContext(ctx, selectLatestDatasetIDSQL).Scan(&id); err != nil {
		return nil, fmt.Errorf("querying latest dataset: %w", err)
	}
	if !id.Valid {
		return nil, ErrNoData
	}

	r := newDatasetReader(db, id.Int64, opts...)
	return r.read(ctx)
}

func (s *SqliteStore) Datasets(ctx context.Context) (datasets []*DatasetInfo, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectDatasetsSQL)
	if err != nil {
		err = fmt.Errorf("querying datasets: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var d datasetData
		if err = rows.Scan(&d.ID, &d.CreatedAt, &d.Vars, &d.Meta); err != nil {
			err = fmt.Errorf("scanning dataset: %w", err)
			return
		}

		info := &DatasetInfo{ID: d.ID, CreatedAt: d.CreatedAt}
		if err = json.Unmarshal([]byte(d.Vars), &info.Vars); err != nil {
			err = fmt.Errorf("unmarshaling vars of dataset %d: %w", d.ID, err)
			return
		}
		datasets = append(datasets, info)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating datasets: %w", err)
	}
	return
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		switch {
		case writeErr != nil && readErr != nil:
			s.closeErr = errors.Join(writeErr, readErr)
		case writeErr != nil:
			s.closeErr = writeErr
		case readErr != nil:
			s.closeErr = readErr
		}
	})

	return s.closeErr
}
