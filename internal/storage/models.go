package storage

import (
	"database/sql"
	"time"
)

const (
	fieldKindFloat = "float"
	fieldKindText  = "text"
)

// DatasetInfo describes a dataset stored in a database file.
type DatasetInfo struct {
	ID        int64
	CreatedAt time.Time
	Vars      map[string]string
}

type datasetData struct {
	ID        int64
	CreatedAt time.Time
	Vars      string
	Meta      string
}

type observationData struct {
	Index     int
	Epoch     int64
	System    string
	Satellite string
}

type fieldData struct {
	Name string
	Kind string
}

type floatValueData struct {
	Index int
	Value sql.NullFloat64
}

type textValueData struct {
	Index int
	Value string
}
