package storage

import (
	_ "embed"
)

const (
	insertDatasetSQL = `
INSERT INTO datasets (
                      created_at,
                      vars,
                      meta)
VALUES (CURRENT_TIMESTAMP, ?, ?)`

	selectDatasetSQL = `
SELECT
    id,
    created_at,
    vars,
    meta
FROM datasets
WHERE
    id = ?`

	selectDatasetsSQL = `
SELECT
    id,
    created_at,
    vars,
    meta
FROM datasets
ORDER BY id`

	selectLatestDatasetIDSQL = `
SELECT
    MAX(id)
FROM datasets`

	insertObservationSQL = `
INSERT INTO observations (dataset_id,
                          idx,
                          epoch,
                          system,
                          satellite)
VALUES (?, ?, ?, ?, ?)`

	selectObservationsSQL = `
SELECT
    idx,
    epoch,
    system,
    satellite
FROM observations
WHERE
    dataset_id = ?
ORDER BY idx`

	insertFieldSQL = `
INSERT INTO fields (dataset_id,
                    name,
                    kind,
                    position)
VALUES (?, ?, ?, ?)`

	selectFieldsSQL = `
SELECT
    name,
    kind
FROM fields
WHERE
    dataset_id = ?
ORDER BY position`

	insertFloatValueSQL = `
INSERT INTO float_values (dataset_id,
                          field,
                          idx,
                          value)
VALUES (?, ?, ?, ?)`

	selectFloatValuesSQL = `
SELECT
    idx,
    value
FROM float_values
WHERE
    dataset_id = ? AND field = ?
ORDER BY idx`

	insertTextValueSQL = `
INSERT INTO text_values (dataset_id,
                         field,
                         idx,
                         value)
VALUES (?, ?, ?, ?)`

	selectTextValuesSQL = `
SELECT
    idx,
    value
FROM text_values
WHERE
    dataset_id = ? AND field = ?
ORDER BY idx`
)

//go:embed schema.sql
var initSchemaSQL string
