package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"
	"github.com/roman-kulish/gnss-reporting/internal/dataset"
)

// Store provides an interface for persisting GNSS analysis datasets, one file per pipeline
// stage. Datasets are written once and read many times; a file may hold several datasets,
// the latest one being the current result of the stage.
type Store interface {
	// SaveDataset writes a dataset with all its fields, metadata and variables in a single
	// atomic transaction.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - ds: Dataset to store
	//
	// Returns:
	//   - datasetID: Unique identifier of the stored dataset
	//   - error: If storage fails or context is cancelled
	SaveDataset(ctx context.Context, ds *dataset.Memory) (datasetID int64, err error)

	// Dataset reads a dataset by its ID, applying the reader options.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - id: Unique dataset identifier
	//   - opts: Optional observation filters
	//
	// Returns:
	//   - ds: The dataset
	//   - error: If the dataset does not exist, retrieval fails or context is cancelled
	Dataset(ctx context.Context, id int64, opts ...ReaderOption) (ds *dataset.Memory, err error)

	// LatestDataset reads the most recently stored dataset.
	//
	// Returns ErrNoData when the file holds no dataset.
	LatestDataset(ctx context.Context, opts ...ReaderOption) (ds *dataset.Memory, err error)

	// Datasets lists the datasets stored in the file, ordered by ID.
	Datasets(ctx context.Context) (datasets []*DatasetInfo, err error)

	// Close releases all database connections and resources.
	// After Close is called, the store instance cannot be reused.
	// It is safe to call Close multiple times.
	Close() error
}
