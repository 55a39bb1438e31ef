package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/roman-kulish/gnss-reporting/internal/dataset"
)

// ErrStageNotFound indicates that the dataset file of a pipeline stage does not exist.
var ErrStageNotFound = errors.New("stage dataset not found")

// StagePaths resolves the dataset files written by the pipeline stages of one analysis run.
//
// Template holds placeholders in braces: {stage} plus any key of Vars, for example
// "data/{station}/{date}/{stage}.sqlite".
type StagePaths struct {
	Template string
	Vars     map[string]string
}

// Path returns the dataset file of the given stage.
func (p StagePaths) Path(stage string) string {
	pairs := []string{"{stage}", stage}
	for k, v := range p.Vars {
		if k == "stage" {
			continue
		}
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(p.Template)
}

// Exists reports whether the dataset file of the given stage exists.
func (p StagePaths) Exists(stage string) bool {
	_, err := os.Stat(p.Path(stage))
	return err == nil
}

// Load reads the latest dataset of a stage keeping only observations of the given systems.
// A nil systems slice keeps all observations.
func (p StagePaths) Load(ctx context.Context, stage string, systems []string) (_ *dataset.Memory, err error) {
	path := p.Path(stage)
	if _, err = os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrStageNotFound)
		}
		return nil, err
	}

	store := NewSqliteStore(path)
	defer closeWithError(store, &err)

	var opts []ReaderOption
	if systems != nil {
		opts = append(opts, WithSystems(systems...))
	}

	ds, err := store.LatestDataset(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading stage %s: %w", stage, err)
	}
	return ds, nil
}
