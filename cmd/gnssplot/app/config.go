package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/gnss-reporting/internal/dataset"
	"github.com/roman-kulish/gnss-reporting/internal/observability"
)

const (
	PlotDOP                    PlotName = "dop"
	PlotEpochByEpochDifference PlotName = "epoch_by_epoch_difference"
	PlotField                  PlotName = "field"
	PlotLinearCombinations     PlotName = "linear_combinations"
	PlotNumberOfSatellites     PlotName = "number_of_satellites"
	PlotNumberOfSatellitesUsed PlotName = "number_of_satellites_used"
	PlotObstypeAvailability    PlotName = "obstype_availability"
	PlotSatelliteAvailability  PlotName = "satellite_availability"
	PlotSkyplot                PlotName = "skyplot"
	PlotSatelliteElevation     PlotName = "satellite_elevation"
	PlotSatelliteOverview      PlotName = "satellite_overview"

	defaultFigureDirectory = "figures"
)

// defaultPlots run when the configuration lists none. PlotField needs a field name.
var defaultPlots = []PlotName{
	PlotDOP,
	PlotNumberOfSatellites,
	PlotNumberOfSatellitesUsed,
	PlotSatelliteAvailability,
	PlotObstypeAvailability,
	PlotSkyplot,
	PlotSatelliteElevation,
	PlotEpochByEpochDifference,
	PlotLinearCombinations,
	PlotSatelliteOverview,
}

// PlotName names a plot method.
type PlotName string

func (n *PlotName) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	name := PlotName(strings.ToLower(strings.TrimPrefix(s, "plot_")))
	if _, ok := plotFuncs[name]; !ok {
		return fmt.Errorf("line %d: unknown plot %q", value.Line, s)
	}
	*n = name
	return nil
}

// Config represents the main application configuration
type Config struct {
	Settings Settings                    `yaml:"settings"`
	Dataset  DatasetConfig               `yaml:"dataset"`
	Figures  FiguresConfig               `yaml:"figures"`
	Plots    []PlotConfig                `yaml:"plots"`
	Metrics  MetricsConfig               `yaml:"metrics"`
	Tracing  observability.TracingConfig `yaml:"tracing"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel slog.Level `yaml:"logLevel"`
}

// DatasetConfig selects the dataset to plot
type DatasetConfig struct {
	Path    string   `yaml:"path"`
	ID      int64    `yaml:"id"` // latest when 0
	Systems []string `yaml:"systems"`

	// Start and End restrict the observations to a GPS time range, both inclusive.
	Start *time.Time `yaml:"start"`
	End   *time.Time `yaml:"end"`

	// StagePath is the file template of the stage datasets, e.g. "data/{station}/{stage}.sqlite".
	// Vars fill its placeholders together with the dataset variables.
	StagePath string            `yaml:"stagePath"`
	Vars      map[string]string `yaml:"vars"`
}

// FiguresConfig represents figure output settings
type FiguresConfig struct {
	Directory string            `yaml:"directory"`
	Format    string            `yaml:"format"`
	TimeScale dataset.TimeScale `yaml:"timeScale"` // gps or utc
}

// PlotConfig represents one plot to produce
type PlotConfig struct {
	Name       PlotName `yaml:"name"`
	Field      string   `yaml:"field"`
	Collection string   `yaml:"collection"`
	FigureName string   `yaml:"figureName"`
}

// MetricsConfig represents metrics export settings
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// LoadConfig reads and validates the YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Config{
		Settings: Settings{LogLevel: slog.LevelInfo},
		Figures:  FiguresConfig{Directory: defaultFigureDirectory, Format: "png", TimeScale: dataset.TimeScaleGPS},
	}
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if len(config.Plots) == 0 {
		for _, name := range defaultPlots {
			config.Plots = append(config.Plots, PlotConfig{Name: name})
		}
	}

	if err = config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.Dataset.Path == "" {
		return errors.New("dataset path is required")
	}
	if c.Dataset.ID < 0 {
		return fmt.Errorf("invalid dataset id: %d", c.Dataset.ID)
	}
	if c.Dataset.Start != nil && c.Dataset.End != nil && c.Dataset.End.Before(*c.Dataset.Start) {
		return fmt.Errorf("dataset end %s is before start %s", c.Dataset.End, c.Dataset.Start)
	}
	switch c.Figures.TimeScale {
	case dataset.TimeScaleGPS, dataset.TimeScaleUTC:
	default:
		return fmt.Errorf("invalid time scale: %s", c.Figures.TimeScale)
	}
	switch strings.ToLower(c.Figures.Format) {
	case "png", "jpg", "jpeg":
	default:
		return fmt.Errorf("invalid figure format: %s", c.Figures.Format)
	}
	for i, plot := range c.Plots {
		if plot.Name == PlotField && plot.Field == "" {
			return fmt.Errorf("plot %d: field is required for %s", i, PlotField)
		}
	}
	return nil
}
