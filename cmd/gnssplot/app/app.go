package app

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roman-kulish/gnss-reporting/internal/dataset"
	"github.com/roman-kulish/gnss-reporting/internal/gnssplot"
	"github.com/roman-kulish/gnss-reporting/internal/observability"
	"github.com/roman-kulish/gnss-reporting/internal/render"
	"github.com/roman-kulish/gnss-reporting/internal/storage"
)

type plotFunc func(ctx context.Context, p *gnssplot.Plotter, plot PlotConfig, opts []gnssplot.PlotOption) ([]string, error)

func single(path string, err error) ([]string, error) {
	if err != nil || path == "" {
		return nil, err
	}
	return []string{path}, nil
}

var plotFuncs = map[PlotName]plotFunc{
	PlotDOP: func(ctx context.Context, p *gnssplot.Plotter, _ PlotConfig, opts []gnssplot.PlotOption) ([]string, error) {
		return single(p.PlotDOP(ctx, opts...))
	},
	PlotEpochByEpochDifference: func(ctx context.Context, p *gnssplot.Plotter, _ PlotConfig, opts []gnssplot.PlotOption) ([]string, error) {
		return p.PlotEpochByEpochDifference(ctx, opts...)
	},
	PlotField: func(ctx context.Context, p *gnssplot.Plotter, plot PlotConfig, opts []gnssplot.PlotOption) ([]string, error) {
		return p.PlotField(ctx, plot.Field, plot.Collection, opts...)
	},
	PlotLinearCombinations: func(ctx context.Context, p *gnssplot.Plotter, _ PlotConfig, opts []gnssplot.PlotOption) ([]string, error) {
		figures, err := p.PlotLinearCombinations(ctx, opts...)
		if err != nil {
			return nil, err
		}
		paths := make([]string, len(figures))
		for i, f := range figures {
			paths[i] = f.Path
		}
		return paths, nil
	},
	PlotNumberOfSatellites: func(ctx context.Context, p *gnssplot.Plotter, _ PlotConfig, opts []gnssplot.PlotOption) ([]string, error) {
		return single(p.PlotNumberOfSatellites(ctx, opts...))
	},
	PlotNumberOfSatellitesUsed: func(ctx context.Context, p *gnssplot.Plotter, _ PlotConfig, opts []gnssplot.PlotOption) ([]string, error) {
		return single(p.PlotNumberOfSatellitesUsed(ctx, opts...))
	},
	PlotObstypeAvailability: func(ctx context.Context, p *gnssplot.Plotter, _ PlotConfig, opts []gnssplot.PlotOption) ([]string, error) {
		return p.PlotObstypeAvailability(ctx, opts...)
	},
	PlotSatelliteAvailability: func(ctx context.Context, p *gnssplot.Plotter, _ PlotConfig, opts []gnssplot.PlotOption) ([]string, error) {
		return single(p.PlotSatelliteAvailability(ctx, opts...))
	},
	PlotSkyplot: func(ctx context.Context, p *gnssplot.Plotter, _ PlotConfig, opts []gnssplot.PlotOption) ([]string, error) {
		return p.PlotSkyplot(ctx, opts...)
	},
	PlotSatelliteElevation: func(ctx context.Context, p *gnssplot.Plotter, _ PlotConfig, opts []gnssplot.PlotOption) ([]string, error) {
		return p.PlotSatelliteElevation(ctx, opts...)
	},
	PlotSatelliteOverview: func(ctx context.Context, p *gnssplot.Plotter, _ PlotConfig, opts []gnssplot.PlotOption) ([]string, error) {
		return single(p.PlotSatelliteOverview(ctx, opts...))
	},
}

func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	if _, err = os.Stat(config.Dataset.Path); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("dataset file '%s' does not exist: %w", config.Dataset.Path, err)
	}
	if err = os.MkdirAll(config.Figures.Directory, 0o755); err != nil {
		return fmt.Errorf("creating figure directory: %w", err)
	}

	ds, err := loadDataset(ctx, config, logger)
	if err != nil {
		return err
	}

	collector, err := observability.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("creating metrics collector: %w", err)
	}

	tracer, shutdown, err := observability.InitTracing(ctx, config.Tracing, logger)
	if err != nil {
		return fmt.Errorf("initialising tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, logger)

	renderer, err := render.NewDefault(logger)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	opts := []gnssplot.Option{
		gnssplot.WithFigureFormat(config.Figures.Format),
		gnssplot.WithTimeScale(config.Figures.TimeScale),
		gnssplot.WithMetrics(collector),
		gnssplot.WithTracer(tracer),
	}
	if config.Dataset.StagePath != "" {
		vars := make(map[string]string)
		maps.Copy(vars, ds.Vars())
		maps.Copy(vars, config.Dataset.Vars)
		opts = append(opts, gnssplot.WithStages(storage.StagePaths{Template: config.Dataset.StagePath, Vars: vars}))
	}
	plotter := gnssplot.New(ds, config.Figures.Directory, renderer, logger, opts...)

	started := time.Now()
	var figures int
	for _, plot := range config.Plots {
		if err = ctx.Err(); err != nil {
			return err
		}

		var plotOpts []gnssplot.PlotOption
		if plot.FigureName != "" {
			plotOpts = append(plotOpts, gnssplot.WithFigureName(plot.FigureName))
		}

		var paths []string
		if paths, err = plotFuncs[plot.Name](ctx, plotter, plot, plotOpts); err != nil {
			return fmt.Errorf("plot %s: %w", plot.Name, err)
		}
		figures += len(paths)

		logger.Info("plotted", slog.String("plot", string(plot.Name)), slog.Int("figures", len(paths)))
	}

	logger.Info("finished plotting",
		slog.Group("stats",
			slog.Int("plots", len(config.Plots)),
			slog.Int("figures", figures),
			slog.String("directory", config.Figures.Directory),
			slog.String("elapsed", time.Since(started).Round(time.Millisecond).String()),
		))

	if config.Metrics.Textfile != "" {
		if err = collector.WriteTextfile(config.Metrics.Textfile); err != nil {
			return err
		}
	}
	return nil
}

func loadDataset(ctx context.Context, config *Config, logger *slog.Logger) (_ *dataset.Memory, err error) {
	store := storage.NewSqliteStore(config.Dataset.Path)
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var opts []storage.ReaderOption
	if len(config.Dataset.Systems) > 0 {
		opts = append(opts, storage.WithSystems(config.Dataset.Systems...))
	}
	switch start, end := config.Dataset.Start, config.Dataset.End; {
	case start != nil && end != nil:
		opts = append(opts, storage.WithTimeRange(*start, *end))
	case start != nil:
		opts = append(opts, storage.WithStartTime(*start))
	case end != nil:
		opts = append(opts, storage.WithEndTime(*end))
	}

	var ds *dataset.Memory
	if config.Dataset.ID > 0 {
		ds, err = store.Dataset(ctx, config.Dataset.ID, opts...)
	} else {
		ds, err = store.LatestDataset(ctx, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	logger.Info("dataset loaded",
		slog.Group("dataset",
			slog.String("path", config.Dataset.Path),
			slog.String("observations", humanize.Comma(int64(ds.NumObs()))),
			slog.Int("systems", len(ds.Unique(dataset.FieldSystem))),
			slog.Int("satellites", len(ds.Unique(dataset.FieldSatellite))),
		))
	return ds, nil
}
