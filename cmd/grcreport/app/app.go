package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roman-kulish/gnss-reporting/internal/antex"
	"github.com/roman-kulish/gnss-reporting/internal/grc"
	"github.com/roman-kulish/gnss-reporting/internal/observability"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	input, err := LoadInput(config.InputFile)
	if err != nil {
		return fmt.Errorf("loading input: %w", err)
	}

	var provider grc.SatelliteInfoProvider
	if input.needsSatelliteInfo() {
		if config.AntexFile == "" {
			return errors.New("per satellite results require an ANTEX file")
		}
		atx, err := antex.Open(config.AntexFile)
		if err != nil {
			return fmt.Errorf("reading ANTEX file: %w", err)
		}
		logger.Info("ANTEX file loaded", slog.String("path", config.AntexFile), slog.Int("satellites", atx.Satellites()))
		provider = atx
	}

	collector, err := observability.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("creating metrics collector: %w", err)
	}

	rows := make([][]string, 0, len(input.Results))
	for i, r := range input.Results {
		if err = ctx.Err(); err != nil {
			return err
		}

		var opts []grc.RowOption
		if r.Station != "" {
			opts = append(opts, grc.WithStation(r.Station))
		}
		if r.Satellite != "" {
			opts = append(opts, grc.WithSatellite(r.Satellite, provider))
		}

		row, err := grc.FormatRow(r.Constellation, r.KPI, r.Mode, r.Date, r.Value, opts...)
		if err != nil {
			return fmt.Errorf("result %d: %w", i, err)
		}
		rows = append(rows, row)
		collector.RowWritten(r.Constellation, r.KPI)

		logger.Debug("row formatted",
			slog.String("constellation", r.Constellation),
			slog.String("kpi", r.KPI),
			slog.String("station", r.Station),
			slog.String("satellite", r.Satellite))
	}

	if err = writeReport(config, rows); err != nil {
		return err
	}

	attrs := []any{
		slog.String("destination", config.OutputFile),
		slog.String("format", string(config.Format)),
		slog.Int("rows", len(rows)),
	}
	if info, err := os.Stat(config.OutputFile); err == nil {
		attrs = append(attrs, slog.String("size", humanize.Bytes(uint64(info.Size()))))
	}
	logger.Info("report written", slog.Group("report", attrs...))

	if config.MetricsFile != "" {
		return collector.WriteTextfile(config.MetricsFile)
	}
	return nil
}

func writeReport(config *Config, rows [][]string) (err error) {
	switch config.Format {
	case FormatXLSX:
		return grc.WriteXLSX(config.OutputFile, rows)

	case FormatCSV:
		var out *os.File
		if out, err = os.Create(config.OutputFile); err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, out.Close())
		}()

		w := grc.NewCSVWriter(out)
		for _, row := range rows {
			if err = w.Write(row); err != nil {
				return err
			}
		}
		return w.Flush()
	}
	return fmt.Errorf("unsupported output format: %s", config.Format)
}
