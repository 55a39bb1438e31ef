package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/roman-kulish/gnss-reporting/cmd/gnssplot/app"
)

const (
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &logLevel}))

	var configPath string
	flag.StringVar(&configPath, "c", "", "Path to the plot configuration file (YAML)")
	flag.Parse()

	if configPath == "" {
		flag.Usage()
		logger.Error("configuration file is required")
		os.Exit(exitUsage)
	}

	config, err := app.LoadConfig(configPath)
	if err != nil {
		logger.Error(fmt.Sprintf("invalid configuration: %s", err), slog.String("path", configPath))
		os.Exit(exitUsage)
	}

	logLevel.Set(config.Settings.LogLevel)

	plots := make([]string, len(config.Plots))
	for i, plot := range config.Plots {
		plots[i] = string(plot.Name)
	}
	logger.Info("configuration loaded",
		slog.String("path", configPath),
		slog.String("dataset", config.Dataset.Path),
		slog.Any("plots", plots))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = app.Run(ctx, config, logger); err != nil {
		logger.Error(err.Error())

		code := exitFailure
		if errors.Is(err, context.Canceled) {
			code = exitInterrupted
		}
		cancel()
		os.Exit(code)
	}

	logger.Info("done", slog.Int("plots", len(plots)), slog.String("figures", config.Figures.Directory))
}
