package observability

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("Failed to create collector: %v", err)
	}

	c.FigureRendered("PlotField")
	c.FigureRendered("PlotField")
	c.FigureSkipped("PlotField", "all_nan")
	c.ObservePlot("PlotField", 120*time.Millisecond)
	c.RowWritten("GPS", "hpe")

	if got := testutil.ToFloat64(c.Figures.WithLabelValues("PlotField")); got != 2 {
		t.Errorf("Expected 2 figures, got %v", got)
	}
	if got := testutil.ToFloat64(c.FiguresSkipped.WithLabelValues("PlotField", "all_nan")); got != 1 {
		t.Errorf("Expected 1 skipped figure, got %v", got)
	}
	if got := testutil.ToFloat64(c.GRCRows.WithLabelValues("GPS", "hpe")); got != 1 {
		t.Errorf("Expected 1 row, got %v", got)
	}
	if got := testutil.CollectAndCount(c.PlotDurations, "gnss_plot_duration_seconds"); got != 1 {
		t.Errorf("Expected 1 duration series, got %d", got)
	}

	// registering twice reuses the existing collectors
	again, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("Failed to re-register: %v", err)
	}
	if again.Figures != c.Figures {
		t.Errorf("Expected existing figure counter to be reused")
	}
}

func TestCollector_WriteTextfile(t *testing.T) {
	c, err := NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("Failed to create collector: %v", err)
	}
	c.FigureRendered("PlotDOP")

	path := filepath.Join(t.TempDir(), "gnss.prom")
	if err = c.WriteTextfile(path); err != nil {
		t.Fatalf("Failed to write textfile: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	if !strings.Contains(string(content), `gnss_figures_total{method="PlotDOP"} 1`) {
		t.Errorf("Expected figure counter in textfile, got:\n%s", content)
	}
}

func TestInitTracing_Disabled(t *testing.T) {
	tracer, shutdown, err := InitTracing(context.Background(), TracingConfig{}, testLogger())
	if err != nil {
		t.Fatalf("Failed to init tracing: %v", err)
	}
	_, span := tracer.Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Errorf("Expected noop span")
	}
	span.End()
	ShutdownWithTimeout(context.Background(), shutdown, testLogger())
}

func TestInitTracing_Stdout(t *testing.T) {
	var buf bytes.Buffer
	cfg := TracingConfig{Enabled: true, Exporter: ExporterStdout, Writer: &buf}

	tracer, shutdown, err := InitTracing(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("Failed to init tracing: %v", err)
	}
	_, span := tracer.Start(context.Background(), "gnssplot.PlotDOP")
	span.End()
	ShutdownWithTimeout(context.Background(), shutdown, testLogger())

	if !strings.Contains(buf.String(), "gnssplot.PlotDOP") {
		t.Errorf("Expected exported span, got %q", buf.String())
	}
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	if _, _, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, testLogger()); err == nil {
		t.Errorf("Expected error for unknown exporter")
	}
}
