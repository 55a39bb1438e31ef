package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the Prometheus metrics of a reporting run. It implements gnssplot.Metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Figures        *prometheus.CounterVec
	FiguresSkipped *prometheus.CounterVec
	PlotDurations  *prometheus.HistogramVec
	GRCRows        *prometheus.CounterVec
}

// NewCollector registers the metrics against the provided registerer, defaulting to the
// global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	figures, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gnss_figures_total",
		Help: "Number of figures written, labeled by plot method.",
	}, []string{"method"}), "gnss_figures_total")
	if err != nil {
		return nil, err
	}

	skipped, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gnss_figures_skipped_total",
		Help: "Number of figures not written, labeled by plot method and reason.",
	}, []string{"method", "reason"}), "gnss_figures_skipped_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gnss_plot_duration_seconds",
		Help:    "Duration of a plot method call in seconds.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method"}), "gnss_plot_duration_seconds")
	if err != nil {
		return nil, err
	}

	rows, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gnss_grc_rows_total",
		Help: "Number of GRC report rows written, labeled by constellation and KPI.",
	}, []string{"constellation", "kpi"}), "gnss_grc_rows_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		Figures:        figures,
		FiguresSkipped: skipped,
		PlotDurations:  durations,
		GRCRows:        rows,
	}, nil
}

func (c *Collector) FigureRendered(method string) {
	c.Figures.WithLabelValues(method).Inc()
}

func (c *Collector) FigureSkipped(method, reason string) {
	c.FiguresSkipped.WithLabelValues(method, reason).Inc()
}

func (c *Collector) ObservePlot(method string, d time.Duration) {
	c.PlotDurations.WithLabelValues(method).Observe(d.Seconds())
}

// RowWritten counts a GRC report row.
func (c *Collector) RowWritten(constellation, kpi string) {
	c.GRCRows.WithLabelValues(constellation, kpi).Inc()
}

// WriteTextfile writes the gathered metrics in the text exposition format, for the node
// exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
