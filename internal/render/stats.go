package render

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	StatRMS        Statistic = "rms"
	StatMean       Statistic = "mean"
	StatStd        Statistic = "std"
	StatMin        Statistic = "min"
	StatMax        Statistic = "max"
	StatPercentile Statistic = "percentile"

	// percentile annotated by StatPercentile
	percentileLevel = 0.95
)

// Statistic names a summary statistic annotated on a figure.
type Statistic string

// Statistics holds summary statistics over the finite values of one or more series.
type Statistics struct {
	Count      int
	RMS        float64
	Mean       float64
	Std        float64
	Min        float64
	Max        float64
	Percentile float64 // 95th
}

// ComputeStatistics summarises the finite values. It returns false if there are none.
func ComputeStatistics(values []float64) (Statistics, bool) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return Statistics{}, false
	}

	var sumSq float64
	for _, v := range finite {
		sumSq += v * v
	}

	s := Statistics{
		Count: len(finite),
		RMS:   math.Sqrt(sumSq / float64(len(finite))),
		Mean:  stat.Mean(finite, nil),
		Min:   floats.Min(finite),
		Max:   floats.Max(finite),
	}

	// population standard deviation
	if len(finite) > 1 {
		s.Std = stat.StdDev(finite, nil) * math.Sqrt(float64(len(finite)-1)/float64(len(finite)))
	}

	slices.Sort(finite)
	s.Percentile = stat.Quantile(percentileLevel, stat.Empirical, finite, nil)

	return s, true
}

// Value returns the named statistic.
func (s Statistics) Value(name Statistic) (float64, bool) {
	switch name {
	case StatRMS:
		return s.RMS, true
	case StatMean:
		return s.Mean, true
	case StatStd:
		return s.Std, true
	case StatMin:
		return s.Min, true
	case StatMax:
		return s.Max, true
	case StatPercentile:
		return s.Percentile, true
	default:
		return 0, false
	}
}

// Summary formats the requested statistics, e.g. "rms: 0.1234 m, mean: 0.0012 m".
func (s Statistics) Summary(names []Statistic, unit string) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		v, ok := s.Value(name)
		if !ok {
			continue
		}
		label := string(name)
		if name == StatPercentile {
			label = fmt.Sprintf("%.0f%%", percentileLevel*100)
		}
		if unit != "" {
			parts = append(parts, fmt.Sprintf("%s: %.4f %s", label, v, unit))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %.4f", label, v))
		}
	}
	return strings.Join(parts, ", ")
}

// requestSummary returns the statistics line of a request, or "" if none is requested or
// the series hold no finite values.
func requestSummary(req Request) string {
	if len(req.Statistic) == 0 {
		return ""
	}

	var values []float64
	for _, s := range req.Series {
		values = append(values, s.Y...)
	}

	st, ok := ComputeStatistics(values)
	if !ok {
		return ""
	}
	return st.Summary(req.Statistic, req.YUnit)
}

// titleWithSummary joins the title and the statistics line.
func titleWithSummary(req Request) string {
	summary := requestSummary(req)
	switch {
	case summary == "":
		return req.Title
	case req.Title == "":
		return summary
	default:
		return req.Title + "\n" + summary
	}
}
