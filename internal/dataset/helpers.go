package dataset

import (
	"math"
	"time"
)

// Select returns the elements of values selected by mask.
func Select[T any](values []T, mask []bool) []T {
	out := make([]T, 0, Count(mask))
	for i, keep := range mask {
		if keep && i < len(values) {
			out = append(out, values[i])
		}
	}
	return out
}

// Count returns the number of true entries in mask.
func Count(mask []bool) int {
	var n int
	for _, keep := range mask {
		if keep {
			n++
		}
	}
	return n
}

// Any reports whether at least one entry of mask is true.
func Any(mask []bool) bool {
	for _, keep := range mask {
		if keep {
			return true
		}
	}
	return false
}

// AllNaN reports whether every value is NaN. An empty slice counts as all-NaN.
func AllNaN(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

// NotNaN returns a mask selecting the values that are not NaN, restricted to the observations
// selected by within.
func NotNaN(values []float64, within []bool) []bool {
	mask := make([]bool, len(values))
	for i, v := range values {
		mask[i] = within[i] && !math.IsNaN(v)
	}
	return mask
}

// MinMaxTime returns the earliest and latest epoch.
func MinMaxTime(epochs []time.Time) (time.Time, time.Time) {
	var first, last time.Time
	for i, t := range epochs {
		if i == 0 || t.Before(first) {
			first = t
		}
		if i == 0 || t.After(last) {
			last = t
		}
	}
	return first, last
}
