// Package stats holds the numeric helpers behind the dashboard summaries.
package stats

import "slices"

// Median returns the median of values. The second result is false for an
// empty input. values is never modified.
func Median(values []float64) (float64, bool) {
	n := len(values)
	if n == 0 {
		return 0, false
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}

// MedianPtr is Median with a nil result for empty input.
func MedianPtr(values []float64) *float64 {
	m, ok := Median(values)
	if !ok {
		return nil
	}
	return &m
}
