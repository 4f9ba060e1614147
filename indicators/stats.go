package indicators

import (
	"fmt"
	"math"
	"slices"
)

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev is the population standard deviation; 0 for an empty slice.
func StdDev(values []float64) float64 {
	if len(values) == 0 || constant(values) {
		return 0
	}
	avg := Mean(values)
	variance := 0.0
	for _, v := range values {
		d := v - avg
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// Percentile returns the p-th percentile (0..100) of values using linear
// interpolation between closest ranks. values need not be sorted.
func Percentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrInsufficientData
	}
	if p < 0 || p > 100 {
		return 0, fmt.Errorf("percentile %.2f out of range", p)
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1], nil
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), nil
}

// constant reports whether every value equals the first. The mean of equal
// values can differ from them by rounding, so StdDev checks this first.
func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
