package indicators

import (
	"fmt"
	"math"
)

// ATR calculates the Average True Range as the mean of the last period true
// ranges. highs, lows and closes must have equal length; fewer than
// period+1 bars use every available true range.
func ATR(highs, lows, closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("%w, got %d", ErrInvalidPeriod, period)
	}
	n := len(closes)
	if len(highs) != n || len(lows) != n {
		return 0, fmt.Errorf("ATR: mismatched lengths %d/%d/%d", len(highs), len(lows), n)
	}
	if n < 2 {
		return 0, fmt.Errorf("%w: ATR needs 2 bars, got %d", ErrInsufficientData, n)
	}

	start := n - period
	if start < 1 {
		start = 1
	}
	sum := 0.0
	for i := start; i < n; i++ {
		sum += trueRange(highs[i], lows[i], closes[i-1])
	}
	return sum / float64(n-start), nil
}

// trueRange of a bar given the previous close.
func trueRange(high, low, prevClose float64) float64 {
	highLow := high - low
	highClose := math.Abs(high - prevClose)
	lowClose := math.Abs(low - prevClose)

	return math.Max(highLow, math.Max(highClose, lowClose))
}
