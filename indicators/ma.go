package indicators

import (
	"fmt"
)

// SMA calculates the Simple Moving Average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("%w, got %d", ErrInvalidPeriod, period)
	}
	if len(values) < period {
		return 0, fmt.Errorf("%w: need %d values, got %d", ErrInsufficientData, period, len(values))
	}
	return Mean(values[len(values)-period:]), nil
}
