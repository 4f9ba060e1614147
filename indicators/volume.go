package indicators

import "fmt"

// VolumeRatio compares the last volume with the mean of the last window
// volumes (the current bar included).
func VolumeRatio(volumes []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, fmt.Errorf("%w, got %d", ErrInvalidPeriod, window)
	}
	if len(volumes) == 0 {
		return 0, ErrInsufficientData
	}
	avg := Mean(tail(volumes, window))
	if avg == 0 {
		return 0, fmt.Errorf("%w: zero average volume", ErrUndefined)
	}
	return volumes[len(volumes)-1] / avg, nil
}
