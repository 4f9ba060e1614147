package indicators

import (
	"fmt"
)

// RSI calculates the Relative Strength Index from the mean gain and mean
// loss of the last period price changes. When fewer changes exist the
// available ones are used. RSI is 100 when the window holds no losses.
func RSI(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("%w, got %d", ErrInvalidPeriod, period)
	}
	if len(prices) < 2 {
		return 0, fmt.Errorf("%w: RSI needs at least 2 prices, got %d", ErrInsufficientData, len(prices))
	}

	start := len(prices) - period
	if start < 1 {
		start = 1
	}

	var gains, losses float64
	n := 0
	for i := start; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
		n++
	}

	avgGain := gains / float64(n)
	avgLoss := losses / float64(n)
	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), nil
}

// ROC is the percentage rate of change between the last price and the price
// lookback bars earlier.
func ROC(prices []float64, lookback int) (float64, error) {
	if lookback <= 0 {
		return 0, fmt.Errorf("%w, got %d", ErrInvalidPeriod, lookback)
	}
	if len(prices) <= lookback {
		return 0, fmt.Errorf("%w: ROC(%d) needs %d prices, got %d", ErrInsufficientData, lookback, lookback+1, len(prices))
	}
	base := prices[len(prices)-1-lookback]
	if base == 0 {
		return 0, ErrUndefined
	}
	return (prices[len(prices)-1]/base - 1) * 100, nil
}
