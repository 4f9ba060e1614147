package indicators

import (
	"fmt"
	"math"
)

// TradingDays annualizes per-bar volatility.
const TradingDays = 252

// LogReturns returns ln(p[i]/p[i-1]) for consecutive prices. Non-positive
// prices make the returns undefined.
func LogReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: need 2 prices, got %d", ErrInsufficientData, len(prices))
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i] <= 0 || prices[i-1] <= 0 {
			return nil, fmt.Errorf("%w: non-positive price at %d", ErrUndefined, i)
		}
		out = append(out, math.Log(prices[i]/prices[i-1]))
	}
	return out, nil
}

// AnnualizedVolatility is the standard deviation of returns scaled by
// sqrt(252). It needs at least two returns.
func AnnualizedVolatility(returns []float64) (float64, error) {
	if len(returns) < 2 {
		return 0, fmt.Errorf("%w: need 2 returns, got %d", ErrInsufficientData, len(returns))
	}
	return StdDev(returns) * math.Sqrt(TradingDays), nil
}

// PriceRange is (max-min)/min*100 over the last window prices.
func PriceRange(prices []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, fmt.Errorf("%w, got %d", ErrInvalidPeriod, window)
	}
	if len(prices) == 0 {
		return 0, ErrInsufficientData
	}
	w := tail(prices, window)
	lo, hi := w[0], w[0]
	for _, p := range w[1:] {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	if lo <= 0 {
		return 0, ErrUndefined
	}
	return (hi - lo) / lo * 100, nil
}

// Bands holds Bollinger band levels.
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Bollinger computes bands of k population standard deviations around the
// period SMA.
func Bollinger(prices []float64, period int, k float64) (Bands, error) {
	mid, err := SMA(prices, period)
	if err != nil {
		return Bands{}, err
	}
	sd := StdDev(prices[len(prices)-period:])
	return Bands{Upper: mid + k*sd, Middle: mid, Lower: mid - k*sd}, nil
}
