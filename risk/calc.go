package risk

import "math"

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// PriceRisk is the loss per unit if the stop is hit.
func PriceRisk(entry, stop float64) float64 {
	return abs(entry - stop)
}

// RR is the reward to risk ratio of a bracket. A zero risk gives 0.
func RR(entry, stop, takeProfit float64) float64 {
	risk := PriceRisk(entry, stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// RiskPct is the planned loss as a fraction of balance.
func RiskPct(plannedRisk, balance float64) float64 {
	if balance <= 0 {
		return math.Inf(1)
	}
	return plannedRisk / balance
}

// Kelly returns the full Kelly fraction (p*b - (1-p)) / b for win rate p
// and win/loss ratio b. A non-positive b gives 0.
func Kelly(p, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return (p*b - (1 - p)) / b
}
