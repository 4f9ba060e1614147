package backtest

import (
	"math"

	"github.com/rustyeddy/backtester/indicators"
)

// Ratio is a metric that may be unbounded. ±Inf and NaN encode as JSON null.
type Ratio float64

func (r Ratio) IsInf() bool {
	return math.IsInf(float64(r), 0)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	v := float64(r)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return []byte("null"), nil
	}
	return indicators.Some(v).MarshalJSON()
}

// excess subtracts the per-bar risk free rate from each return.
func excess(returns []float64, riskFree float64) []float64 {
	rf := riskFree / indicators.TradingDays
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = r - rf
	}
	return out
}

// SharpeRatio of returns annualized by sqrt(252). Empty or constant
// returns give 0.
func SharpeRatio(returns []float64, riskFree float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	ex := excess(returns, riskFree)
	sd := indicators.StdDev(ex)
	if sd == 0 {
		return 0
	}
	return indicators.Mean(ex) / sd * math.Sqrt(indicators.TradingDays)
}

// SortinoRatio uses the standard deviation of the negative excess returns.
// No downside, or a constant downside, gives +Inf.
func SortinoRatio(returns []float64, riskFree float64) Ratio {
	if len(returns) == 0 {
		return 0
	}
	ex := excess(returns, riskFree)
	var down []float64
	for _, r := range ex {
		if r < 0 {
			down = append(down, r)
		}
	}
	if len(down) == 0 {
		return Ratio(math.Inf(1))
	}
	sd := indicators.StdDev(down)
	if sd == 0 {
		return Ratio(math.Inf(1))
	}
	return Ratio(indicators.Mean(ex) / sd * math.Sqrt(indicators.TradingDays))
}

// ValueAtRisk is the (1-confidence) percentile of returns, 0 when empty.
func ValueAtRisk(returns []float64, confidence float64) float64 {
	v, err := indicators.Percentile(returns, (1-confidence)*100)
	if err != nil {
		return 0
	}
	return v
}

// ExpectedShortfall is the mean of the returns at or below the VaR.
func ExpectedShortfall(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	v := ValueAtRisk(returns, confidence)
	var tail []float64
	for _, r := range returns {
		if r <= v {
			tail = append(tail, r)
		}
	}
	return indicators.Mean(tail)
}

// MaxDrawdown is the largest value of the drawdown series.
func MaxDrawdown(drawdowns []float64) float64 {
	m := 0.0
	for _, d := range drawdowns {
		m = math.Max(m, d)
	}
	return m
}

// ComputeTradeMetrics summarizes closed trades. Largest win and loss are
// the maximum and minimum pnl over all trades.
func ComputeTradeMetrics(trades []Trade) TradeMetrics {
	if len(trades) == 0 {
		return TradeMetrics{}
	}
	var wins, losses int
	var grossWin, grossLoss float64
	largestWin, smallest := math.Inf(-1), math.Inf(1)
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			wins++
			grossWin += t.PnL
		case t.PnL < 0:
			losses++
			grossLoss += t.PnL
		}
		largestWin = math.Max(largestWin, t.PnL)
		smallest = math.Min(smallest, t.PnL)
	}

	m := TradeMetrics{
		WinRate:     float64(wins) / float64(len(trades)),
		LargestWin:  largestWin,
		LargestLoss: smallest,
	}
	if wins > 0 {
		m.AvgWin = grossWin / float64(wins)
	}
	if losses > 0 {
		m.AvgLoss = grossLoss / float64(losses)
	}
	switch {
	case grossLoss < 0:
		m.ProfitFactor = Ratio(grossWin / -grossLoss)
	case grossWin > 0:
		m.ProfitFactor = Ratio(math.Inf(1))
	}
	return m
}
