package backtest

import "time"

type Overview struct {
	InitialCapital float64   `json:"initial_capital"`
	FinalCapital   float64   `json:"final_capital"`
	TotalReturnPct float64   `json:"total_return_pct"`
	TotalTrades    int       `json:"total_trades"`
	WinningTrades  int       `json:"winning_trades"`
	LosingTrades   int       `json:"losing_trades"`
	OpenPositions  int       `json:"open_positions"`
	Rejected       int       `json:"rejected_signals"`
	Bars           int       `json:"bars"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
}

type RiskMetrics struct {
	SharpeRatio       float64 `json:"sharpe_ratio"`
	SortinoRatio      Ratio   `json:"sortino_ratio"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	ValueAtRisk       float64 `json:"var"`
	ExpectedShortfall float64 `json:"expected_shortfall"`
}

type TradeMetrics struct {
	WinRate      float64 `json:"win_rate"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	LargestWin   float64 `json:"largest_win"`
	LargestLoss  float64 `json:"largest_loss"`
	ProfitFactor Ratio   `json:"profit_factor"`
}

// Report is the result of one Run. EquityCurve starts with the initial
// capital and gains one value per processed bar; Drawdowns holds one
// fraction per processed bar.
type Report struct {
	Overview     Overview     `json:"overview"`
	RiskMetrics  RiskMetrics  `json:"risk_metrics"`
	TradeMetrics TradeMetrics `json:"trade_metrics"`
	EquityCurve  []float64    `json:"equity_curve"`
	Drawdowns    []float64    `json:"drawdowns"`
	Trades       []Trade      `json:"trades"`
	Positions    []Position   `json:"positions"`
}

// Returns lists the trade return percentages in close order.
func (r *Report) Returns() []float64 {
	out := make([]float64, len(r.Trades))
	for i, t := range r.Trades {
		out[i] = t.ReturnPct
	}
	return out
}

func buildReport(cfg Config, bars int, start, end time.Time, final float64, rejected int,
	trades []Trade, open []Position, equity, drawdowns []float64) *Report {

	r := &Report{
		EquityCurve: equity,
		Drawdowns:   drawdowns,
		Trades:      trades,
		Positions:   open,
	}
	returns := r.Returns()

	r.Overview = Overview{
		InitialCapital: cfg.InitialCapital,
		FinalCapital:   final,
		TotalTrades:    len(trades),
		OpenPositions:  len(open),
		Rejected:       rejected,
		Bars:           bars,
		Start:          start,
		End:            end,
	}
	if cfg.InitialCapital != 0 {
		r.Overview.TotalReturnPct = (final/cfg.InitialCapital - 1) * 100
	}
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			r.Overview.WinningTrades++
		case t.PnL < 0:
			r.Overview.LosingTrades++
		}
	}

	r.RiskMetrics = RiskMetrics{
		SharpeRatio:       SharpeRatio(returns, cfg.RiskFreeRate),
		SortinoRatio:      SortinoRatio(returns, cfg.RiskFreeRate),
		MaxDrawdown:       MaxDrawdown(drawdowns),
		ValueAtRisk:       ValueAtRisk(returns, cfg.VaRConfidence),
		ExpectedShortfall: ExpectedShortfall(returns, cfg.VaRConfidence),
	}
	r.TradeMetrics = ComputeTradeMetrics(trades)
	return r
}
