package journal

import (
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
)

// RunInfo describes a run beyond what its report carries.
type RunInfo struct {
	RunID      string
	Created    time.Time
	Instrument string
	Dataset    string
	Strategy   string
	Config     []byte
}

// FromReport converts a backtest report into journal records. bars is the
// simulated series; it supplies the time of each equity point.
func FromReport(info RunInfo, rep *backtest.Report, bars market.Series) Records {
	ov := rep.Overview
	run := RunRecord{
		RunID:         info.RunID,
		Created:       info.Created,
		Instrument:    info.Instrument,
		Dataset:       info.Dataset,
		Strategy:      info.Strategy,
		Config:        info.Config,
		Start:         ov.Start,
		End:           ov.End,
		Bars:          ov.Bars,
		Trades:        ov.TotalTrades,
		Wins:          ov.WinningTrades,
		Losses:        ov.LosingTrades,
		OpenPositions: ov.OpenPositions,
		Rejected:      ov.Rejected,
		StartBalance:  ov.InitialCapital,
		EndBalance:    ov.FinalCapital,
		NetPL:         ov.FinalCapital - ov.InitialCapital,
		ReturnPct:     ov.TotalReturnPct,
		WinRate:       rep.TradeMetrics.WinRate,
		ProfitFactor:  float64(rep.TradeMetrics.ProfitFactor),
		MaxDDPct:      rep.RiskMetrics.MaxDrawdown * 100,
		Sharpe:        rep.RiskMetrics.SharpeRatio,
		Sortino:       float64(rep.RiskMetrics.SortinoRatio),
		VaR:           rep.RiskMetrics.ValueAtRisk,
		ES:            rep.RiskMetrics.ExpectedShortfall,
	}

	trades := make([]TradeRecord, len(rep.Trades))
	for i, t := range rep.Trades {
		trades[i] = TradeRecord{
			RunID:      info.RunID,
			TradeID:    t.ID,
			Instrument: info.Instrument,
			Side:       t.Side.String(),
			Size:       t.Size,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			OpenTime:   t.EntryTime,
			CloseTime:  t.ExitTime,
			RealizedPL: t.PnL,
			ReturnPct:  t.ReturnPct,
			Reason:     string(t.ExitReason),
			Confidence: t.Metadata.Confidence,
		}
	}

	// equity[0] is the starting capital at bar 0; equity[k] and
	// drawdowns[k-1] belong to bar k.
	equity := make([]EquitySnapshot, len(rep.EquityCurve))
	for k, v := range rep.EquityCurve {
		e := EquitySnapshot{RunID: info.RunID, Bar: k, Equity: v}
		if k < bars.Len() {
			e.Time = bars.Candles[k].Time
		}
		if k > 0 && k-1 < len(rep.Drawdowns) {
			e.Drawdown = rep.Drawdowns[k-1]
		}
		equity[k] = e
	}

	return Records{Run: run, Trades: trades, Equity: equity}
}
