// Package journal stores backtest results: one run summary, its closed
// trades and its per-bar equity.
package journal

import (
	"context"
	"fmt"
	"time"
)

// RunRecord summarizes one backtest run.
type RunRecord struct {
	RunID      string
	Created    time.Time
	Instrument string
	Dataset    string
	Strategy   string
	Config     []byte // JSON

	Start time.Time
	End   time.Time
	Bars  int

	Trades        int
	Wins          int
	Losses        int
	OpenPositions int
	Rejected      int

	StartBalance float64
	EndBalance   float64

	NetPL        float64
	ReturnPct    float64
	WinRate      float64
	ProfitFactor float64 // +Inf without losses
	MaxDDPct     float64
	Sharpe       float64
	Sortino      float64 // +Inf without downside
	VaR          float64
	ES           float64
}

type TradeRecord struct {
	RunID      string
	TradeID    string
	Instrument string
	Side       string
	Size       float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	ReturnPct  float64
	Reason     string
	Confidence float64
}

type EquitySnapshot struct {
	RunID    string
	Bar      int
	Time     time.Time
	Equity   float64
	Drawdown float64
}

type Journal interface {
	RecordRun(RunRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Records is everything stored for one run.
type Records struct {
	Run    RunRecord
	Trades []TradeRecord
	Equity []EquitySnapshot
}

type saver interface {
	Save(ctx context.Context, r Records) error
}

// Save writes r to j, in a single transaction when j supports it.
func Save(ctx context.Context, j Journal, r Records) error {
	if s, ok := j.(saver); ok {
		return s.Save(ctx, r)
	}
	if err := j.RecordRun(r.Run); err != nil {
		return fmt.Errorf("record run %s: %w", r.Run.RunID, err)
	}
	for _, t := range r.Trades {
		if err := j.RecordTrade(t); err != nil {
			return fmt.Errorf("record trade %s: %w", t.TradeID, err)
		}
	}
	for _, e := range r.Equity {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.RecordEquity(e); err != nil {
			return fmt.Errorf("record equity bar %d: %w", e.Bar, err)
		}
	}
	return nil
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRun(RunRecord) error         { return nil }
func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }
