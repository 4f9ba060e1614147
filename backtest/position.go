package backtest

import (
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/analysis"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// Side: +1 long, -1 short
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func sideFor(k analysis.Kind) Side {
	if k == analysis.Sell {
		return Short
	}
	return Long
}

func (s Side) String() string {
	switch s {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	}
	return fmt.Sprintf("Side(%d)", int8(s))
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "LONG":
		*s = Long
	case "SHORT":
		*s = Short
	default:
		return fmt.Errorf("backtest: unknown side %q", b)
	}
	return nil
}

// ExitReason names what closed a trade.
type ExitReason string

const (
	StopLoss   ExitReason = "Stop Loss"
	TakeProfit ExitReason = "Take Profit"
)

// SignalMeta is the part of the originating signal kept with a position.
type SignalMeta struct {
	Kind       analysis.Kind      `json:"kind"`
	Confidence float64            `json:"confidence"`
	Trend      analysis.Direction `json:"trend"`
	RSI        indicators.Value   `json:"rsi"`
	Volume     indicators.Value   `json:"volume_ratio"`
}

func metaFrom(sig analysis.Signal) SignalMeta {
	return SignalMeta{
		Kind:       sig.Kind,
		Confidence: sig.Confidence,
		Trend:      sig.Components.Trend.Direction,
		RSI:        sig.Components.Momentum.RSI,
		Volume:     sig.Components.Volume.Ratio,
	}
}

// Position is an open trade. Size is positive; for Long
// StopLoss < EntryPrice < TakeProfit, for Short the order inverts.
type Position struct {
	ID           string     `json:"id"`
	Side         Side       `json:"side"`
	EntryPrice   float64    `json:"entry_price"`
	Size         float64    `json:"size"`
	StopLoss     float64    `json:"stop_loss"`
	TakeProfit   float64    `json:"take_profit"`
	EntryTime    time.Time  `json:"entry_time"`
	EntryIndex   int        `json:"entry_index"`
	EntryCapital float64    `json:"entry_capital"`
	Metadata     SignalMeta `json:"metadata"`
}

// Trade is a closed position. It is never modified once recorded.
type Trade struct {
	ID         string     `json:"id"`
	Side       Side       `json:"side"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Size       float64    `json:"size"`
	PnL        float64    `json:"pnl"`
	ReturnPct  float64    `json:"return_pct"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitTime   time.Time  `json:"exit_time"`
	EntryIndex int        `json:"entry_index"`
	ExitIndex  int        `json:"exit_index"`
	ExitReason ExitReason `json:"exit_reason"`
	Metadata   SignalMeta `json:"metadata"`
}

// bracket returns the stop and target for an entry.
func bracket(side Side, entry, stopPct, takePct float64) (stop, take float64) {
	f := float64(side)
	return entry * (1 - f*stopPct), entry * (1 + f*takePct)
}

// pnl: Long (exit-entry)*size, Short (entry-exit)*size
func pnl(side Side, entry, exit, size float64) float64 {
	return float64(side) * (exit - entry) * size
}

// checkExit models stop/take hits within a bar. If both are hit in the
// same bar the stop wins.
func checkExit(p Position, c market.Candle) (exitPx float64, reason ExitReason, hit bool) {
	switch p.Side {
	case Long:
		if c.Low <= p.StopLoss {
			return p.StopLoss, StopLoss, true
		}
		if c.High >= p.TakeProfit {
			return p.TakeProfit, TakeProfit, true
		}
	case Short:
		if c.High >= p.StopLoss {
			return p.StopLoss, StopLoss, true
		}
		if c.Low <= p.TakeProfit {
			return p.TakeProfit, TakeProfit, true
		}
	}
	return 0, "", false
}
