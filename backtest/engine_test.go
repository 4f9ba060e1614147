package backtest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/analysis"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// bars builds a series from (close, high, low) triples spaced step apart.
func bars(step time.Duration, hlc ...[3]float64) market.Series {
	candles := make([]market.Candle, len(hlc))
	for i, v := range hlc {
		candles[i] = market.Candle{
			Time:   t0.Add(time.Duration(i) * step),
			Open:   v[0],
			Close:  v[0],
			High:   v[1],
			Low:    v[2],
			Volume: 1000,
		}
	}
	return market.NewSeries(candles)
}

func flat() [3]float64 { return [3]float64{100, 101, 99} }

// scripted returns a fixed signal for chosen last-visible bar indexes.
type scripted map[int]analysis.Signal

func (s scripted) Analyze(w market.Series) analysis.Signal {
	if sig, ok := s[w.Len()-1]; ok {
		return sig
	}
	return analysis.Signal{Kind: analysis.Neutral}
}

type always analysis.Signal

func (a always) Analyze(market.Series) analysis.Signal { return analysis.Signal(a) }

type panicking struct{}

func (panicking) Analyze(market.Series) analysis.Signal { panic("boom") }

type recorder struct {
	NopObserver
	windows []int
	opens   []Position
	closes  []Trade
	rejects []string
	bars    []int
}

func (r *recorder) OnSignal(bar int, _ analysis.Signal) { r.windows = append(r.windows, bar) }
func (r *recorder) OnOpen(p Position)                   { r.opens = append(r.opens, p) }
func (r *recorder) OnClose(t Trade)                     { r.closes = append(r.closes, t) }
func (r *recorder) OnReject(_ int, reason string)       { r.rejects = append(r.rejects, reason) }
func (r *recorder) OnBar(bar int, _, _ float64)         { r.bars = append(r.bars, bar) }

var (
	buy  = analysis.Signal{Kind: analysis.Buy, Confidence: 0.9}
	sell = analysis.Signal{Kind: analysis.Sell, Confidence: 0.9}
)

func TestRun_LongTakeProfit(t *testing.T) {
	t.Parallel()

	s := bars(time.Hour, flat(), flat(), [3]float64{103.5, 104, 99.5})
	e := New(DefaultConfig(), risk.DefaultPolicy(), scripted{0: buy})

	rep, err := e.Run(s)
	require.NoError(t, err)
	assert.Equal(t, Complete, e.State())

	require.Len(t, rep.Trades, 1)
	tr := rep.Trades[0]
	assert.Equal(t, Long, tr.Side)
	assert.Equal(t, 100.0, tr.EntryPrice)
	assert.InDelta(t, 103.0, tr.ExitPrice, 1e-9)
	assert.InDelta(t, 0.3125, tr.Size, 1e-12)
	assert.InDelta(t, 0.9375, tr.PnL, 1e-9)
	assert.InDelta(t, 0.1875, tr.ReturnPct, 1e-9)
	assert.Equal(t, TakeProfit, tr.ExitReason)
	assert.Equal(t, s.Candles[1].Time, tr.EntryTime)
	assert.Equal(t, s.Candles[2].Time, tr.ExitTime)
	assert.Equal(t, 1, tr.EntryIndex)
	assert.Equal(t, 2, tr.ExitIndex)
	assert.Equal(t, analysis.Buy, tr.Metadata.Kind)
	assert.NotEmpty(t, tr.ID)

	assert.InDeltaSlice(t, []float64{500, 500, 500.9375}, rep.EquityCurve, 1e-9)
	assert.Equal(t, []float64{0, 0}, rep.Drawdowns)

	assert.Equal(t, 500.0, rep.Overview.InitialCapital)
	assert.InDelta(t, 500.9375, rep.Overview.FinalCapital, 1e-9)
	assert.InDelta(t, 0.1875, rep.Overview.TotalReturnPct, 1e-9)
	assert.Equal(t, 1, rep.Overview.TotalTrades)
	assert.Equal(t, 1, rep.Overview.WinningTrades)
	assert.Equal(t, 0, rep.Overview.OpenPositions)
	assert.Equal(t, 3, rep.Overview.Bars)
}

func TestRun_RiskPerTradeSizes(t *testing.T) {
	t.Parallel()

	s := bars(time.Hour, flat(), flat(), [3]float64{103.5, 104, 99.5})
	tests := []struct {
		risk float64
		size float64
		pnl  float64
	}{
		{0, 0.3125, 0.9375}, // falls back to the policy's 1%
		{0.01, 0.3125, 0.9375},
		{0.02, 0.625, 1.875},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.RiskPerTrade = tt.risk
		rep, err := New(cfg, risk.DefaultPolicy(), scripted{0: buy}).Run(s)
		require.NoError(t, err)
		require.Len(t, rep.Trades, 1)
		assert.InDelta(t, tt.size, rep.Trades[0].Size, 1e-12, "risk %v", tt.risk)
		assert.InDelta(t, tt.pnl, rep.Trades[0].PnL, 1e-9, "risk %v", tt.risk)
	}

	cfg := DefaultConfig()
	cfg.RiskPerTrade = 1.5
	_, err := New(cfg, risk.DefaultPolicy(), scripted{0: buy}).Run(s)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRun_StopWinsTie(t *testing.T) {
	t.Parallel()

	s := bars(time.Hour, flat(), flat(), [3]float64{100, 104, 97})
	rep, err := New(DefaultConfig(), risk.DefaultPolicy(), scripted{0: buy}).Run(s)
	require.NoError(t, err)

	require.Len(t, rep.Trades, 1)
	tr := rep.Trades[0]
	assert.Equal(t, StopLoss, tr.ExitReason)
	assert.InDelta(t, 98.0, tr.ExitPrice, 1e-9)
	assert.InDelta(t, -0.625, tr.PnL, 1e-9)
	assert.InDelta(t, 499.375, rep.Overview.FinalCapital, 1e-9)
	assert.InDelta(t, 0.625/500, rep.Drawdowns[1], 1e-12)
	assert.InDelta(t, 0.625/500, rep.RiskMetrics.MaxDrawdown, 1e-12)
}

func TestRun_ShortTakeProfit(t *testing.T) {
	t.Parallel()

	s := bars(time.Hour, flat(), flat(), [3]float64{97, 100.5, 96.5})
	rep, err := New(DefaultConfig(), risk.DefaultPolicy(), scripted{0: sell}).Run(s)
	require.NoError(t, err)

	require.Len(t, rep.Trades, 1)
	tr := rep.Trades[0]
	assert.Equal(t, Short, tr.Side)
	assert.Equal(t, TakeProfit, tr.ExitReason)
	assert.InDelta(t, 97.0, tr.ExitPrice, 1e-9)
	assert.InDelta(t, 0.9375, tr.PnL, 1e-9)
}

func TestRun_NoExitOnEntryBar(t *testing.T) {
	t.Parallel()

	// bar 1 spans both stop and target but is the entry bar
	s := bars(time.Hour, flat(), [3]float64{100, 110, 90}, flat())
	rep, err := New(DefaultConfig(), risk.DefaultPolicy(), scripted{0: buy}).Run(s)
	require.NoError(t, err)

	assert.Empty(t, rep.Trades)
	assert.Equal(t, 1, rep.Overview.OpenPositions)
	require.Len(t, rep.Positions, 1)
	assert.InDelta(t, 98.0, rep.Positions[0].StopLoss, 1e-9)
	assert.InDelta(t, 103.0, rep.Positions[0].TakeProfit, 1e-9)
}

func TestRun_MaxPositions(t *testing.T) {
	t.Parallel()

	s := bars(time.Hour, flat(), flat(), flat(), flat(), flat(), flat(), flat(), flat())
	rec := &recorder{}
	rep, err := New(DefaultConfig(), risk.DefaultPolicy(), always(buy), WithObserver(rec)).Run(s)
	require.NoError(t, err)

	assert.Len(t, rec.opens, 5)
	assert.Equal(t, 5, rep.Overview.OpenPositions)
	assert.Equal(t, 0, rep.Overview.TotalTrades)
	assert.Equal(t, 500.0, rep.Overview.FinalCapital)
}

func TestRun_ConfidenceGate(t *testing.T) {
	t.Parallel()

	s := bars(time.Hour, flat(), flat(), flat())
	weak := analysis.Signal{Kind: analysis.Buy, Confidence: 0.7}
	rep, err := New(DefaultConfig(), risk.DefaultPolicy(), always(weak)).Run(s)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Overview.OpenPositions)

	neutral := analysis.Signal{Kind: analysis.Neutral, Confidence: 1}
	rep, err = New(DefaultConfig(), risk.DefaultPolicy(), always(neutral)).Run(s)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Overview.OpenPositions)
}

func TestRun_DailyLossRejects(t *testing.T) {
	t.Parallel()

	policy := risk.DefaultPolicy()
	policy.MaxDailyLossPct = 0.1 // 0.5 on a 500 peak

	s := bars(time.Hour, flat(), flat(), [3]float64{100, 101, 97}, flat())
	rec := &recorder{}
	rep, err := New(DefaultConfig(), policy, always(buy), WithObserver(rec)).Run(s)
	require.NoError(t, err)

	require.Len(t, rep.Trades, 1)
	assert.Equal(t, StopLoss, rep.Trades[0].ExitReason)
	assert.Equal(t, []string{risk.ReasonDailyLoss, risk.ReasonDailyLoss}, rec.rejects)
	assert.Equal(t, 2, rep.Overview.Rejected)
}

func TestRun_ResetDailyLosses(t *testing.T) {
	t.Parallel()

	policy := risk.DefaultPolicy()
	policy.MaxDailyLossPct = 0.1
	cfg := DefaultConfig()
	cfg.ResetDailyLosses = true

	s := bars(24*time.Hour, flat(), flat(), [3]float64{100, 101, 97}, flat())
	rec := &recorder{}
	rep, err := New(cfg, policy, always(buy), WithObserver(rec)).Run(s)
	require.NoError(t, err)

	assert.Equal(t, []string{risk.ReasonDailyLoss}, rec.rejects)
	assert.Equal(t, 1, rep.Overview.OpenPositions)
}

func TestRun_NoLookAhead(t *testing.T) {
	t.Parallel()

	var seen []int
	src := signalFunc(func(w market.Series) analysis.Signal {
		seen = append(seen, w.Len())
		return analysis.Signal{Kind: analysis.Neutral}
	})
	rec := &recorder{}
	s := bars(time.Hour, flat(), flat(), flat(), flat(), flat())
	_, err := New(DefaultConfig(), risk.DefaultPolicy(), src, WithObserver(rec)).Run(s)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, seen)
	assert.Equal(t, []int{0, 1, 2, 3}, rec.windows)
	assert.Equal(t, []int{1, 2, 3, 4}, rec.bars)
}

type signalFunc func(market.Series) analysis.Signal

func (f signalFunc) Analyze(s market.Series) analysis.Signal { return f(s) }

func TestRun_EmptyAndSingle(t *testing.T) {
	t.Parallel()

	for _, s := range []market.Series{
		market.NewSeries(nil),
		bars(time.Hour, flat()),
	} {
		e := New(DefaultConfig(), risk.DefaultPolicy(), always(buy))
		rep, err := e.Run(s)
		require.NoError(t, err)
		assert.Equal(t, Complete, e.State())
		assert.Equal(t, 0, rep.Overview.TotalTrades)
		assert.Equal(t, 500.0, rep.Overview.FinalCapital)
		assert.Equal(t, []float64{500}, rep.EquityCurve)
		assert.Empty(t, rep.Drawdowns)
		assert.Equal(t, 0.0, rep.RiskMetrics.SharpeRatio)
		assert.Equal(t, TradeMetrics{}, rep.TradeMetrics)
	}
}

func TestRun_MissingHighLow(t *testing.T) {
	t.Parallel()

	s := bars(time.Hour, flat(), flat(), flat())
	s.Columns = market.ColClose | market.ColVolume

	e := New(DefaultConfig(), risk.DefaultPolicy(), always(buy))
	rep, err := e.Run(s)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Nil(t, rep)
	assert.Equal(t, Failed, e.State())
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.StopLossPct = 0
	_, err := New(cfg, risk.DefaultPolicy(), always(buy)).Run(bars(time.Hour, flat()))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRun_FailureIsReturned(t *testing.T) {
	t.Parallel()

	e := New(DefaultConfig(), risk.DefaultPolicy(), panicking{})
	rep, err := e.Run(bars(time.Hour, flat(), flat(), flat()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Nil(t, rep)
	assert.Equal(t, Failed, e.State())
}

func zigzag(n int) market.Series {
	candles := make([]market.Candle, n)
	for i := range candles {
		c := 100 + 2*float64(i) - 6*float64(i%2)
		if i >= 40 {
			c = 180 - 3*float64(i-40) + 6*float64(i%2)
		}
		candles[i] = market.Candle{
			Time:   t0.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c + 4,
			Low:    c - 4,
			Close:  c,
			Volume: 1000 + float64(i%3)*500,
		}
	}
	return market.NewSeries(candles)
}

func TestRun_DeterministicReplay(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MinConfidence = 0.02
	s := zigzag(80)
	a := analysis.New(analysis.Config{})

	e := New(cfg, risk.DefaultPolicy(), a)
	first, err := e.Run(s)
	require.NoError(t, err)
	second, err := e.Run(s)
	require.NoError(t, err)
	other, err := New(cfg, risk.DefaultPolicy(), a).Run(s)
	require.NoError(t, err)

	assert.NotZero(t, first.Overview.TotalTrades)
	assert.Equal(t, first, second)
	assert.Equal(t, first, other)
	assert.Len(t, first.EquityCurve, 80)
	assert.Len(t, first.Drawdowns, 79)
}

func TestRun_CapitalMatchesTrades(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MinConfidence = 0.02
	rep, err := New(cfg, risk.DefaultPolicy(), analysis.New(analysis.Config{})).Run(zigzag(80))
	require.NoError(t, err)

	sum := 0.0
	for _, tr := range rep.Trades {
		sum += tr.PnL
		assert.Positive(t, tr.Size)
		assert.True(t, tr.ExitTime.After(tr.EntryTime))
	}
	assert.InDelta(t, cfg.InitialCapital+sum, rep.Overview.FinalCapital, 1e-9)
	assert.InDelta(t, rep.Overview.FinalCapital, rep.EquityCurve[len(rep.EquityCurve)-1], 1e-9)
}

func TestReportJSON(t *testing.T) {
	t.Parallel()

	s := bars(time.Hour, flat(), flat(), [3]float64{103.5, 104, 99.5})
	rep, err := New(DefaultConfig(), risk.DefaultPolicy(), scripted{0: buy}).Run(s)
	require.NoError(t, err)

	b, err := json.Marshal(rep)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &m))
	for _, k := range []string{"overview", "risk_metrics", "trade_metrics", "equity_curve", "drawdowns", "trades"} {
		assert.Contains(t, m, k)
	}

	var rm map[string]any
	require.NoError(t, json.Unmarshal(m["risk_metrics"], &rm))
	// one winning trade: no downside
	assert.Contains(t, rm, "sortino_ratio")
	assert.Nil(t, rm["sortino_ratio"])

	var trades []map[string]any
	require.NoError(t, json.Unmarshal(m["trades"], &trades))
	require.Len(t, trades, 1)
	assert.Equal(t, "LONG", trades[0]["side"])
	assert.Equal(t, "Take Profit", trades[0]["exit_reason"])
}

func TestObservers(t *testing.T) {
	t.Parallel()

	a, b := &recorder{}, &recorder{}
	s := bars(time.Hour, flat(), flat(), [3]float64{103.5, 104, 99.5})
	_, err := New(DefaultConfig(), risk.DefaultPolicy(), scripted{0: buy}, WithObserver(Observers(a, b))).Run(s)
	require.NoError(t, err)

	for _, r := range []*recorder{a, b} {
		assert.Len(t, r.opens, 1)
		assert.Len(t, r.closes, 1)
		assert.Equal(t, r.opens[0].ID, r.closes[0].ID)
	}
}

func candle(high, low float64) market.Candle {
	return market.Candle{High: high, Low: low, Close: (high + low) / 2}
}
