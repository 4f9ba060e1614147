package backtest

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closed(pnls ...float64) []Trade {
	out := make([]Trade, len(pnls))
	for i, p := range pnls {
		out[i] = Trade{EntryPrice: 100, PnL: p, ReturnPct: p}
	}
	return out
}

func TestComputeTradeMetrics(t *testing.T) {
	t.Parallel()

	m := ComputeTradeMetrics(closed(5, -2))
	assert.Equal(t, 0.5, m.WinRate)
	assert.Equal(t, 5.0, m.AvgWin)
	assert.Equal(t, -2.0, m.AvgLoss)
	assert.Equal(t, 5.0, m.LargestWin)
	assert.Equal(t, -2.0, m.LargestLoss)
	assert.InDelta(t, 2.5, float64(m.ProfitFactor), 1e-12)
}

func TestComputeTradeMetrics_Edges(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TradeMetrics{}, ComputeTradeMetrics(nil))

	// largest win and loss span all trades, whatever their sign
	m := ComputeTradeMetrics(closed(-1, -4))
	assert.Equal(t, 0.0, m.WinRate)
	assert.Equal(t, 0.0, m.AvgWin)
	assert.Equal(t, -2.5, m.AvgLoss)
	assert.Equal(t, -1.0, m.LargestWin)
	assert.Equal(t, -4.0, m.LargestLoss)
	assert.Equal(t, Ratio(0), m.ProfitFactor)

	m = ComputeTradeMetrics(closed(1, 3))
	assert.True(t, m.ProfitFactor.IsInf())
}

func TestSharpeRatio(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, SharpeRatio(nil, 0.02))
	assert.Equal(t, 0.0, SharpeRatio([]float64{1, 1, 1}, 0.02))
	assert.Equal(t, 0.0, SharpeRatio([]float64{0.1, 0.1, 0.1}, 0))
	assert.Equal(t, 0.0, SharpeRatio([]float64{-0.7, -0.7, -0.7, -0.7}, 0.02))

	rf := 0.02 / 252
	want := (1.5 - rf) / 3.5 * math.Sqrt(252)
	assert.InDelta(t, want, SharpeRatio([]float64{5, -2}, 0.02), 1e-9)
}

func TestSortinoRatio(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Ratio(0), SortinoRatio(nil, 0))
	assert.True(t, SortinoRatio([]float64{1, 2}, 0).IsInf())
	// single downside value has zero deviation
	assert.True(t, SortinoRatio([]float64{5, -2}, 0).IsInf())
	assert.True(t, SortinoRatio([]float64{2, -0.1, -0.1, -0.1}, 0.02).IsInf())

	got := SortinoRatio([]float64{1, -1, -3}, 0)
	assert.InDelta(t, -1*math.Sqrt(252), float64(got), 1e-9)
}

func TestValueAtRisk(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, ValueAtRisk(nil, 0.95))
	assert.InDelta(t, -1.65, ValueAtRisk([]float64{5, -2}, 0.95), 1e-9)
	assert.InDelta(t, -2.0, ExpectedShortfall([]float64{5, -2}, 0.95), 1e-9)
	assert.Equal(t, 0.0, ExpectedShortfall(nil, 0.95))

	// 21 returns -10..10: the 5th percentile is -9
	var r []float64
	for i := -10; i <= 10; i++ {
		r = append(r, float64(i))
	}
	assert.InDelta(t, -9.0, ValueAtRisk(r, 0.95), 1e-9)
	assert.InDelta(t, -9.5, ExpectedShortfall(r, 0.95), 1e-9)
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, MaxDrawdown(nil))
	assert.Equal(t, 0.3, MaxDrawdown([]float64{0, 0.1, 0.3, 0.2}))
}

func TestRatioJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal([]Ratio{1.5, Ratio(math.Inf(1)), Ratio(math.Inf(-1)), Ratio(math.NaN())})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5,null,null,null]`, string(b))
}

func TestPnLSign(t *testing.T) {
	t.Parallel()

	assert.Positive(t, pnl(Long, 100, 101, 1))
	assert.Negative(t, pnl(Long, 100, 99, 1))
	assert.Positive(t, pnl(Short, 100, 99, 1))
	assert.Negative(t, pnl(Short, 100, 101, 1))
}

func TestCheckExit(t *testing.T) {
	t.Parallel()

	long := Position{Side: Long, EntryPrice: 100, StopLoss: 98, TakeProfit: 103}
	short := Position{Side: Short, EntryPrice: 100, StopLoss: 102, TakeProfit: 97}

	tests := []struct {
		name   string
		p      Position
		high   float64
		low    float64
		px     float64
		reason ExitReason
		hit    bool
	}{
		{"long none", long, 102, 99, 0, "", false},
		{"long stop", long, 101, 98, 98, StopLoss, true},
		{"long take", long, 103, 99, 103, TakeProfit, true},
		{"long both", long, 104, 97, 98, StopLoss, true},
		{"short none", short, 101, 98, 0, "", false},
		{"short stop", short, 102, 99, 102, StopLoss, true},
		{"short take", short, 101, 97, 97, TakeProfit, true},
		{"short both", short, 103, 96, 102, StopLoss, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			px, reason, hit := checkExit(tt.p, candle(tt.high, tt.low))
			assert.Equal(t, tt.hit, hit)
			assert.Equal(t, tt.reason, reason)
			assert.Equal(t, tt.px, px)
		})
	}
}

func TestSideText(t *testing.T) {
	t.Parallel()

	var s Side
	require.NoError(t, s.UnmarshalText([]byte("SHORT")))
	assert.Equal(t, Short, s)
	assert.Error(t, s.UnmarshalText([]byte("FLAT")))
	assert.Equal(t, "LONG", Long.String())
}
