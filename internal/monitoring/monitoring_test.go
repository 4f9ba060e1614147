package monitoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rustyeddy/backtester/analysis"
	"github.com/rustyeddy/backtester/backtest"
)

var (
	_ backtest.Observer = (*LogObserver)(nil)
	_ backtest.Observer = (*Metrics)(nil)
)

func feed(o backtest.Observer) {
	o.OnSignal(20, analysis.Signal{Kind: analysis.Buy, Confidence: 0.9})
	o.OnSignal(21, analysis.Signal{Kind: analysis.Neutral})
	o.OnOpen(backtest.Position{ID: "T1", Side: backtest.Long, EntryIndex: 21, EntryPrice: 100, Size: 0.3})
	o.OnReject(22, "Daily loss limit reached")
	o.OnClose(backtest.Trade{ID: "T1", Side: backtest.Long, ExitIndex: 23, PnL: 0.9, ExitReason: backtest.TakeProfit})
	o.OnBar(23, 500.9, 0)
}

func TestLogObserver(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	feed(NewLogObserver(zap.New(core)))

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "signal", entries[0].Message)
	assert.Equal(t, "position opened", entries[1].Message)
	assert.Equal(t, "signal rejected", entries[2].Message)
	assert.Equal(t, "position closed", entries[3].Message)
	assert.Equal(t, "Take Profit", entries[3].ContextMap()["reason"])
}

func TestLogObserverInfoLevel(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	feed(NewLogObserver(zap.New(core)))
	assert.Equal(t, 2, logs.Len())
}

func TestMetricsTextfile(t *testing.T) {
	t.Parallel()

	m := NewMetrics("SPY")
	feed(m)

	path := filepath.Join(t.TempDir(), "backtester.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, `backtester_signals_total{instrument="SPY",kind="BUY"} 1`)
	assert.Contains(t, out, `backtester_signals_total{instrument="SPY",kind="NEUTRAL"} 1`)
	assert.Contains(t, out, `backtester_positions_opened_total{instrument="SPY",side="LONG"} 1`)
	assert.Contains(t, out, `backtester_trades_closed_total{instrument="SPY",reason="Take Profit"} 1`)
	assert.Contains(t, out, `backtester_signals_rejected_total{instrument="SPY",reason="Daily loss limit reached"} 1`)
	assert.Contains(t, out, `backtester_bars_processed_total{instrument="SPY"} 1`)
	assert.Contains(t, out, `backtester_equity{instrument="SPY"} 500.9`)
	assert.Contains(t, out, `backtester_trade_pnl_count{instrument="SPY"} 1`)
}

func TestMetricsGather(t *testing.T) {
	t.Parallel()

	m := NewMetrics("QQQ")
	m.OnBar(0, 500, 0.01)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	found := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			if g := metric.GetGauge(); g != nil {
				found[f.GetName()] = g.GetValue()
			}
		}
	}
	assert.Equal(t, 500.0, found["backtester_equity"])
	assert.Equal(t, 0.01, found["backtester_drawdown"])
}
