package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rustyeddy/backtester/analysis"
	"github.com/rustyeddy/backtester/backtest"
)

// Metrics counts engine events on its own registry, so several runs in one
// process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	signals  *prometheus.CounterVec
	opened   *prometheus.CounterVec
	closed   *prometheus.CounterVec
	rejected *prometheus.CounterVec
	pnl      prometheus.Histogram
	bars     prometheus.Counter
	equity   prometheus.Gauge
	drawdown prometheus.Gauge
}

func NewMetrics(instrument string) *Metrics {
	labels := prometheus.Labels{"instrument": instrument}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "backtester_signals_total",
			Help:        "Signals produced by the analyzer, by kind",
			ConstLabels: labels,
		}, []string{"kind"}),
		opened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "backtester_positions_opened_total",
			Help:        "Positions opened, by side",
			ConstLabels: labels,
		}, []string{"side"}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "backtester_trades_closed_total",
			Help:        "Positions closed, by exit reason",
			ConstLabels: labels,
		}, []string{"reason"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "backtester_signals_rejected_total",
			Help:        "Signals rejected by the risk controller, by reason",
			ConstLabels: labels,
		}, []string{"reason"}),
		pnl: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "backtester_trade_pnl",
			Help:        "Realized profit or loss per closed trade",
			ConstLabels: labels,
			Buckets:     []float64{-100, -10, -1, -0.1, 0, 0.1, 1, 10, 100},
		}),
		bars: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "backtester_bars_processed_total",
			Help:        "Bars stepped through by the engine",
			ConstLabels: labels,
		}),
		equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "backtester_equity",
			Help:        "Current balance",
			ConstLabels: labels,
		}),
		drawdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "backtester_drawdown",
			Help:        "Current drawdown from peak balance, as a fraction",
			ConstLabels: labels,
		}),
	}

	m.registry.MustRegister(m.signals, m.opened, m.closed, m.rejected, m.pnl, m.bars, m.equity, m.drawdown)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) OnSignal(_ int, sig analysis.Signal) {
	m.signals.WithLabelValues(string(sig.Kind)).Inc()
}

func (m *Metrics) OnOpen(p backtest.Position) {
	m.opened.WithLabelValues(p.Side.String()).Inc()
}

func (m *Metrics) OnClose(t backtest.Trade) {
	m.closed.WithLabelValues(string(t.ExitReason)).Inc()
	m.pnl.Observe(t.PnL)
}

func (m *Metrics) OnReject(_ int, reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) OnBar(_ int, equity, drawdown float64) {
	m.bars.Inc()
	m.equity.Set(equity)
	m.drawdown.Set(drawdown)
}

// WriteTextfile writes the metrics in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
