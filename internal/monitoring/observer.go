// Package monitoring turns backtest engine events into log lines and
// Prometheus metrics.
package monitoring

import (
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/analysis"
	"github.com/rustyeddy/backtester/backtest"
)

// LogObserver logs opens and closes at info level and everything else at
// debug level.
type LogObserver struct {
	log *zap.Logger
}

func NewLogObserver(log *zap.Logger) *LogObserver {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogObserver{log: log}
}

func (o *LogObserver) OnSignal(bar int, sig analysis.Signal) {
	if !sig.Kind.Actionable() {
		return
	}
	o.log.Debug("signal",
		zap.Int("bar", bar),
		zap.String("kind", string(sig.Kind)),
		zap.Float64("confidence", sig.Confidence),
		zap.String("reason", sig.Reason),
	)
}

func (o *LogObserver) OnOpen(p backtest.Position) {
	o.log.Info("position opened",
		zap.String("id", p.ID),
		zap.Stringer("side", p.Side),
		zap.Int("bar", p.EntryIndex),
		zap.Float64("entry", p.EntryPrice),
		zap.Float64("size", p.Size),
		zap.Float64("stop", p.StopLoss),
		zap.Float64("target", p.TakeProfit),
	)
}

func (o *LogObserver) OnClose(t backtest.Trade) {
	o.log.Info("position closed",
		zap.String("id", t.ID),
		zap.Stringer("side", t.Side),
		zap.Int("bar", t.ExitIndex),
		zap.Float64("exit", t.ExitPrice),
		zap.Float64("pnl", t.PnL),
		zap.String("reason", string(t.ExitReason)),
	)
}

func (o *LogObserver) OnReject(bar int, reason string) {
	o.log.Debug("signal rejected", zap.Int("bar", bar), zap.String("reason", reason))
}

func (o *LogObserver) OnBar(int, float64, float64) {}
