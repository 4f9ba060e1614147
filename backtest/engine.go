// Package backtest replays a price series bar by bar, opening positions on
// analysis signals approved by a risk controller and closing them on stop
// or target hits against the following bar.
package backtest

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/analysis"
	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
)

var (
	ErrMissingColumn = errors.New("backtest: missing column")
	ErrInvalidConfig = errors.New("backtest: invalid config")
)

type Config struct {
	InitialCapital float64
	StopLossPct    float64 // fraction of entry, 0.02
	TakeProfitPct  float64 // fraction of entry, 0.03
	MaxPositions   int
	MinConfidence  float64

	// RiskPerTrade is the fraction of balance risked per trade. When > 0 it
	// replaces the policy's PositionSizingPct.
	RiskPerTrade float64

	RiskFreeRate  float64 // annual
	VaRConfidence float64

	// ResetDailyLosses clears the controller's daily losses whenever the
	// UTC calendar day changes between bars.
	ResetDailyLosses bool

	// ProgressEvery logs progress every n bars; 0 disables it.
	ProgressEvery int

	// Seed drives trade ID generation.
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		InitialCapital: 500,
		RiskPerTrade:   0.01,
		StopLossPct:    0.02,
		TakeProfitPct:  0.03,
		MaxPositions:   5,
		MinConfidence:  0.7,
		RiskFreeRate:   0.02,
		VaRConfidence:  0.95,
		ProgressEvery:  100,
	}
}

func (c Config) Validate() error {
	switch {
	case c.InitialCapital <= 0:
		return fmt.Errorf("%w: initial capital must be > 0", ErrInvalidConfig)
	case c.RiskPerTrade < 0 || c.RiskPerTrade > 1:
		return fmt.Errorf("%w: risk per trade must be in [0,1]", ErrInvalidConfig)
	case c.StopLossPct <= 0 || c.StopLossPct >= 1:
		return fmt.Errorf("%w: stop loss pct must be in (0,1)", ErrInvalidConfig)
	case c.TakeProfitPct <= 0 || c.TakeProfitPct >= 1:
		return fmt.Errorf("%w: take profit pct must be in (0,1)", ErrInvalidConfig)
	case c.MaxPositions < 0:
		return fmt.Errorf("%w: max positions must be >= 0", ErrInvalidConfig)
	case c.VaRConfidence <= 0 || c.VaRConfidence >= 1:
		return fmt.Errorf("%w: VaR confidence must be in (0,1)", ErrInvalidConfig)
	}
	return nil
}

// SignalSource produces a signal from the bars visible so far.
type SignalSource interface {
	Analyze(s market.Series) analysis.Signal
}

type State int

const (
	Initialized State = iota
	Running
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Engine runs backtests. Each Run starts from fresh state; an Engine must
// not be shared between goroutines.
type Engine struct {
	cfg     Config
	policy  risk.Policy
	signals SignalSource
	log     *zap.Logger
	obs     Observer

	state State
	bar   int

	ctrl      *risk.Controller
	ids       *id.Generator
	open      []Position
	trades    []Trade
	equity    []float64
	drawdowns []float64
	rejected  int
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.obs = o
		}
	}
}

func New(cfg Config, policy risk.Policy, signals SignalSource, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		policy:  policy,
		signals: signals,
		log:     zap.NewNop(),
		obs:     NopObserver{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) State() State {
	return e.state
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) reset() {
	e.state = Initialized
	e.bar = 0
	policy := e.policy
	if e.cfg.RiskPerTrade > 0 {
		policy.PositionSizingPct = e.cfg.RiskPerTrade * 100
	}
	e.ctrl = risk.New(policy, e.cfg.InitialCapital, risk.WithLogger(e.log))
	e.ids = id.NewGenerator(e.cfg.Seed)
	e.open = nil
	e.trades = []Trade{}
	e.equity = []float64{e.cfg.InitialCapital}
	e.drawdowns = []float64{}
	e.rejected = 0
}

// Run simulates s and returns the report. A failure inside the loop leaves
// the engine Failed and returns an error instead of a partial report.
func (e *Engine) Run(s market.Series) (rep *Report, err error) {
	e.reset()
	if err := e.cfg.Validate(); err != nil {
		e.state = Failed
		return nil, err
	}
	if e.signals == nil {
		e.state = Failed
		return nil, errors.New("backtest: nil signal source")
	}
	n := s.Len()
	if n >= 2 && !s.Has(market.ColHigh|market.ColLow) {
		e.state = Failed
		return nil, fmt.Errorf("%w: exits need high and low", ErrMissingColumn)
	}

	e.state = Running
	e.log.Info("backtest started",
		zap.String("source", s.Source),
		zap.Int("bars", n),
		zap.Float64("initial_capital", e.cfg.InitialCapital))

	defer func() {
		if r := recover(); r != nil {
			e.state = Failed
			e.log.Error("backtest failed", zap.Int("bar", e.bar), zap.Any("panic", r))
			rep, err = nil, fmt.Errorf("backtest: failed at bar %d: %v", e.bar, r)
		}
	}()

	for i := 0; i < n-1; i++ {
		e.bar = i
		e.step(s, i)
	}

	var start, end time.Time
	if n > 0 {
		start, end = s.Candles[0].Time, s.Candles[n-1].Time
	}
	rep = buildReport(e.cfg, n, start, end, e.ctrl.Balance(), e.rejected,
		e.trades, append([]Position{}, e.open...), e.equity, e.drawdowns)

	e.state = Complete
	e.log.Info("backtest complete",
		zap.Int("trades", rep.Overview.TotalTrades),
		zap.Int("open_positions", rep.Overview.OpenPositions),
		zap.Float64("final_capital", rep.Overview.FinalCapital),
		zap.Float64("total_return_pct", rep.Overview.TotalReturnPct))
	return rep, nil
}

// step processes bar i: exits against bar i+1 first, then a signal on
// bars [0..i] which, if approved, opens at the close of bar i+1.
func (e *Engine) step(s market.Series, i int) {
	cur, next := s.Candles[i], s.Candles[i+1]

	if e.cfg.ResetDailyLosses && !sameDay(cur.Time, next.Time) {
		e.ctrl.ResetDaily()
	}

	e.processExits(i+1, next)

	sig := e.signals.Analyze(s.Window(i + 1))
	e.obs.OnSignal(i, sig)
	if sig.Kind == analysis.Error {
		e.log.Warn("signal error", zap.Int("bar", i), zap.String("reason", sig.Reason))
	}

	if e.shouldTrade(sig) {
		e.openPosition(i+1, next, sig)
	}

	e.mark(i + 1)

	if e.cfg.ProgressEvery > 0 && i%e.cfg.ProgressEvery == 0 {
		e.log.Info("backtest progress",
			zap.Float64("pct", float64(i)/float64(s.Len())*100),
			zap.Float64("capital", e.ctrl.Balance()),
			zap.Int("open", len(e.open)))
	}
}

func (e *Engine) shouldTrade(sig analysis.Signal) bool {
	if len(e.open) >= e.cfg.MaxPositions {
		e.log.Debug("max positions reached", zap.Int("max", e.cfg.MaxPositions))
		return false
	}
	return sig.Kind.Actionable() && sig.Confidence > e.cfg.MinConfidence
}

func (e *Engine) openPosition(idx int, c market.Candle, sig analysis.Signal) {
	side := sideFor(sig.Kind)
	entry := c.Close
	stop, take := bracket(side, entry, e.cfg.StopLossPct, e.cfg.TakeProfitPct)
	balance := e.ctrl.Balance()

	d := e.ctrl.Validate(risk.Params{Balance: balance, Entry: entry, Stop: stop, TakeProfit: take})
	if !d.IsValid {
		e.rejected++
		e.log.Debug("trade rejected", zap.Int("bar", idx), zap.String("reason", d.Reason))
		e.obs.OnReject(idx, d.Reason)
		return
	}

	p := Position{
		ID:           e.ids.Next(c.Time),
		Side:         side,
		EntryPrice:   entry,
		Size:         d.SuggestedSize,
		StopLoss:     stop,
		TakeProfit:   take,
		EntryTime:    c.Time,
		EntryIndex:   idx,
		EntryCapital: balance,
		Metadata:     metaFrom(sig),
	}
	e.open = append(e.open, p)

	e.log.Debug("position opened",
		zap.String("id", p.ID),
		zap.Stringer("side", p.Side),
		zap.Float64("entry", p.EntryPrice),
		zap.Float64("size", p.Size),
		zap.Float64("stop", p.StopLoss),
		zap.Float64("take", p.TakeProfit),
		zap.Float64("rr", d.PlannedRR))
	e.obs.OnOpen(p)
}

func (e *Engine) processExits(idx int, c market.Candle) {
	kept := e.open[:0]
	for _, p := range e.open {
		if px, reason, hit := checkExit(p, c); hit {
			e.closePosition(p, idx, c.Time, px, reason)
			continue
		}
		kept = append(kept, p)
	}
	e.open = kept
}

func (e *Engine) closePosition(p Position, idx int, t time.Time, exit float64, reason ExitReason) {
	realized := pnl(p.Side, p.EntryPrice, exit, p.Size)
	e.ctrl.RecordTradeResult(realized)

	tr := Trade{
		ID:         p.ID,
		Side:       p.Side,
		EntryPrice: p.EntryPrice,
		ExitPrice:  exit,
		Size:       p.Size,
		PnL:        realized,
		ReturnPct:  realized / p.EntryCapital * 100,
		EntryTime:  p.EntryTime,
		ExitTime:   t,
		EntryIndex: p.EntryIndex,
		ExitIndex:  idx,
		ExitReason: reason,
		Metadata:   p.Metadata,
	}
	e.trades = append(e.trades, tr)

	e.log.Debug("position closed",
		zap.String("id", tr.ID),
		zap.Stringer("side", tr.Side),
		zap.Float64("pnl", tr.PnL),
		zap.String("reason", string(reason)))
	e.obs.OnClose(tr)
}

func (e *Engine) mark(idx int) {
	l := e.ctrl.Ledger()
	dd := l.Drawdown()
	e.equity = append(e.equity, l.CurrentBalance)
	e.drawdowns = append(e.drawdowns, dd)
	e.obs.OnBar(idx, l.CurrentBalance, dd)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
