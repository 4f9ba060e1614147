// Package risk sizes positions and enforces account loss limits.
//
// A Controller owns the single Ledger of a simulated account. Callers read
// balances from it and report every realized trade through
// RecordTradeResult; there is no second copy of the account to reconcile.
// A Controller is not safe for concurrent use.
package risk

import (
	"math"

	"go.uber.org/zap"
)

type Controller struct {
	policy Policy
	ledger Ledger
	log    *zap.Logger
}

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a controller for an account starting at balance.
func New(p Policy, balance float64, opts ...Option) *Controller {
	c := &Controller{policy: p, ledger: NewLedger(balance), log: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) Policy() Policy {
	return c.policy
}

// Ledger returns a copy of the account state.
func (c *Controller) Ledger() Ledger {
	return c.ledger
}

func (c *Controller) Balance() float64 {
	return c.ledger.CurrentBalance
}

// KellyFraction is the half Kelly fraction clamped to [0, 1].
func (c *Controller) KellyFraction() float64 {
	p, b := c.kellyInputs()
	f := Kelly(p, b) / 2
	return math.Max(0, math.Min(f, 1))
}

func (c *Controller) kellyInputs() (float64, float64) {
	l := c.ledger
	if !c.policy.KellyFromHistory || l.Trades() < c.policy.KellyMinTrades || l.Wins == 0 || l.Losses == 0 {
		return c.policy.KellyWinRate, c.policy.KellyWinLossRatio
	}
	p := float64(l.Wins) / float64(l.Trades())
	avgWin := l.GrossProfit / float64(l.Wins)
	avgLoss := l.GrossLoss / float64(l.Losses)
	if avgLoss == 0 {
		return c.policy.KellyWinRate, c.policy.KellyWinLossRatio
	}
	return p, avgWin / avgLoss
}

// PositionSize returns the units to trade so that hitting stop loses
// PositionSizingPct of balance, scaled by the Kelly fraction and capped at
// MaxPositionSize. A zero price risk gives 0.
func (c *Controller) PositionSize(balance, entry, stop float64) float64 {
	priceRisk := PriceRisk(entry, stop)
	if priceRisk == 0 {
		return 0
	}
	riskAmount := balance * c.policy.PositionSizingPct / 100
	size := riskAmount / priceRisk * c.KellyFraction()
	return math.Min(size, c.policy.MaxPositionSize)
}

// Validate decides whether a trade may be opened and how large.
func (c *Controller) Validate(in Params) Decision {
	d := evaluate(c.policy, c.ledger, in, func() float64 {
		return c.PositionSize(in.Balance, in.Entry, in.Stop)
	})
	if !d.IsValid {
		c.log.Debug("trade rejected",
			zap.String("reason", d.Reason),
			zap.Float64("balance", c.ledger.CurrentBalance),
			zap.Float64("daily_losses", c.ledger.DailyLosses),
			zap.Float64("drawdown_pct", c.ledger.DrawdownPct()))
	}
	return d
}

// RecordTradeResult books a realized pnl and returns the new state. Call it
// exactly once per closed trade.
func (c *Controller) RecordTradeResult(pnl float64) Ledger {
	c.ledger = c.ledger.apply(pnl)
	return c.ledger
}

// ResetDaily clears the daily loss accumulator.
func (c *Controller) ResetDaily() {
	c.ledger.DailyLosses = 0
}
