// Package analysis turns a price series into a trading Signal by combining
// trend, momentum, volatility and volume indicators.
package analysis

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// Config holds the indicator periods. Zero fields take the Default value.
type Config struct {
	MinDataPoints int
	RSIPeriod     int
	ShortMAPeriod int
	LongMAPeriod  int

	// ROCWindow is the number of bars, current included, spanned by the
	// rate of change.
	ROCWindow        int
	VolatilityWindow int
	VolumeWindow     int
	ATRPeriod        int
	BollingerPeriod  int
	BollingerK       float64

	// RSI thresholds. Zero means the default, so a threshold of 0 cannot be
	// set; config.Validate rejects it for that reason.
	Overbought float64
	Oversold   float64
}

func DefaultConfig() Config {
	return Config{
		MinDataPoints:    20,
		RSIPeriod:        14,
		ShortMAPeriod:    9,
		LongMAPeriod:     21,
		ROCWindow:        5,
		VolatilityWindow: 20,
		VolumeWindow:     20,
		ATRPeriod:        14,
		BollingerPeriod:  20,
		BollingerK:       2,
		Overbought:       70,
		Oversold:         30,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	setInt := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	setInt(&c.MinDataPoints, d.MinDataPoints)
	setInt(&c.RSIPeriod, d.RSIPeriod)
	setInt(&c.ShortMAPeriod, d.ShortMAPeriod)
	setInt(&c.LongMAPeriod, d.LongMAPeriod)
	setInt(&c.ROCWindow, d.ROCWindow)
	setInt(&c.VolatilityWindow, d.VolatilityWindow)
	setInt(&c.VolumeWindow, d.VolumeWindow)
	setInt(&c.ATRPeriod, d.ATRPeriod)
	setInt(&c.BollingerPeriod, d.BollingerPeriod)
	if c.BollingerK <= 0 {
		c.BollingerK = d.BollingerK
	}
	if c.Overbought <= 0 {
		c.Overbought = d.Overbought
	}
	if c.Oversold <= 0 {
		c.Oversold = d.Oversold
	}
	return c
}

// Analyzer evaluates series. It holds no per-call state and is safe for
// concurrent use.
type Analyzer struct {
	cfg Config
	log *zap.Logger
}

type Option func(*Analyzer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

func New(cfg Config, opts ...Option) *Analyzer {
	a := &Analyzer{cfg: cfg.withDefaults(), log: zap.NewNop()}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Analyzer) Config() Config {
	return a.cfg
}

// Analyze computes a Signal from every bar of s. Missing columns and
// unexpected failures yield an ERROR signal; short history yields NEUTRAL.
func (a *Analyzer) Analyze(s market.Series) (sig Signal) {
	for _, col := range []market.Column{market.ColClose, market.ColVolume} {
		if !s.Has(col) {
			a.log.Warn("analysis rejected series", zap.Stringer("missing", col))
			return errorSignal(fmt.Sprintf("missing column %s", col))
		}
	}
	if s.Len() < a.cfg.MinDataPoints {
		a.log.Debug("insufficient data",
			zap.Int("bars", s.Len()),
			zap.Int("min", a.cfg.MinDataPoints))
		return Signal{Kind: Neutral, Reason: "insufficient data"}
	}

	defer func() {
		if r := recover(); r != nil {
			a.log.Error("analysis failed", zap.Any("panic", r))
			sig = errorSignal(fmt.Sprint(r))
		}
	}()

	closes := s.Closes()
	comp := Components{
		Trend:      a.trend(closes),
		Momentum:   a.momentum(closes),
		Volatility: a.volatility(s, closes),
		Volume:     a.volume(s.Volumes()),
	}
	return a.synthesize(comp)
}

func (a *Analyzer) trend(closes []float64) Trend {
	short := indicators.From(indicators.SMA(closes, a.cfg.ShortMAPeriod))
	long := indicators.From(indicators.SMA(closes, a.cfg.LongMAPeriod))
	t := Trend{Direction: NoTrend, ShortMA: short, LongMA: long}

	sv, sok := short.Get()
	lv, lok := long.Get()
	if !sok || !lok || lv == 0 {
		return t
	}
	t.Spread = (sv - lv) / lv * 100
	t.Strength = math.Abs(t.Spread)
	t.Direction = classify(t.Spread)
	return t
}

func (a *Analyzer) momentum(closes []float64) Momentum {
	return Momentum{
		RSI: indicators.From(indicators.RSI(closes, a.cfg.RSIPeriod)),
		ROC: indicators.From(indicators.ROC(closes, a.cfg.ROCWindow-1)),
	}
}

func (a *Analyzer) volatility(s market.Series, closes []float64) Volatility {
	var v Volatility
	rets, err := indicators.LogReturns(closes)
	if err != nil {
		return v
	}
	v.Daily = indicators.From(indicators.AnnualizedVolatility(rets))
	recent := rets
	if len(recent) > a.cfg.VolatilityWindow {
		recent = recent[len(recent)-a.cfg.VolatilityWindow:]
	}
	v.Recent = indicators.From(indicators.AnnualizedVolatility(recent))
	v.PriceRange = indicators.From(indicators.PriceRange(closes, a.cfg.VolatilityWindow))

	if s.Has(market.ColHigh | market.ColLow) {
		v.ATR = indicators.From(indicators.ATR(s.Highs(), s.Lows(), closes, a.cfg.ATRPeriod))
	}
	if b, err := indicators.Bollinger(closes, a.cfg.BollingerPeriod, a.cfg.BollingerK); err == nil {
		v.Bollinger = &b
	}
	return v
}

func (a *Analyzer) volume(volumes []float64) Volume {
	ratio := indicators.From(indicators.VolumeRatio(volumes, a.cfg.VolumeWindow))
	return Volume{Ratio: ratio, Trend: volumeLevel(ratio)}
}

// synthesize derives the signal kind and confidence from the components.
func (a *Analyzer) synthesize(c Components) Signal {
	sig := Signal{Kind: Neutral, Components: c}

	rsi, ok := c.Momentum.RSI.Get()
	if !ok {
		return sig
	}
	switch {
	case c.Trend.Direction.Up() && rsi < a.cfg.Overbought:
		sig.Kind = Buy
	case c.Trend.Direction.Down() && rsi > a.cfg.Oversold:
		sig.Kind = Sell
	default:
		return sig
	}

	conf := c.Trend.Strength * 0.01
	if ratio, ok := c.Volume.Ratio.Get(); ok {
		conf *= math.Min(ratio, 2.0)
	} else {
		conf = 0
	}
	sig.Confidence = math.Max(0, math.Min(conf, 1.0))
	return sig
}
