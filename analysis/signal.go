package analysis

import "github.com/rustyeddy/backtester/indicators"

// Kind is the directional recommendation of a Signal.
type Kind string

const (
	Buy     Kind = "BUY"
	Sell    Kind = "SELL"
	Neutral Kind = "NEUTRAL"
	Error   Kind = "ERROR"
)

// Actionable reports whether the kind asks for a position.
func (k Kind) Actionable() bool {
	return k == Buy || k == Sell
}

// Direction classifies the moving average spread.
type Direction string

const (
	StrongUptrend   Direction = "STRONG_UPTREND"
	WeakUptrend     Direction = "WEAK_UPTREND"
	WeakDowntrend   Direction = "WEAK_DOWNTREND"
	StrongDowntrend Direction = "STRONG_DOWNTREND"
	NoTrend         Direction = "NEUTRAL"
)

func (d Direction) Up() bool {
	return d == StrongUptrend || d == WeakUptrend
}

func (d Direction) Down() bool {
	return d == StrongDowntrend || d == WeakDowntrend
}

// classify maps a spread percentage to a Direction.
func classify(spread float64) Direction {
	switch {
	case spread > 1:
		return StrongUptrend
	case spread > 0:
		return WeakUptrend
	case spread > -1:
		return WeakDowntrend
	default:
		return StrongDowntrend
	}
}

// VolumeLevel classifies the current volume against its trailing average.
type VolumeLevel string

const (
	HighVolume   VolumeLevel = "HIGH"
	LowVolume    VolumeLevel = "LOW"
	NormalVolume VolumeLevel = "NORMAL"
)

func volumeLevel(ratio indicators.Value) VolumeLevel {
	r, ok := ratio.Get()
	switch {
	case !ok:
		return NormalVolume
	case r > 1.5:
		return HighVolume
	case r < 0.5:
		return LowVolume
	default:
		return NormalVolume
	}
}

// Trend is the moving average component. Strength is the absolute spread
// percentage; Spread keeps its sign.
type Trend struct {
	Direction Direction        `json:"direction"`
	Strength  float64          `json:"strength"`
	Spread    float64          `json:"spread"`
	ShortMA   indicators.Value `json:"short_ma"`
	LongMA    indicators.Value `json:"long_ma"`
}

type Momentum struct {
	RSI indicators.Value `json:"rsi"`
	ROC indicators.Value `json:"roc"`
}

func (m Momentum) Overbought(level float64) bool {
	rsi, ok := m.RSI.Get()
	return ok && rsi > level
}

func (m Momentum) Oversold(level float64) bool {
	rsi, ok := m.RSI.Get()
	return ok && rsi < level
}

type Volatility struct {
	Daily      indicators.Value  `json:"daily"`
	Recent     indicators.Value  `json:"recent"`
	PriceRange indicators.Value  `json:"price_range"`
	ATR        indicators.Value  `json:"atr"`
	Bollinger  *indicators.Bands `json:"bollinger,omitempty"`
}

type Volume struct {
	Ratio indicators.Value `json:"ratio"`
	Trend VolumeLevel      `json:"trend"`
}

// Components holds the indicator readings behind a Signal.
type Components struct {
	Trend      Trend      `json:"trend"`
	Momentum   Momentum   `json:"momentum"`
	Volatility Volatility `json:"volatility"`
	Volume     Volume     `json:"volume"`
}

// Signal is a trade recommendation produced for one bar. It is a value and
// is never modified after Analyze returns it.
type Signal struct {
	Kind       Kind       `json:"kind"`
	Confidence float64    `json:"confidence"`
	Components Components `json:"components"`
	Reason     string     `json:"reason,omitempty"`
}

func errorSignal(reason string) Signal {
	return Signal{Kind: Error, Reason: reason}
}
