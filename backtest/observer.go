package backtest

import "github.com/rustyeddy/backtester/analysis"

// Observer receives simulation events as they happen. Implementations must
// not retain or modify the engine's slices.
type Observer interface {
	OnSignal(bar int, sig analysis.Signal)
	OnOpen(p Position)
	OnClose(t Trade)
	OnReject(bar int, reason string)
	OnBar(bar int, equity, drawdown float64)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnSignal(int, analysis.Signal) {}
func (NopObserver) OnOpen(Position)               {}
func (NopObserver) OnClose(Trade)                 {}
func (NopObserver) OnReject(int, string)          {}
func (NopObserver) OnBar(int, float64, float64)   {}

type multiObserver []Observer

// Observers fans events out to each observer in order.
func Observers(obs ...Observer) Observer {
	return multiObserver(obs)
}

func (m multiObserver) OnSignal(bar int, sig analysis.Signal) {
	for _, o := range m {
		o.OnSignal(bar, sig)
	}
}

func (m multiObserver) OnOpen(p Position) {
	for _, o := range m {
		o.OnOpen(p)
	}
}

func (m multiObserver) OnClose(t Trade) {
	for _, o := range m {
		o.OnClose(t)
	}
}

func (m multiObserver) OnReject(bar int, reason string) {
	for _, o := range m {
		o.OnReject(bar, reason)
	}
}

func (m multiObserver) OnBar(bar int, equity, drawdown float64) {
	for _, o := range m {
		o.OnBar(bar, equity, drawdown)
	}
}
