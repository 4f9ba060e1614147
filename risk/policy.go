package risk

// Policy holds the account level limits. Percentages are in percent
// (2.0 means 2%).
type Policy struct {
	// Circuit breakers
	MaxDailyLossPct float64 // 2.0, of peak balance
	MaxDrawdownPct  float64 // 15.0

	// Sizing
	PositionSizingPct float64 // 1.0, balance risked per trade
	MaxPositionSize   float64 // 1000, hard cap in units

	// Kelly inputs. The fixed values are used unless KellyFromHistory is
	// set and the ledger holds at least KellyMinTrades closed trades with
	// both wins and losses.
	KellyWinRate      float64 // 0.55
	KellyWinLossRatio float64 // 1.5
	KellyFromHistory  bool
	KellyMinTrades    int // 20
}

func DefaultPolicy() Policy {
	return Policy{
		MaxDailyLossPct:   2.0,
		MaxDrawdownPct:    15.0,
		PositionSizingPct: 1.0,
		MaxPositionSize:   1000,
		KellyWinRate:      0.55,
		KellyWinLossRatio: 1.5,
		KellyMinTrades:    20,
	}
}
