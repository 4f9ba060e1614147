package risk

// Ledger is the account state the controller validates against. It is
// updated only by Controller.RecordTradeResult.
type Ledger struct {
	CurrentBalance float64 `json:"current_balance"`
	PeakBalance    float64 `json:"peak_balance"`
	DailyLosses    float64 `json:"daily_losses"`

	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	GrossProfit float64 `json:"gross_profit"`
	GrossLoss   float64 `json:"gross_loss"` // magnitude
}

func NewLedger(balance float64) Ledger {
	return Ledger{CurrentBalance: balance, PeakBalance: balance}
}

// DrawdownPct is the decline from peak in percent, 0 without a peak.
func (l Ledger) DrawdownPct() float64 {
	if l.PeakBalance <= 0 {
		return 0
	}
	return (l.PeakBalance - l.CurrentBalance) / l.PeakBalance * 100
}

// Drawdown is the decline from peak as a fraction.
func (l Ledger) Drawdown() float64 {
	return l.DrawdownPct() / 100
}

func (l Ledger) Trades() int {
	return l.Wins + l.Losses
}

// apply books one realized pnl.
func (l Ledger) apply(pnl float64) Ledger {
	l.CurrentBalance += pnl
	switch {
	case pnl > 0:
		l.Wins++
		l.GrossProfit += pnl
	case pnl < 0:
		l.Losses++
		l.GrossLoss += -pnl
		l.DailyLosses += -pnl
	}
	if l.CurrentBalance > l.PeakBalance {
		l.PeakBalance = l.CurrentBalance
	}
	return l
}
