package risk

import "fmt"

// Rejection reasons returned in Decision.Reason.
const (
	ReasonMaxDrawdown = "Maximum drawdown reached"
	ReasonDailyLoss   = "Daily loss limit reached"
	ReasonMissing     = "Missing required parameters"
	ReasonInvalidSize = "Invalid position size calculated"
)

type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of Controller.Validate.
type Decision struct {
	IsValid       bool
	Reason        string
	SuggestedSize float64

	Violations []Violation

	PlannedRisk    float64
	PlannedRiskPct float64
	PlannedRR      float64
}

func (d *Decision) reject(code, reason, msg string) {
	d.IsValid = false
	d.Reason = reason
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
}

// Params describes a proposed trade. TakeProfit is optional and only feeds
// the planned reward/risk ratio.
type Params struct {
	Balance    float64
	Entry      float64
	Stop       float64
	TakeProfit float64
}

// evaluate runs the checks in order; the first failing check decides.
func evaluate(p Policy, l Ledger, in Params, size func() float64) Decision {
	d := Decision{IsValid: true}

	if dd := l.DrawdownPct(); l.PeakBalance > 0 && dd >= p.MaxDrawdownPct {
		d.reject("MAX_DRAWDOWN", ReasonMaxDrawdown,
			fmt.Sprintf("drawdown %.2f%% >= max %.2f%%", dd, p.MaxDrawdownPct))
		return d
	}

	dayLimit := l.PeakBalance * p.MaxDailyLossPct / 100
	if l.DailyLosses >= dayLimit {
		d.reject("DAILY_LOSS_LIMIT", ReasonDailyLoss,
			fmt.Sprintf("daily losses %.2f >= limit %.2f", l.DailyLosses, dayLimit))
		return d
	}

	if in.Balance == 0 || in.Entry == 0 || in.Stop == 0 {
		d.reject("MISSING_PARAMS", ReasonMissing, "balance, entry and stop must be set")
		return d
	}

	s := size()
	if s <= 0 {
		d.reject("INVALID_SIZE", ReasonInvalidSize, fmt.Sprintf("size %.8f", s))
		return d
	}

	d.SuggestedSize = s
	d.PlannedRisk = s * PriceRisk(in.Entry, in.Stop)
	d.PlannedRiskPct = RiskPct(d.PlannedRisk, in.Balance)
	if in.TakeProfit != 0 {
		d.PlannedRR = RR(in.Entry, in.Stop, in.TakeProfit)
	}
	return d
}
