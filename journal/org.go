package journal

import (
	"fmt"
	"math"
	"os"
	"strings"
	"text/template"
	"time"
)

type orgProp struct{ key, val string }

func writeDrawer(b *strings.Builder, props []orgProp) {
	b.WriteString(":PROPERTIES:\n")
	for _, p := range props {
		fmt.Fprintf(b, ":%s: %s\n", p.key, p.val)
	}
	b.WriteString(":END:\n")
}

// FormatTradeOrg renders one trade as an Org heading with a property
// drawer and an empty Review subheading for notes.
func FormatTradeOrg(t TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Trade: %s %s (%s)\n", t.Instrument, t.Side, shortID(t.TradeID))
	writeDrawer(&b, []orgProp{
		{"RUN_ID", t.RunID},
		{"TRADE_ID", t.TradeID},
		{"INSTRUMENT", t.Instrument},
		{"SIDE", t.Side},
		{"SIZE", fmt.Sprintf("%.6f", t.Size)},
		{"ENTRY_PRICE", fmt.Sprintf("%.5f", t.EntryPrice)},
		{"EXIT_PRICE", fmt.Sprintf("%.5f", t.ExitPrice)},
		{"OPEN_TIME", t.OpenTime.UTC().Format(time.RFC3339)},
		{"CLOSE_TIME", t.CloseTime.UTC().Format(time.RFC3339)},
		{"REALIZED_PL", fmt.Sprintf("%.2f", t.RealizedPL)},
		{"RETURN_PCT", fmt.Sprintf("%.4f", t.ReturnPct)},
		{"REASON", t.Reason},
		{"CONFIDENCE", fmt.Sprintf("%.4f", t.Confidence)},
	})
	b.WriteString("\n*** Review\n- \n")
	return b.String()
}

// FormatTradesOrg joins trade blocks with a blank line between them.
func FormatTradesOrg(trades []TradeRecord) string {
	blocks := make([]string, len(trades))
	for i, t := range trades {
		blocks[i] = FormatTradeOrg(t)
	}
	return strings.Join(blocks, "\n\n")
}

// shortID returns at most the first 8 characters of id.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var runOrgFuncs = template.FuncMap{
	"pct": func(x float64) float64 { return x * 100 },
	"ratio": func(x float64) string {
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return "inf"
		}
		return fmt.Sprintf("%.2f", x)
	},
	"trades": FormatTradesOrg,
}

var runOrg = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

type orgView struct {
	RunRecord
	TradeList []TradeRecord
}

// FormatRunOrg renders a run summary followed by its trades.
func FormatRunOrg(run RunRecord, trades []TradeRecord) (string, error) {
	var buf strings.Builder
	if err := runOrg.Execute(&buf, orgView{RunRecord: run, TradeList: trades}); err != nil {
		return "", fmt.Errorf("journal: render org: %w", err)
	}
	return buf.String(), nil
}

// WriteRunOrg writes the Org summary of run to path.
func WriteRunOrg(path string, run RunRecord, trades []TradeRecord) error {
	s, err := FormatRunOrg(run, trades)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

const RunOrgTemplate = `* BACKTEST: {{if .Strategy}}{{.Strategy}}{{else}}(strategy?){{end}} {{.Instrument}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:STRATEGY:    {{.Strategy}}
:INSTRUMENT:  {{.Instrument}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:START_BAL:   {{printf "%.2f" .StartBalance}}
:END_BAL:     {{printf "%.2f" .EndBalance}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" .WinRate}}
:PROFIT_FAC:  {{ratio .ProfitFactor}}
:CREATED:     [{{.Created.Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:     *{{printf "%.2f" .MaxDDPct}}%*
- Win Rate:         *{{printf "%.2f" (pct .WinRate)}}%*
- Profit Factor:    *{{ratio .ProfitFactor}}*

** Risk Metrics
| Metric             | Value |
|--------------------+-------|
| Sharpe             | {{printf "%.4f" .Sharpe}} |
| Sortino            | {{ratio .Sortino}} |
| VaR (95%)          | {{printf "%.4f" .VaR}} |
| Expected Shortfall | {{printf "%.4f" .ES}} |

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Open    | {{.OpenPositions}} |
| Total   | {{.Trades}} |
{{- if .TradeList }}

{{ trades .TradeList }}
{{- end }}
`
