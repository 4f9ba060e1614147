package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rustyeddy/backtester/backtest"
)

// ConsoleOptions controls WriteConsole.
type ConsoleOptions struct {
	Title string
	// MaxTrades limits the trade table to the last n trades; 0 hides it,
	// a negative value shows every trade.
	MaxTrades int
}

// WriteConsole prints summary, risk and trade tables.
func WriteConsole(w io.Writer, rep *backtest.Report, opts ConsoleOptions) error {
	title := opts.Title
	if title == "" {
		title = "BACKTEST RESULTS"
	}

	ov := rep.Overview
	t := table.NewWriter()
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Period", period(ov.Start, ov.End)},
		{"Bars", printer.Sprintf("%d", ov.Bars)},
		{"Initial Capital", money(ov.InitialCapital)},
		{"Final Capital", money(ov.FinalCapital)},
		{"Total Return", pct(ov.TotalReturnPct)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Trades", ov.TotalTrades},
		{"Winning", ov.WinningTrades},
		{"Losing", ov.LosingTrades},
		{"Open Positions", ov.OpenPositions},
		{"Rejected Signals", ov.Rejected},
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 22, Align: text.AlignRight},
	})
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}

	rm, tm := rep.RiskMetrics, rep.TradeMetrics
	m := table.NewWriter()
	m.SetTitle("RISK / TRADE METRICS")
	m.SetStyle(table.StyleRounded)
	m.AppendRows([]table.Row{
		{"Sharpe Ratio", printer.Sprintf("%.4f", rm.SharpeRatio)},
		{"Sortino Ratio", ratio(rm.SortinoRatio)},
		{"Max Drawdown", pct(rm.MaxDrawdown * 100)},
		{"VaR", printer.Sprintf("%.4f", rm.ValueAtRisk)},
		{"Expected Shortfall", printer.Sprintf("%.4f", rm.ExpectedShortfall)},
	})
	m.AppendSeparator()
	m.AppendRows([]table.Row{
		{"Win Rate", pct(tm.WinRate * 100)},
		{"Average Win", money(tm.AvgWin)},
		{"Average Loss", money(tm.AvgLoss)},
		{"Largest Win", money(tm.LargestWin)},
		{"Largest Loss", money(tm.LargestLoss)},
		{"Profit Factor", ratio(tm.ProfitFactor)},
	})
	m.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 22, Align: text.AlignRight},
	})
	if _, err := fmt.Fprintln(w, m.Render()); err != nil {
		return err
	}

	trades := rep.Trades
	switch {
	case opts.MaxTrades == 0 || len(trades) == 0:
		return nil
	case opts.MaxTrades > 0 && len(trades) > opts.MaxTrades:
		trades = trades[len(trades)-opts.MaxTrades:]
	}

	tt := table.NewWriter()
	tt.SetTitle(fmt.Sprintf("TRADES (%d of %d)", len(trades), len(rep.Trades)))
	tt.SetStyle(table.StyleRounded)
	tt.AppendHeader(table.Row{"ID", "Side", "Entry", "Exit", "Size", "PnL", "Return", "Reason", "Closed"})
	for _, tr := range trades {
		tt.AppendRow(table.Row{
			tr.ID,
			tr.Side.String(),
			printer.Sprintf("%.4f", tr.EntryPrice),
			printer.Sprintf("%.4f", tr.ExitPrice),
			printer.Sprintf("%.6f", tr.Size),
			money(tr.PnL),
			pct(tr.ReturnPct),
			string(tr.ExitReason),
			tr.ExitTime.UTC().Format(time.DateOnly),
		})
	}
	_, err := fmt.Fprintln(w, tt.Render())
	return err
}

func period(start, end time.Time) string {
	if start.IsZero() {
		return "-"
	}
	return start.UTC().Format(time.DateOnly) + " .. " + end.UTC().Format(time.DateOnly)
}
