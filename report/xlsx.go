package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/rustyeddy/backtester/backtest"
)

const (
	summarySheet = "Summary"
	tradesSheet  = "Trades"
	equitySheet  = "Equity"
)

var tradeColumns = []any{"ID", "Side", "Entry Time", "Exit Time", "Entry Price", "Exit Price", "Size", "PnL", "Return %", "Exit Reason", "Confidence"}

// WriteXLSX writes rep to an Excel workbook at path.
func WriteXLSX(path string, rep *backtest.Report) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("report: create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), summarySheet); err != nil {
		return err
	}
	for _, s := range []string{tradesSheet, equitySheet} {
		if _, err := fx.NewSheet(s); err != nil {
			return err
		}
	}

	header, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := writeSummary(fx, rep, header); err != nil {
		return fmt.Errorf("report: summary sheet: %w", err)
	}
	if err := writeTrades(fx, rep.Trades, header); err != nil {
		return fmt.Errorf("report: trades sheet: %w", err)
	}
	if err := writeEquity(fx, rep, header); err != nil {
		return fmt.Errorf("report: equity sheet: %w", err)
	}

	return fx.SaveAs(path)
}

// cellRatio keeps infinities out of numeric cells.
func cellRatio(r backtest.Ratio) any {
	if math.IsInf(float64(r), 0) || math.IsNaN(float64(r)) {
		return ratio(r)
	}
	return float64(r)
}

func writeSummary(fx *excelize.File, rep *backtest.Report, header int) error {
	ov, rm, tm := rep.Overview, rep.RiskMetrics, rep.TradeMetrics
	rows := [][]any{
		{"Metric", "Value"},
		{"Start", ov.Start},
		{"End", ov.End},
		{"Bars", ov.Bars},
		{"Initial Capital", ov.InitialCapital},
		{"Final Capital", ov.FinalCapital},
		{"Total Return %", ov.TotalReturnPct},
		{"Total Trades", ov.TotalTrades},
		{"Winning Trades", ov.WinningTrades},
		{"Losing Trades", ov.LosingTrades},
		{"Open Positions", ov.OpenPositions},
		{"Rejected Signals", ov.Rejected},
		{"Sharpe Ratio", rm.SharpeRatio},
		{"Sortino Ratio", cellRatio(rm.SortinoRatio)},
		{"Max Drawdown", rm.MaxDrawdown},
		{"VaR", rm.ValueAtRisk},
		{"Expected Shortfall", rm.ExpectedShortfall},
		{"Win Rate", tm.WinRate},
		{"Average Win", tm.AvgWin},
		{"Average Loss", tm.AvgLoss},
		{"Largest Win", tm.LargestWin},
		{"Largest Loss", tm.LargestLoss},
		{"Profit Factor", cellRatio(tm.ProfitFactor)},
	}
	if err := setRows(fx, summarySheet, rows); err != nil {
		return err
	}
	if err := fx.SetCellStyle(summarySheet, "A1", "B1", header); err != nil {
		return err
	}
	return fx.SetColWidth(summarySheet, "A", "B", 20)
}

func writeTrades(fx *excelize.File, trades []backtest.Trade, header int) error {
	rows := make([][]any, 0, len(trades)+1)
	rows = append(rows, tradeColumns)
	for _, t := range trades {
		rows = append(rows, []any{
			t.ID, t.Side.String(), t.EntryTime, t.ExitTime,
			t.EntryPrice, t.ExitPrice, t.Size, t.PnL, t.ReturnPct,
			string(t.ExitReason), t.Metadata.Confidence,
		})
	}
	if err := setRows(fx, tradesSheet, rows); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(tradeColumns), 1)
	if err != nil {
		return err
	}
	if err := fx.SetCellStyle(tradesSheet, "A1", last, header); err != nil {
		return err
	}
	return fx.SetColWidth(tradesSheet, "A", "D", 28)
}

// writeEquity lists one row per equity point; bar 0 is the initial capital
// and has no drawdown.
func writeEquity(fx *excelize.File, rep *backtest.Report, header int) error {
	rows := make([][]any, 0, len(rep.EquityCurve)+1)
	rows = append(rows, []any{"Bar", "Equity", "Drawdown"})
	for k, v := range rep.EquityCurve {
		dd := 0.0
		if k > 0 && k-1 < len(rep.Drawdowns) {
			dd = rep.Drawdowns[k-1]
		}
		rows = append(rows, []any{k, v, dd})
	}
	if err := setRows(fx, equitySheet, rows); err != nil {
		return err
	}
	return fx.SetCellStyle(equitySheet, "A1", "C1", header)
}

func setRows(fx *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
