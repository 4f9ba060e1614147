// Package report renders a backtest.Report for people: console tables, an
// Excel workbook and indented JSON.
package report

import (
	"encoding/json"
	"io"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rustyeddy/backtester/backtest"
)

// printer groups thousands in money and counts.
var printer = message.NewPrinter(language.English)

func money(x float64) string {
	return printer.Sprintf("$%.2f", x)
}

func pct(x float64) string {
	return printer.Sprintf("%.2f%%", x)
}

func ratio(r backtest.Ratio) string {
	v := float64(r)
	switch {
	case math.IsNaN(v):
		return "n/a"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return printer.Sprintf("%.4f", v)
}

// WriteJSON writes rep as indented JSON.
func WriteJSON(w io.Writer, rep *backtest.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
