package market

import (
	"strings"
	"time"
)

// Candle represents one OHLCV bar.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Column is a bit set of the price columns a data source supplied.
type Column uint8

const (
	ColOpen Column = 1 << iota
	ColHigh
	ColLow
	ColClose
	ColVolume

	ColNone Column = 0
	ColAll         = ColOpen | ColHigh | ColLow | ColClose | ColVolume
)

var columnNames = []struct {
	col  Column
	name string
}{
	{ColOpen, "open"},
	{ColHigh, "high"},
	{ColLow, "low"},
	{ColClose, "close"},
	{ColVolume, "volume"},
}

// Has reports whether every column in want is present in c.
func (c Column) Has(want Column) bool {
	return c&want == want
}

func (c Column) String() string {
	if c == ColNone {
		return "none"
	}
	var parts []string
	for _, cn := range columnNames {
		if c&cn.col != 0 {
			parts = append(parts, cn.name)
		}
	}
	return strings.Join(parts, ",")
}

// ColumnByName maps a header name to its column. Matching is case-insensitive.
func ColumnByName(name string) (Column, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, cn := range columnNames {
		if cn.name == name {
			return cn.col, true
		}
	}
	return ColNone, false
}
