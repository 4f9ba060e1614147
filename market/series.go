package market

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsorted is returned when bars are not in ascending time order.
	ErrUnsorted = errors.New("market: bars are not in ascending time order")

	// ErrNoRows is returned when a data source is empty, header included. A
	// header with no bars reads as an empty Series.
	ErrNoRows = errors.New("market: no rows")
)

// Series is an ordered, read-only sequence of bars. Columns records which
// fields the source actually supplied; fields of absent columns are zero.
type Series struct {
	Candles []Candle
	Columns Column
	Source  string
}

// NewSeries wraps candles with every column marked present.
func NewSeries(candles []Candle) Series {
	return Series{Candles: candles, Columns: ColAll}
}

func (s Series) Len() int {
	return len(s.Candles)
}

func (s Series) Has(c Column) bool {
	return s.Columns.Has(c)
}

// Window returns a view of the first n bars. The view shares storage with s
// and must not be modified.
func (s Series) Window(n int) Series {
	if n < 0 {
		n = 0
	}
	if n > len(s.Candles) {
		n = len(s.Candles)
	}
	return Series{Candles: s.Candles[:n:n], Columns: s.Columns, Source: s.Source}
}

// Last returns the final bar, or false on an empty series.
func (s Series) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

func (s Series) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Volume
	}
	return out
}

// Validate checks time ordering and high/low consistency where those
// columns are present.
func (s Series) Validate() error {
	hl := s.Has(ColHigh | ColLow)
	for i, c := range s.Candles {
		if i > 0 && c.Time.Before(s.Candles[i-1].Time) {
			return fmt.Errorf("bar %d: %w", i, ErrUnsorted)
		}
		if hl && c.High < c.Low {
			return fmt.Errorf("bar %d: high %.6f below low %.6f", i, c.High, c.Low)
		}
	}
	return nil
}

func (s Series) Highs() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.High
	}
	return out
}

func (s Series) Lows() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Low
	}
	return out
}
