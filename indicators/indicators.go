// Package indicators provides technical analysis indicators for trading.
//
// Every function works on plain slices ordered oldest first and only looks
// at the trailing end of its input, so callers can pass a growing window
// of history without look-ahead.
package indicators

import (
	"encoding/json"
	"errors"
	"math"
)

var (
	ErrInvalidPeriod    = errors.New("indicators: period must be positive")
	ErrInsufficientData = errors.New("indicators: insufficient data")
	ErrUndefined        = errors.New("indicators: value undefined")
)

// Value is an indicator reading that may be undefined. The zero Value is
// undefined.
type Value struct {
	V     float64
	Valid bool
}

// Some wraps v. Non-finite numbers yield an undefined Value.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{V: v, Valid: true}
}

// From converts a (value, error) result into a Value.
func From(v float64, err error) Value {
	if err != nil {
		return Value{}
	}
	return Some(v)
}

func (v Value) Get() (float64, bool) {
	return v.V, v.Valid
}

// Or returns the reading, or def when undefined.
func (v Value) Or(def float64) float64 {
	if !v.Valid {
		return def
	}
	return v.V
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

func tail(values []float64, n int) []float64 {
	if n >= len(values) {
		return values
	}
	return values[len(values)-n:]
}
