package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LoadCSV reads a bar file from disk. See ReadCSV for the format.
func LoadCSV(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, err
	}
	defer f.Close()

	s, err := ReadCSV(f)
	if err != nil {
		return Series{}, fmt.Errorf("%s: %w", path, err)
	}
	s.Source = path
	return s, nil
}

// ReadCSV parses a header-led CSV of bars. Columns are matched by name
// (time|timestamp|date, open, high, low, close, volume), in any order and
// case-insensitively; unknown columns are ignored. Rows must be ascending
// in time.
func ReadCSV(r io.Reader) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Series{}, ErrNoRows
	}
	if err != nil {
		return Series{}, fmt.Errorf("read header: %w", err)
	}

	timeCol := -1
	idx := map[Column]int{}
	var cols Column
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch name {
		case "time", "timestamp", "date", "datetime":
			timeCol = i
			continue
		}
		if c, ok := ColumnByName(name); ok {
			idx[c] = i
			cols |= c
		}
	}
	if cols == ColNone {
		return Series{}, fmt.Errorf("header %v has no price columns", header)
	}

	s := Series{Columns: cols}
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		var c Candle
		if timeCol >= 0 {
			if timeCol >= len(row) {
				return Series{}, fmt.Errorf("line %d: missing time field", line)
			}
			if c.Time, err = ParseTime(row[timeCol]); err != nil {
				return Series{}, fmt.Errorf("line %d: %w", line, err)
			}
		}

		for col, i := range idx {
			if i >= len(row) {
				return Series{}, fmt.Errorf("line %d: missing %s field", line, col)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				return Series{}, fmt.Errorf("line %d: bad %s %q: %w", line, col, row[i], err)
			}
			switch col {
			case ColOpen:
				c.Open = v
			case ColHigh:
				c.High = v
			case ColLow:
				c.Low = v
			case ColClose:
				c.Close = v
			case ColVolume:
				c.Volume = v
			}
		}
		s.Candles = append(s.Candles, c)
	}

	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	return s, nil
}

// ParseTime accepts RFC3339, common date/time layouts and unix epoch
// seconds or milliseconds. Results are UTC.
func ParseTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q", v)
	}
	// Anything past year 2286 in seconds is treated as milliseconds.
	if n > 9_999_999_999 {
		return time.UnixMilli(n).UTC(), nil
	}
	return time.Unix(n, 0).UTC(), nil
}
