package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRR(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		entry, stop, take float64
		want              float64
	}{
		{"long 1.5", 100, 98, 103, 1.5},
		{"short 1.5", 100, 102, 97, 1.5},
		{"zero risk", 100, 100, 103, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, RR(tt.entry, tt.stop, tt.take), 1e-12)
		})
	}
}

func TestRiskPct(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.01, RiskPct(5, 500), 1e-12)
	assert.True(t, math.IsInf(RiskPct(5, 0), 1))
}

func TestLedgerDrawdown(t *testing.T) {
	t.Parallel()

	l := Ledger{CurrentBalance: 850, PeakBalance: 1000}
	assert.InDelta(t, 15.0, l.DrawdownPct(), 1e-12)
	assert.InDelta(t, 0.15, l.Drawdown(), 1e-12)
	assert.Equal(t, 0.0, Ledger{}.DrawdownPct())
}
