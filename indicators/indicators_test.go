package indicators

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCloses() []float64 {
	return []float64{102, 105, 106, 108, 110, 111, 113, 114, 116, 118}
}

func TestSMA(t *testing.T) {
	ma, err := SMA(testCloses(), 5)
	assert.NoError(t, err)
	// Last 5 closes: 111,113,114,116,118 => 572/5 = 114.4
	assert.InDelta(t, 114.4, ma, 0.001)

	_, err = SMA(testCloses(), 11)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = SMA(testCloses(), 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestRSI(t *testing.T) {
	t.Run("no losses saturates at 100", func(t *testing.T) {
		rsi, err := RSI(testCloses(), 14)
		require.NoError(t, err)
		assert.Equal(t, 100.0, rsi)
	})

	t.Run("flat prices saturate at 100", func(t *testing.T) {
		rsi, err := RSI([]float64{5, 5, 5, 5}, 3)
		require.NoError(t, err)
		assert.Equal(t, 100.0, rsi)
	})

	t.Run("only losses is 0", func(t *testing.T) {
		rsi, err := RSI([]float64{10, 9, 8, 7}, 3)
		require.NoError(t, err)
		assert.Equal(t, 0.0, rsi)
	})

	t.Run("mixed", func(t *testing.T) {
		// changes +1 -1 +2: avg gain 1, avg loss 1/3, rs 3
		rsi, err := RSI([]float64{10, 11, 10, 12}, 3)
		require.NoError(t, err)
		assert.InDelta(t, 75.0, rsi, 1e-9)
	})

	t.Run("uses trailing window only", func(t *testing.T) {
		// the early crash is outside the 3-change window
		rsi, err := RSI([]float64{100, 10, 11, 10, 12}, 3)
		require.NoError(t, err)
		assert.InDelta(t, 75.0, rsi, 1e-9)
	})

	t.Run("short history uses available changes", func(t *testing.T) {
		rsi, err := RSI([]float64{10, 11, 10, 12}, 14)
		require.NoError(t, err)
		assert.InDelta(t, 75.0, rsi, 1e-9)
	})

	t.Run("insufficient", func(t *testing.T) {
		_, err := RSI([]float64{1}, 14)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestRSI_AlwaysInRange(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for n := 0; n < 200; n++ {
		prices := make([]float64, 2+r.Intn(40))
		p := 100.0
		for i := range prices {
			p += r.NormFloat64() * 3
			prices[i] = p
		}
		rsi, err := RSI(prices, 1+r.Intn(20))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rsi, 0.0)
		assert.LessOrEqual(t, rsi, 100.0)
	}
}

func TestROC(t *testing.T) {
	roc, err := ROC([]float64{100, 101, 102, 103, 104, 110}, 5)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, roc, 1e-9)

	_, err = ROC([]float64{1, 2, 3, 4, 5}, 5)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = ROC([]float64{0, 1, 2, 3, 4, 5}, 5)
	assert.ErrorIs(t, err, ErrUndefined)
}

func TestVolatility(t *testing.T) {
	rets, err := LogReturns([]float64{1, math.E})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1}, rets, 1e-12)

	_, err = LogReturns([]float64{1})
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = LogReturns([]float64{1, 0})
	assert.ErrorIs(t, err, ErrUndefined)

	vol, err := AnnualizedVolatility([]float64{0.1, -0.1})
	require.NoError(t, err)
	assert.InDelta(t, 0.1*math.Sqrt(252), vol, 1e-12)

	_, err = AnnualizedVolatility([]float64{0.1})
	assert.ErrorIs(t, err, ErrInsufficientData)

	vol, err = AnnualizedVolatility([]float64{0.01, 0.01, 0.01})
	require.NoError(t, err)
	assert.Equal(t, 0.0, vol)
}

func TestPriceRange(t *testing.T) {
	pr, err := PriceRange([]float64{10, 12, 8}, 20)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, pr, 1e-9)

	// only the trailing window counts
	pr, err = PriceRange([]float64{1, 10, 12, 8}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, pr, 1e-9)
}

func TestBollinger(t *testing.T) {
	b, err := Bollinger([]float64{1, 2, 3, 4, 5}, 5, 2)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, b.Middle, 1e-12)
	assert.InDelta(t, 3+2*math.Sqrt2, b.Upper, 1e-12)
	assert.InDelta(t, 3-2*math.Sqrt2, b.Lower, 1e-12)

	_, err = Bollinger([]float64{1, 2}, 5, 2)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestATR(t *testing.T) {
	atr, err := ATR([]float64{10, 11, 12}, []float64{8, 9, 10}, []float64{9, 10, 11}, 14)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, atr, 1e-12)

	_, err = ATR([]float64{1}, []float64{1}, []float64{1}, 14)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = ATR([]float64{1, 2}, []float64{1}, []float64{1, 2}, 14)
	assert.Error(t, err)
}

func TestTrueRange(t *testing.T) {
	assert.Equal(t, 10.0, trueRange(110, 100, 104))
	assert.Equal(t, 15.0, trueRange(110, 100, 95))
}

func TestVolumeRatio(t *testing.T) {
	vr, err := VolumeRatio([]float64{100, 100, 100, 400}, 20)
	require.NoError(t, err)
	assert.InDelta(t, 400.0/175.0, vr, 1e-12)

	_, err = VolumeRatio([]float64{0, 0}, 20)
	assert.ErrorIs(t, err, ErrUndefined)
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev(nil))
	assert.Equal(t, 0.0, StdDev([]float64{7}))
	// the mean of three 0.1s rounds away from 0.1
	assert.Equal(t, 0.0, StdDev([]float64{0.1, 0.1, 0.1}))
	assert.Equal(t, 0.0, StdDev([]float64{1, 1, 1}))
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
}

func TestPercentile(t *testing.T) {
	vals := []float64{5, 1, 4, 2, 3}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{5, 1.2},
		{50, 3},
		{100, 5},
	}
	for _, tt := range tests {
		got, err := Percentile(vals, tt.p)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12)
	}
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, vals, "input must not be reordered")

	_, err := Percentile(nil, 5)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestValue(t *testing.T) {
	assert.False(t, Some(math.NaN()).Valid)
	assert.False(t, Some(math.Inf(1)).Valid)
	assert.Equal(t, 2.0, Some(2).Or(9))
	assert.Equal(t, 9.0, Value{}.Or(9))
	assert.False(t, From(1, ErrUndefined).Valid)

	b, err := json.Marshal(struct {
		A Value `json:"a"`
		B Value `json:"b"`
	}{A: Some(1.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(b))

	var v Value
	require.NoError(t, json.Unmarshal([]byte("null"), &v))
	assert.False(t, v.Valid)
	require.NoError(t, json.Unmarshal([]byte("3"), &v))
	assert.Equal(t, Some(3), v)
}
