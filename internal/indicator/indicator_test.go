package indicator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

// assertNaNPrefix checks that exactly the first n values are NaN and the
// remainder are finite.
func (suite *IndicatorTestSuite) assertNaNPrefix(values []float64, n int) {
	for i, v := range values {
		if i < n {
			suite.True(math.IsNaN(v), "expected NaN at index %d, got %v", i, v)
		} else {
			suite.False(math.IsNaN(v), "unexpected NaN at index %d", i)
		}
	}
}

func (suite *IndicatorTestSuite) TestSMA() {
	values := []float64{1, 2, 3, 4, 5}
	out := SMA(values, 3)

	suite.Len(out, len(values))
	suite.assertNaNPrefix(out, 2)
	suite.InDelta(2.0, out[2], 1e-9)
	suite.InDelta(3.0, out[3], 1e-9)
	suite.InDelta(4.0, out[4], 1e-9)
}

func (suite *IndicatorTestSuite) TestSMAWindowLargerThanInput() {
	out := SMA([]float64{1, 2}, 5)

	suite.Len(out, 2)
	suite.assertNaNPrefix(out, 2)
}

func (suite *IndicatorTestSuite) TestEMA() {
	// alpha = 2/(3+1) = 0.5, seeded with the first value.
	out := EMA([]float64{2, 4, 6}, 3, optional.None[float64]())

	suite.Len(out, 3)
	suite.InDelta(2.0, out[0], 1e-9)
	suite.InDelta(3.0, out[1], 1e-9)
	suite.InDelta(4.5, out[2], 1e-9)
}

func (suite *IndicatorTestSuite) TestEMAConstantInput() {
	out := EMA([]float64{7, 7, 7, 7}, 2, optional.None[float64]())

	for i, v := range out {
		suite.InDelta(7.0, v, 1e-9, "index %d", i)
	}
}

func (suite *IndicatorTestSuite) TestEMAAlphaOverride() {
	values := []float64{2, 4, 6}

	// Explicit alpha 0.5 matches the window-3 default exactly.
	withAlpha := EMA(values, 0, optional.Some(0.5))
	withWindow := EMA(values, 3, optional.None[float64]())
	suite.Equal(withWindow, withAlpha)

	// alpha = 1 tracks the input with no smoothing.
	suite.Equal(values, EMA(values, 0, optional.Some(1.0)))
}

func (suite *IndicatorTestSuite) TestRSIBounds() {
	// Any input must produce RSI values inside [0, 100] past the warmup.
	rng := rand.New(rand.NewSource(42))

	closes := make([]float64, 200)
	price := 100.0

	for i := range closes {
		price += rng.Float64()*4 - 2
		closes[i] = price
	}

	out := RSI(closes, 14)

	suite.Len(out, len(closes))

	for i := 14; i < len(out); i++ {
		if math.IsNaN(out[i]) {
			continue
		}

		suite.GreaterOrEqual(out[i], 0.0, "index %d", i)
		suite.LessOrEqual(out[i], 100.0, "index %d", i)
	}
}

func (suite *IndicatorTestSuite) TestRSISaturation() {
	rising := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	out := RSI(rising, 3)

	suite.assertNaNPrefix(out[:3], 3)
	suite.InDelta(100.0, out[len(out)-1], 1e-9)

	falling := []float64{8, 7, 6, 5, 4, 3, 2, 1}
	out = RSI(falling, 3)
	suite.InDelta(0.0, out[len(out)-1], 1e-9)
}

func (suite *IndicatorTestSuite) TestRSIFlatSeriesUndefined() {
	flat := []float64{5, 5, 5, 5, 5, 5}
	out := RSI(flat, 3)

	for i, v := range out {
		suite.True(math.IsNaN(v), "index %d", i)
	}
}

func (suite *IndicatorTestSuite) TestMACDAlignment() {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	macdLine, signalLine, histogram := MACD(closes, 12, 26, 9)

	suite.Len(macdLine, len(closes))
	suite.Len(signalLine, len(closes))
	suite.Len(histogram, len(closes))

	for i := range closes {
		suite.InDelta(macdLine[i]-signalLine[i], histogram[i], 1e-9, "index %d", i)
	}

	// On a steadily rising series the fast EMA leads the slow one.
	suite.Greater(macdLine[len(closes)-1], 0.0)
}

func (suite *IndicatorTestSuite) TestBollingerBands() {
	closes := []float64{1, 2, 3, 4, 5}
	upper, middle, lower := BollingerBands(closes, 3, 2.0)

	suite.assertNaNPrefix(middle, 2)

	// Sample stddev of {1,2,3} is 1.
	suite.InDelta(2.0, middle[2], 1e-9)
	suite.InDelta(4.0, upper[2], 1e-9)
	suite.InDelta(0.0, lower[2], 1e-9)

	for i := 2; i < len(closes); i++ {
		suite.GreaterOrEqual(upper[i], middle[i], "index %d", i)
		suite.LessOrEqual(lower[i], middle[i], "index %d", i)
	}
}

func (suite *IndicatorTestSuite) TestStochastic() {
	highs := []float64{10, 12, 14}
	lows := []float64{6, 8, 10}
	closes := []float64{8, 11, 13}

	percentK, percentD := Stochastic(highs, lows, closes, 3, 1)

	suite.assertNaNPrefix(percentK, 2)
	suite.InDelta(87.5, percentK[2], 1e-9)
	suite.InDelta(87.5, percentD[2], 1e-9)
}

func (suite *IndicatorTestSuite) TestStochasticZeroRange() {
	highs := []float64{10, 10, 10}
	lows := []float64{10, 10, 10}
	closes := []float64{10, 10, 10}

	percentK, _ := Stochastic(highs, lows, closes, 3, 1)

	suite.True(math.IsNaN(percentK[2]))
}

func (suite *IndicatorTestSuite) TestATR() {
	highs := []float64{10, 12}
	lows := []float64{8, 9}
	closes := []float64{9, 11}

	out := ATR(highs, lows, closes, 1)

	suite.InDelta(2.0, out[0], 1e-9)
	// max(12-9, |12-9|, |9-9|) = 3
	suite.InDelta(3.0, out[1], 1e-9)
}

func (suite *IndicatorTestSuite) TestWilliamsRRange() {
	rng := rand.New(rand.NewSource(7))

	n := 100
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)

	price := 50.0
	for i := 0; i < n; i++ {
		price += rng.Float64()*2 - 1
		lows[i] = price - rng.Float64()
		highs[i] = price + rng.Float64()
		closes[i] = lows[i] + rng.Float64()*(highs[i]-lows[i])
	}

	out := WilliamsR(highs, lows, closes, 14)

	for i := 13; i < n; i++ {
		if math.IsNaN(out[i]) {
			continue
		}

		suite.GreaterOrEqual(out[i], -100.0, "index %d", i)
		suite.LessOrEqual(out[i], 0.0, "index %d", i)
	}
}

func (suite *IndicatorTestSuite) TestCCI() {
	// Typical prices collapse to 1, 2, 3 when high == low == close.
	highs := []float64{1, 2, 3}
	lows := []float64{1, 2, 3}
	closes := []float64{1, 2, 3}

	out := CCI(highs, lows, closes, 3)

	suite.True(math.IsNaN(out[0]))
	suite.True(math.IsNaN(out[1]))
	// mean = 2, mean abs deviation = 2/3, (3-2)/(0.015*2/3) = 100.
	suite.InDelta(100.0, out[2], 1e-9)
}

func (suite *IndicatorTestSuite) TestMFISaturation() {
	highs := []float64{1, 2, 3, 4, 5}
	lows := []float64{1, 2, 3, 4, 5}
	closes := []float64{1, 2, 3, 4, 5}
	volumes := []float64{10, 10, 10, 10, 10}

	out := MFI(highs, lows, closes, volumes, 3)

	suite.assertNaNPrefix(out[:3], 3)
	// All flow is positive, so the index saturates.
	suite.InDelta(100.0, out[4], 1e-9)
}

func (suite *IndicatorTestSuite) TestOBV() {
	closes := []float64{1, 2, 2, 1}
	volumes := []float64{10, 20, 30, 40}

	out := OBV(closes, volumes)

	suite.Equal([]float64{0, 20, 20, -20}, out)
}

func (suite *IndicatorTestSuite) TestVWAPCumulative() {
	highs := []float64{10, 20}
	lows := []float64{10, 20}
	closes := []float64{10, 20}
	volumes := []float64{1, 3}

	out := VWAP(highs, lows, closes, volumes, optional.None[int]())

	suite.InDelta(10.0, out[0], 1e-9)
	suite.InDelta(17.5, out[1], 1e-9)
}

func (suite *IndicatorTestSuite) TestVWAPRolling() {
	highs := []float64{10, 20, 30}
	lows := []float64{10, 20, 30}
	closes := []float64{10, 20, 30}
	volumes := []float64{1, 1, 1}

	out := VWAP(highs, lows, closes, volumes, optional.Some(2))

	suite.True(math.IsNaN(out[0]))
	suite.InDelta(15.0, out[1], 1e-9)
	suite.InDelta(25.0, out[2], 1e-9)
}
