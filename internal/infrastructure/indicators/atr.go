package indicators

import "math"

// CalculateTrueRange computes TR = max(H-L, |H-prevC|, |L-prevC|) per bar.
// The first bar has no previous close, so TR[0] is NaN.
func CalculateTrueRange(highs, lows, closes []float64) []float64 {
	trs := nanSlice(len(closes))
	for i := 1; i < len(closes); i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])

		maxVal := hl
		if hc > maxVal {
			maxVal = hc
		}
		if lc > maxVal {
			maxVal = lc
		}
		trs[i] = maxVal
	}
	return trs
}

// CalculateATR computes the Average True Range as a simple trailing mean of
// TR over period bars. Since TR starts at bar 1, ATR is NaN before bar
// index period.
func CalculateATR(highs, lows, closes []float64, period int) []float64 {
	atr := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return atr
	}

	trs := CalculateTrueRange(highs, lows, closes)

	sum := 0.0
	for i := 1; i < len(trs); i++ {
		sum += trs[i]
		if i > period {
			sum -= trs[i-period]
		}
		if i >= period {
			atr[i] = sum / float64(period)
		}
	}
	return atr
}
