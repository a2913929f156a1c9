package indicators

import "math"

// CalculateSMA computes the simple moving average over a trailing window.
// Entries are NaN until the window is full.
func CalculateSMA(values []float64, window int) []float64 {
	sma := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return sma
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			sma[i] = sum / float64(window)
		}
	}
	return sma
}

func nanSlice(length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
