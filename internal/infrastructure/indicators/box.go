package indicators

// CalculateRollingBox computes the trailing box: max(high) and min(low) over
// window bars. Entries are NaN until the window is full.
//
// The naive rescan is O(n*window); daily series are a few hundred bars so it
// stays well under anything worth a monotonic deque.
func CalculateRollingBox(highs, lows []float64, window int) (boxHigh, boxLow []float64) {
	boxHigh = nanSlice(len(highs))
	boxLow = nanSlice(len(lows))
	if window <= 0 || len(highs) < window {
		return boxHigh, boxLow
	}

	for i := window - 1; i < len(highs); i++ {
		hi, lo := highs[i], lows[i]
		for j := i - window + 1; j < i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		boxHigh[i] = hi
		boxLow[i] = lo
	}
	return boxHigh, boxLow
}
