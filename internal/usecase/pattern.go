package usecase

import (
	"math"

	"stock-screener-backend/internal/config"
	"stock-screener-backend/internal/domain"
)

// PatternMarks holds the per-bar classification of one series, index-aligned
// with its bars.
type PatternMarks struct {
	Consolidating []bool
	BoxLowRef     []float64 // previous bar's box low; NaN when undefined
	Breakdown     []bool
	Reclaim       []bool
	ReclaimLag    []int // bars since the paired breakdown; 0 on non-reclaim bars
	BreakdownIdx  []int // index of the paired breakdown bar; -1 on non-reclaim bars
}

// PatternDetector classifies consolidation regimes, flags false breakdowns
// through the box floor, and pairs each breakdown with at most one reclaim.
type PatternDetector struct {
	cfg config.PatternConfig
}

func NewPatternDetector(cfg config.PatternConfig) *PatternDetector {
	return &PatternDetector{cfg: cfg}
}

// Detect walks the series bar by bar. Classification at bar i reads only bars
// 0..i: the breakdown reference is always the box low observed at bar i-1,
// never the bar's own box low, which would let the breakdown bar drag the
// floor down to meet itself. Warm-up bars with undefined ATR or box never
// classify as consolidating and so never break down.
//
// Reclaim pairing is the one forward-looking step: for each breakdown at i,
// the first close in (i, i+maxLag] above the frozen reference is its reclaim.
// Pairing therefore runs after the full history is classified; the per-bar
// flags themselves stay causal.
func (d *PatternDetector) Detect(s *domain.Series, f *FeatureSet) *PatternMarks {
	n := s.Len()
	closes, lows := s.Closes(), s.Lows()

	marks := &PatternMarks{
		Consolidating: make([]bool, n),
		BoxLowRef:     make([]float64, n),
		Breakdown:     make([]bool, n),
		Reclaim:       make([]bool, n),
		ReclaimLag:    make([]int, n),
		BreakdownIdx:  make([]int, n),
	}

	for i := 0; i < n; i++ {
		marks.BreakdownIdx[i] = -1

		ref := math.NaN()
		if i > 0 {
			ref = f.BoxLow[i-1]
		}
		marks.BoxLowRef[i] = ref

		if math.IsNaN(f.BoxHigh[i]) || math.IsNaN(f.ATR[i]) || closes[i] <= 0 {
			continue
		}
		rangePct := (f.BoxHigh[i] - f.BoxLow[i]) / closes[i]
		atrPct := f.ATR[i] / closes[i]
		if rangePct >= d.cfg.RangePctMax || atrPct >= d.cfg.ATRPctMax {
			continue
		}
		marks.Consolidating[i] = true

		if math.IsNaN(ref) {
			continue
		}
		threshold := ref - d.cfg.BreakdownKATR*f.ATR[i]
		if lows[i] < threshold {
			marks.Breakdown[i] = true
		}
	}

	for i := 0; i < n; i++ {
		if !marks.Breakdown[i] {
			continue
		}
		ref := marks.BoxLowRef[i]
		for lag := 1; lag <= d.cfg.ReclaimMaxLag; lag++ {
			j := i + lag
			if j >= n {
				break
			}
			if closes[j] > ref {
				marks.Reclaim[j] = true
				marks.ReclaimLag[j] = lag
				marks.BreakdownIdx[j] = i
				break // only the first recovery counts
			}
		}
	}

	return marks
}

// Summarize reduces reclaim-flagged bars into standalone event records. A
// series with no reclaims yields an empty slice.
func (d *PatternDetector) Summarize(s *domain.Series, marks *PatternMarks) []domain.ReclaimEvent {
	closes := s.Closes()

	events := make([]domain.ReclaimEvent, 0)
	for i := range marks.Reclaim {
		if !marks.Reclaim[i] {
			continue
		}
		bd := marks.BreakdownIdx[i]
		ref := marks.BoxLowRef[bd]
		if !(ref > 0) {
			continue
		}
		events = append(events, domain.ReclaimEvent{
			Symbol:         s.Symbol,
			BreakdownDate:  s.Bars[bd].Date,
			ReclaimDate:    s.Bars[i].Date,
			ReclaimLag:     marks.ReclaimLag[i],
			CloseAtReclaim: closes[i],
			BoxLowRef:      ref,
			ReclaimPct:     (closes[i] - ref) / ref * 100,
		})
	}
	return events
}
